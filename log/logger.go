// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log re-exports the structured logger used throughout the
// transport core from github.com/luxfi/log, the same package the
// teacher's own log/ package wraps (log/nolog.go, log/noop.go) rather
// than defining an independent logging interface of its own. Every
// fatal, warning, and diagnostic site named in spec.md §7 carries the PE
// rank attached via With at transport Init time.
package log

import rlog "github.com/luxfi/log"

// Logger is the structured-logging surface every package in this tree
// depends on, backed by github.com/luxfi/log.Logger.
type Logger = rlog.Logger
