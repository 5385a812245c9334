// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import rlog "github.com/luxfi/log"

// NewNoOp returns a Logger that discards everything, used by tests and by
// callers that have not wired a real backend yet, grounded in the
// teacher's log.NewNoOpLogger (log/noop.go, log/nolog.go).
func NewNoOp() Logger { return rlog.NewNoOpLogger() }
