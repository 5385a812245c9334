// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import rlog "github.com/luxfi/log"

// NewProduction returns a named Logger backed by github.com/luxfi/log's
// own implementation, grounded in the teacher's
// internal/ringtail/finalizer.go use of log.NewLogger("ringtail").
func NewProduction() (Logger, error) {
	return rlog.NewLogger("rmacore"), nil
}

// NewDevelopment is an alias for NewProduction: github.com/luxfi/log does
// not expose separate development/production encoder presets the way
// go.uber.org/zap does directly, so both constructors route through the
// same named logger.
func NewDevelopment() (Logger, error) {
	return rlog.NewLogger("rmacore"), nil
}
