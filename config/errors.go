// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "fmt"

// Error wraps a configuration key with the reason it was rejected, the way
// a misconfigured environment variable should be reported to an operator.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func keyErr(key, reason string) error {
	return &Error{Key: key, Reason: reason}
}
