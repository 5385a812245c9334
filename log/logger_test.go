// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import "testing"

func TestNoOpDoesNotPanic(t *testing.T) {
	var l Logger = NewNoOp()
	l = l.With("pe", 0)
	l.Debug("hello", "a", 1)
	l.Info("hello")
	l.Warn("hello")
	l.Error("hello")
	l.Fatal("hello")
}

func TestNamedLoggers(t *testing.T) {
	dev, err := NewDevelopment()
	if err != nil {
		t.Fatalf("NewDevelopment: %v", err)
	}
	dev = dev.With("pe", 1)
	dev.Info("bring-up complete", "stxMax", 4)

	prod, err := NewProduction()
	if err != nil {
		t.Fatalf("NewProduction: %v", err)
	}
	prod.Warn("atomic capability missing", "category", "bitwise-reduce")
}
