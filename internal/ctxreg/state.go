// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ctxreg implements the context registry and per-context state
// machine (spec.md §4.3), plus quiet/completion semantics (spec.md §4.5)
// and the bounce-buffer freelist (spec.md §3 "Bounce buffer").
package ctxreg

import "fmt"

// State is one stage of a context's lifecycle (spec.md §4.3 "Per-context
// state machine").
type State int

const (
	// Nascent is the state immediately after slot allocation, before any
	// resource is attached.
	Nascent State = iota
	// Bound means endpoint, counters, CQ and STX are attached.
	Bound
	// Active means the endpoint has been enabled; RMA may be posted.
	Active
	// Draining means a quiesce is in flight.
	Draining
	// Closed means resources have been released and the slot is free.
	Closed
)

func (s State) String() string {
	switch s {
	case Nascent:
		return "nascent"
	case Bound:
		return "bound"
	case Active:
		return "active"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// transitions enumerates the only state changes the registry allows.
// Errors during Bound must surface as creation failure with all
// partially-acquired resources released (spec.md §4.3), which the caller
// implements by never advancing past Nascent on that path.
var transitions = map[State]State{
	Nascent:  Bound,
	Bound:    Active,
	Active:   Draining,
	Draining: Closed,
}

func (s State) advanceTo(next State) error {
	want, ok := transitions[s]
	if !ok || want != next {
		return fmt.Errorf("ctxreg: invalid state transition %s -> %s", s, next)
	}
	return nil
}
