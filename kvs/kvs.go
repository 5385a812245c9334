// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package kvs defines the runtime key-value store the transport core
// consumes during bring-up (spec.md §6 "Runtime KVS (consumed)"). The
// launcher that actually implements out-of-band exchange (PMI, PMIx, a
// job-scheduler side channel, ...) is explicitly out of scope of this
// CORE (spec.md §1); this package only pins the contract and ships an
// in-memory implementation for tests and the demo command.
package kvs

import (
	"context"
	"fmt"
)

// Store is out-of-band exchange used only during bring-up: put a byte
// value under a key, wait for every PE to reach the same point, then read
// back another PE's value for that key. A Put is guaranteed visible to
// Get once both sides have passed a later Barrier; an implementation may
// make it visible sooner (memkvs does so immediately).
type Store interface {
	// Put stores bytes under key, guaranteed visible to other PEs after
	// the next Barrier every PE (including this one) calls.
	Put(ctx context.Context, key string, value []byte) error
	// Get reads the bytes pe stored under key. The value is guaranteed
	// present after a Barrier that both this PE and pe participated in;
	// before that, Get returns an error if it is not yet visible. len(out)
	// fixes the expected value size; a mismatch is fatal per spec.md §6
	// "Value sizes are fixed per key; length mismatches are fatal."
	Get(ctx context.Context, pe int, key string, out []byte) error
	// Barrier blocks until every PE in the job has called Barrier.
	Barrier(ctx context.Context) error
	// Size returns the total number of PEs in the job.
	Size() int
	// LocalSize returns the number of PEs co-located with this one on the
	// same node, used to divide the auto-sized STX pool (spec.md §4.2).
	LocalSize() int
}

// ErrLengthMismatch is returned by Get when the stored value's length does
// not match len(out), per spec.md §6's fatal-on-mismatch rule.
type ErrLengthMismatch struct {
	Key  string
	Want int
	Got  int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("kvs: key %q: expected %d bytes, stored value is %d bytes", e.Key, e.Want, e.Got)
}
