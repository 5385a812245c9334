// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stx

import "fmt"

// ThreadId identifies the calling thread for the private-STX owner map
// (spec.md §9 "Thread-id identity"). Identification varies by platform: a
// syscall-level tid where the OS exposes one, a synthetic counter
// otherwise. Equality and hashing are defined per-variant, so two
// ThreadIds compare equal only when both their kind and value match.
type ThreadId struct {
	synthetic bool
	value     uint64
}

// OsTid wraps a platform thread id (e.g. gettid() on Linux).
func OsTid(v uint64) ThreadId { return ThreadId{value: v} }

// Synthetic wraps a process-private identifier used where the platform has
// no stable thread id, or in tests that want deterministic thread
// identities without touching the OS.
func Synthetic(v uint64) ThreadId { return ThreadId{synthetic: true, value: v} }

func (t ThreadId) String() string {
	if t.synthetic {
		return fmt.Sprintf("synthetic:%d", t.value)
	}
	return fmt.Sprintf("os:%d", t.value)
}

// IdentifyFunc produces the ThreadId for the calling goroutine/thread. It is
// pluggable so callers can inject a synthetic source in tests (spec.md §9).
type IdentifyFunc func() ThreadId
