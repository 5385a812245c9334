// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ctxreg

import (
	"sync"
	"sync/atomic"

	"github.com/luxfi/rmacore/internal/stx"
	"github.com/luxfi/rmacore/provider"
)

// DefaultID is the sentinel id of the context created implicitly by
// transport startup. It lives outside the growable registry slice and may
// be destroyed exactly once (spec.md §3 "Context").
const DefaultID = -1

// Options are the CTX_* flags a caller passes to Create (spec.md §6
// "Context options flags"). Unsupported combinations silently downgrade:
// Private is stripped when no unused STX slot is available; BounceBuffer
// is stripped when the provider requires per-op context pointers or when
// bounce buffering is configured off.
type Options struct {
	Private      bool
	BounceBuffer bool
}

// Context is one user-visible communication channel: an endpoint bound to
// a put counter, a get counter, a completion queue, an optional
// bounce-buffer freelist, and exactly one STX slot (spec.md §3 "Context").
type Context struct {
	ID      int
	Options Options // as granted, post-downgrade
	StxIdx  int
	Tid     stx.ThreadId

	Endpoint provider.Endpoint
	PutCntr  provider.Counter
	GetCntr  provider.Counter
	CQ       provider.CQ

	bounce *bouncePool

	pendingPut  atomic.Uint64
	pendingGet  atomic.Uint64
	completedBB atomic.Uint64
	pendingBB   atomic.Uint64

	state State

	// lock, when non-nil, serializes operations issued on this context
	// and forces completion-waiting calls to poll rather than block
	// (spec.md §5 "Locks").
	lock *sync.Mutex
}

// NeedsPolling reports whether this context's lock forces put/get poll
// limits to "yield" rather than immediately block (spec.md §5 "Locks").
func (c *Context) NeedsPolling() bool { return c.lock != nil }

// Lock acquires the context's own lock, if it has one. A context created
// without a private lock relies solely on the registry's global lock.
func (c *Context) Lock() {
	if c.lock != nil {
		c.lock.Lock()
	}
}

// Unlock releases the context's own lock, if it has one.
func (c *Context) Unlock() {
	if c.lock != nil {
		c.lock.Unlock()
	}
}

// State returns the context's current lifecycle state.
func (c *Context) State() State { return c.state }

// AddPendingPut records n more put operations posted on this context.
func (c *Context) AddPendingPut(n uint64) { c.pendingPut.Add(n) }

// AddPendingGet records n more get operations posted on this context.
func (c *Context) AddPendingGet(n uint64) { c.pendingGet.Add(n) }

// AcquireBounce draws one bounce buffer from this context's freelist, or
// an error if bounce buffering is disabled or the freelist is exhausted.
// The caller posts its RMA operation with the returned buffer's OpCtx as
// the provider op-context pointer.
func (c *Context) AcquireBounce() (*BounceBuffer, error) {
	if c.bounce == nil {
		return nil, errBounceDisabled
	}
	b, err := c.bounce.acquire()
	if err != nil {
		return nil, err
	}
	c.pendingBB.Add(1)
	return b, nil
}

// recoverBounce returns the in-flight buffer matching a completion event's
// OpCtx to the freelist, reporting whether the event belonged to a bounce
// buffer at all.
func (c *Context) recoverBounce(opCtx uintptr) bool {
	if c.bounce == nil {
		return false
	}
	if _, ok := c.bounce.recover(opCtx); ok {
		c.completedBB.Add(1)
		return true
	}
	return false
}

// HasBounceBuffers reports whether this context was granted bounce
// buffering (post-downgrade).
func (c *Context) HasBounceBuffers() bool { return c.bounce != nil }
