// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ctxreg

import (
	"fmt"
	"sync"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/internal/stx"
	"github.com/luxfi/rmacore/provider"
)

// growIncrement is how many slots the registry vector grows by at a time
// (spec.md §4.3 "Slot management").
const growIncrement = 128

// Opener is the subset of the bring-up sequence a Registry needs to bind a
// newly-created context's resources: an endpoint bound to the address
// vector, a put and a get counter, and a completion queue.
type Opener interface {
	OpenEndpoint() (provider.Endpoint, error)
	OpenCounter() (provider.Counter, error)
	OpenCQ() (provider.CQ, error)
}

// Registry is the growable slot array of live contexts (spec.md §4.3), plus
// the default context that lives outside it under the DefaultID sentinel.
type Registry struct {
	mu sync.Mutex

	cfg     config.Config
	stxPool *stx.Pool
	open    Opener
	ident   stx.IdentifyFunc
	threading provider.ThreadingMode

	slots []*Context // nil entries are free
	def   *Context
}

// New builds an empty registry. stxPool must already be sized and opened;
// ident identifies the calling thread for private STX ownership (spec.md
// §9 "Thread-id identity").
func New(cfg config.Config, stxPool *stx.Pool, open Opener, ident stx.IdentifyFunc, threading provider.ThreadingMode) *Registry {
	return &Registry{cfg: cfg, stxPool: stxPool, open: open, ident: ident, threading: threading}
}

// Create allocates a new context, binds its resources, grants or
// downgrades its options, and activates it. A failure during binding
// releases every partially-acquired resource and returns the slot to the
// registry untouched (spec.md §4.3 "Errors during Bound surface as
// creation failure with all partially-acquired resources released").
func (r *Registry) Create(opts Options) (*Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.findFreeSlotLocked()
	c := &Context{ID: id, state: Nascent}
	if r.threading == provider.Serialized {
		c.lock = &sync.Mutex{}
	}

	if err := r.bindLocked(c, opts); err != nil {
		return nil, err
	}
	c.state = Bound
	if err := c.Endpoint.Enable(); err != nil {
		r.releaseResourcesLocked(c)
		return nil, fmt.Errorf("ctxreg: enabling endpoint for context %d: %w", id, err)
	}
	c.state = Active

	r.slots[id] = c
	return c, nil
}

// CreateDefault creates the sentinel default context exactly once, during
// transport startup.
func (r *Registry) CreateDefault(opts Options) (*Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.def != nil {
		return nil, fmt.Errorf("ctxreg: default context already created")
	}
	c := &Context{ID: DefaultID, state: Nascent}
	if err := r.bindLocked(c, opts); err != nil {
		return nil, err
	}
	c.state = Bound
	if err := c.Endpoint.Enable(); err != nil {
		r.releaseResourcesLocked(c)
		return nil, fmt.Errorf("ctxreg: enabling endpoint for default context: %w", err)
	}
	c.state = Active
	r.def = c
	return c, nil
}

func (r *Registry) bindLocked(c *Context, opts Options) error {
	wantPrivate := opts.Private
	tid := r.ident()
	stxIdx, granted, err := r.stxPool.Allocate(wantPrivate, tid)
	if err != nil {
		return fmt.Errorf("ctxreg: allocating STX slot: %w", err)
	}
	c.StxIdx = stxIdx
	c.Tid = tid
	c.Options.Private = granted

	ep, err := r.open.OpenEndpoint()
	if err != nil {
		_ = r.stxPool.Release(stxIdx, granted, tid)
		return fmt.Errorf("ctxreg: opening endpoint: %w", err)
	}
	c.Endpoint = ep

	if err := ep.BindSTX(r.stxPool.Slot(stxIdx).Handle); err != nil {
		r.releaseResourcesLocked(c)
		return fmt.Errorf("ctxreg: binding STX slot %d: %w", stxIdx, err)
	}

	putCntr, err := r.open.OpenCounter()
	if err != nil {
		r.releaseResourcesLocked(c)
		return fmt.Errorf("ctxreg: opening put counter: %w", err)
	}
	c.PutCntr = putCntr
	if err := ep.BindCounter(putCntr, provider.CounterWrite); err != nil {
		r.releaseResourcesLocked(c)
		return fmt.Errorf("ctxreg: binding put counter: %w", err)
	}

	getCntr, err := r.open.OpenCounter()
	if err != nil {
		r.releaseResourcesLocked(c)
		return fmt.Errorf("ctxreg: opening get counter: %w", err)
	}
	c.GetCntr = getCntr
	if err := ep.BindCounter(getCntr, provider.CounterRead); err != nil {
		r.releaseResourcesLocked(c)
		return fmt.Errorf("ctxreg: binding get counter: %w", err)
	}

	cq, err := r.open.OpenCQ()
	if err != nil {
		r.releaseResourcesLocked(c)
		return fmt.Errorf("ctxreg: opening completion queue: %w", err)
	}
	c.CQ = cq
	if err := ep.BindCQ(cq, provider.CQTransmit|provider.CQRecv); err != nil {
		r.releaseResourcesLocked(c)
		return fmt.Errorf("ctxreg: binding completion queue: %w", err)
	}

	wantBounce := opts.BounceBuffer && r.cfg.BounceBufferingEnabled()
	bp, err := newBouncePool(r.cfg.BounceSize, r.cfg.MaxBounceBuffers)
	if err != nil {
		r.releaseResourcesLocked(c)
		return fmt.Errorf("ctxreg: allocating bounce buffers: %w", err)
	}
	if wantBounce {
		c.bounce = bp
	}
	c.Options.BounceBuffer = wantBounce

	return nil
}

// releaseResourcesLocked tears down whatever subset of a context's
// resources was successfully acquired, in reverse acquisition order.
func (r *Registry) releaseResourcesLocked(c *Context) {
	if c.CQ != nil {
		_ = c.CQ.Close()
	}
	if c.GetCntr != nil {
		_ = c.GetCntr.Close()
	}
	if c.PutCntr != nil {
		_ = c.PutCntr.Close()
	}
	if c.Endpoint != nil {
		_ = c.Endpoint.Close()
	}
	_ = r.stxPool.Release(c.StxIdx, c.Options.Private, c.Tid)
}

// Destroy advances a context through Draining to Closed, releasing its STX
// reference and every other resource, and frees its slot. Destroying the
// default context twice is an error (spec.md §3 "Context").
func (r *Registry) Destroy(c *Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.state == Closed {
		return fmt.Errorf("ctxreg: context %d already closed", c.ID)
	}
	if err := c.state.advanceTo(Draining); err != nil {
		return err
	}
	c.state = Draining

	r.releaseResourcesLocked(c)
	c.state = Closed

	if c.ID == DefaultID {
		r.def = nil
		return nil
	}
	r.slots[c.ID] = nil
	return nil
}

// findFreeSlotLocked scans for a NULL slot, growing the vector in fixed
// increments when none is free (spec.md §4.3 "Slot management").
func (r *Registry) findFreeSlotLocked() int {
	for i, s := range r.slots {
		if s == nil {
			return i
		}
	}
	base := len(r.slots)
	r.slots = append(r.slots, make([]*Context, growIncrement)...)
	return base
}

// Len returns the number of slots currently backing the registry
// (allocated or not), not counting the default context.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Live returns every non-nil context, including the default context if it
// exists, for global quiesce at teardown (spec.md §4.3 "keep it reachable
// for global quiesce at teardown").
func (r *Registry) Live() []*Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Context
	if r.def != nil {
		out = append(out, r.def)
	}
	for _, s := range r.slots {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
