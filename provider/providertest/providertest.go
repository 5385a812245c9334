// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package providertest is an in-memory provider.Handle used by the core's
// own tests. It never talks to
// real hardware; it exists so fabric bring-up, the STX allocator, the
// context registry, and the team/pSync allocator can be exercised without
// a libfabric-equivalent provider installed.
package providertest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/provider"
)

// Options configures which capabilities the fake provider reports, so
// tests can exercise every branch of the bring-up and atomic-validity
// policy in spec.md §4.1.
type Options struct {
	// Offered is the list of fabric/domain combinations QueryFabrics
	// returns. If empty, one default combination is offered.
	Offered []provider.Info
	// MissingCategories marks atomic categories the fake provider does
	// not support at all, to exercise spec.md §4.1's NoSupport/Warnings/
	// SoftSupport policies.
	MissingCategories map[config.AtomicCategory]bool
	// TxCtxCount is reported to size the STX pool in Auto mode.
	TxCtxCount int
}

// Handle is the fake provider.Handle.
type Handle struct {
	opts    Options
	nextKey uint64
}

// New returns a fake Handle. A zero Options gives one RMA+Atomics capable
// fabric/domain, remote-virtual-addressing on, no MR_RMA_EVENT, no
// per-op-context requirement, and 4 transmit contexts.
func New(opts Options) *Handle {
	if len(opts.Offered) == 0 {
		opts.Offered = []provider.Info{{
			ProviderName:      "fake",
			FabricName:        "fake-fabric",
			DomainName:        "fake-domain",
			RMA:               true,
			Atomics:           true,
			MRRemoteVirtAddr:  true,
			TxCtxCount:        4,
			MaxOrderedSize:    1 << 20,
		}}
	}
	return &Handle{opts: opts}
}

func (h *Handle) QueryFabrics(hints provider.Info) ([]provider.Info, error) {
	var out []provider.Info
	for _, info := range h.opts.Offered {
		if hints.RMA && !info.RMA {
			continue
		}
		if hints.Atomics && !info.Atomics {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

type fabric struct{ closed bool }

func (f *fabric) Close() error { f.closed = true; return nil }

func (h *Handle) OpenFabric(provider.Info) (provider.Fabric, error) {
	return &fabric{}, nil
}

type domain struct {
	closed bool
}

func (d *domain) Close() error { d.closed = true; return nil }

func (h *Handle) OpenDomain(provider.Fabric, provider.Info, provider.ThreadingMode) (provider.Domain, error) {
	return &domain{}, nil
}

type addr struct{ pe int }

type av struct {
	mu      sync.Mutex
	entries []addr
	size    int
}

func (a *av) Insert(addrs [][]byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for range addrs {
		a.entries = append(a.entries, addr{pe: len(a.entries)})
	}
	return len(addrs), nil
}

func (a *av) Address(i int) (provider.FabricAddr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.entries) {
		return nil, fmt.Errorf("providertest: address vector index %d out of range [0,%d)", i, len(a.entries))
	}
	return a.entries[i], nil
}

func (a *av) Close() error { return nil }

func (h *Handle) OpenAV(_ provider.Domain, size int) (provider.AddressVector, error) {
	return &av{size: size}, nil
}

type endpoint struct {
	id      uint64
	enabled bool
	closed  bool
}

var nextEPID uint64

func (e *endpoint) Name() ([]byte, error) {
	return []byte(fmt.Sprintf("fake-ep-%d", e.id)), nil
}
func (e *endpoint) BindAV(provider.AddressVector) error                      { return nil }
func (e *endpoint) BindCounter(provider.Counter, provider.CounterFlags) error { return nil }
func (e *endpoint) BindCQ(provider.CQ, provider.CQFlags) error                { return nil }
func (e *endpoint) BindSTX(provider.STXContext) error                        { return nil }
func (e *endpoint) Enable() error                                            { e.enabled = true; return nil }
func (e *endpoint) Close() error                                             { e.closed = true; return nil }

func (h *Handle) OpenEndpoint(provider.Domain, provider.Info) (provider.Endpoint, error) {
	return &endpoint{id: atomic.AddUint64(&nextEPID, 1)}, nil
}

// Counter is the fake provider.Counter. Tests drive completion explicitly
// with Advance since there are no real RMA verbs behind this provider.
type Counter struct {
	val    atomic.Uint64
	closed bool
}

// Advance increments the counter by delta, simulating delta completions.
func (c *Counter) Advance(delta uint64) { c.val.Add(delta) }

func (c *Counter) Read() uint64 { return c.val.Load() }

func (c *Counter) Wait(ctx context.Context, threshold uint64, pollLimit int) error {
	for i := 0; i < pollLimit; i++ {
		if c.Read() >= threshold {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	// Poll budget exhausted (or negative, meaning "block immediately"):
	// fall back to a coarse ticker rather than a tight spin.
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		if c.Read() >= threshold {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Counter) Close() error { c.closed = true; return nil }

func (h *Handle) OpenCounter(provider.Domain) (provider.Counter, error) {
	return &Counter{}, nil
}

// CQ is the fake provider.CQ; tests Push completion events onto it.
type CQ struct {
	ch     chan provider.CompletionEvent
	closed atomic.Bool
}

// Push enqueues a completion event, simulating a bounce-buffer op
// finishing.
func (q *CQ) Push(ev provider.CompletionEvent) { q.ch <- ev }

func (q *CQ) Read(ctx context.Context) (provider.CompletionEvent, error) {
	select {
	case ev := <-q.ch:
		return ev, nil
	case <-ctx.Done():
		return provider.CompletionEvent{}, ctx.Err()
	}
}

func (q *CQ) Close() error { q.closed.Store(true); return nil }

func (h *Handle) OpenCQ(provider.Domain) (provider.CQ, error) {
	return &CQ{ch: make(chan provider.CompletionEvent, 64)}, nil
}

type stx struct{ closed bool }

func (s *stx) Close() error { s.closed = true; return nil }

func (h *Handle) OpenSTX(provider.Domain) (provider.STXContext, error) {
	return &stx{}, nil
}

type mr struct {
	key  uint64
	base uintptr
}

func (m *mr) Key() uint64       { return m.key }
func (m *mr) BaseAddr() uintptr { return m.base }
func (m *mr) Enable() error     { return nil }
func (m *mr) Close() error      { return nil }

func (h *Handle) RegisterMR(_ provider.Domain, base uintptr, _ uint64, key uint64) (provider.MemoryRegion, error) {
	if key == 0 {
		key = atomic.AddUint64(&h.nextKey, 1)
	}
	return &mr{key: key, base: base}, nil
}

func (h *Handle) AtomicValid(_ provider.Endpoint, _, _ int, _ provider.AtomicQueryKind, cat config.AtomicCategory) (bool, error) {
	if h.opts.MissingCategories[cat] {
		return false, nil
	}
	return true, nil
}
