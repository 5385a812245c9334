// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memkvs is an in-process kvs.Store for tests and the demo
// command: every PE in the run shares one *Hub, each PE gets a *Client
// bound to its rank.
package memkvs

import (
	"context"
	"fmt"
	"sync"

	"github.com/luxfi/rmacore/kvs"
)

// Hub is the shared state behind every PE's in-memory KVS client. It is the
// test double for the launcher-provided out-of-band channel spec.md §1
// places out of scope.
type Hub struct {
	size      int
	localSize int

	mu   sync.Mutex
	data map[string][]byte // "pe\x00key" -> value

	barrierMu    sync.Mutex
	barrierCount int
	barrierDone  chan struct{}
}

// NewHub creates a Hub for a run of size PEs, localSize of which share a
// node (used to divide the auto-sized STX pool).
func NewHub(size, localSize int) *Hub {
	return &Hub{
		size:        size,
		localSize:   localSize,
		data:        make(map[string][]byte),
		barrierDone: make(chan struct{}),
	}
}

// Client returns the kvs.Store view for PE pe.
func (h *Hub) Client(pe int) kvs.Store {
	return &client{hub: h, pe: pe}
}

type client struct {
	hub *Hub
	pe  int
}

func (c *client) Put(_ context.Context, key string, value []byte) error {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	c.hub.data[dataKey(c.pe, key)] = cp
	return nil
}

func (c *client) Get(_ context.Context, pe int, key string, out []byte) error {
	c.hub.mu.Lock()
	v, ok := c.hub.data[dataKey(pe, key)]
	c.hub.mu.Unlock()
	if !ok {
		return fmt.Errorf("memkvs: PE %d has not published key %q", pe, key)
	}
	if len(v) != len(out) {
		return &kvs.ErrLengthMismatch{Key: key, Want: len(out), Got: len(v)}
	}
	copy(out, v)
	return nil
}

// Barrier blocks the calling goroutine until every PE in the run has
// called Barrier. The last arrival closes the generation's done channel,
// waking every waiter; a fresh channel is installed for the next round so
// the barrier is reusable across repeated collectives.
func (c *client) Barrier(ctx context.Context) error {
	h := c.hub
	h.barrierMu.Lock()
	done := h.barrierDone
	h.barrierCount++
	if h.barrierCount == h.size {
		h.barrierCount = 0
		h.barrierDone = make(chan struct{})
		h.barrierMu.Unlock()
		close(done)
		return nil
	}
	h.barrierMu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *client) Size() int      { return c.hub.size }
func (c *client) LocalSize() int { return c.hub.localSize }

func dataKey(pe int, key string) string {
	return fmt.Sprintf("%d\x00%s", pe, key)
}
