// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package teamtest is an in-process team.Transport for tests: every PE in
// the run shares one *Hub, which rendezvous-es the bitwise-AND reductions a
// split issues, the same way kvs/memkvs fakes the runtime KVS.
package teamtest

import (
	"context"
	"sync"
)

// Hub fakes the pSync-mediated AND-reduce primitive SplitStrided needs,
// without a real symmetric heap or provider underneath.
type Hub struct {
	mu      sync.Mutex
	rounds  map[int]*round
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{rounds: make(map[int]*round)}
}

type round struct {
	want int
	have int
	acc  uint64
	done chan struct{}
}

// Client returns the team.Transport view used by one PE.
func (h *Hub) Client() *Client { return &Client{hub: h} }

// Client is the per-PE handle into a Hub.
type Client struct{ hub *Hub }

// Reduce implements team.Transport.
func (c *Client) Reduce(ctx context.Context, group []int, pSyncSlot int, localValue uint64) (uint64, error) {
	h := c.hub
	h.mu.Lock()
	r, ok := h.rounds[pSyncSlot]
	if !ok {
		r = &round{want: len(group), acc: ^uint64(0), done: make(chan struct{})}
		h.rounds[pSyncSlot] = r
	}
	r.acc &= localValue
	r.have++
	if r.have == r.want {
		delete(h.rounds, pSyncSlot)
		close(r.done)
		h.mu.Unlock()
		return r.acc, nil
	}
	h.mu.Unlock()

	select {
	case <-r.done:
		return r.acc, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
