// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package team

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/luxfi/rmacore/kvs"
)

// KVSTransport implements Transport over the runtime KVS (spec.md §6
// "Runtime KVS"), publishing each participant's local value under a
// slot-scoped key and polling for every other group member's value. The
// reduction and barrier ALGORITHMS a real RMA provider would run over the
// symmetric heap stay out of this core's scope (spec.md §1); this type
// only gives SplitStrided something it can call end to end using a
// dependency the core already consumes.
//
// It relies on a Store whose Put becomes visible to other PEs' Get without
// a Barrier, as memkvs's does, and treats any Get error as "not yet".
//
// It deliberately does not use kvs.Store's own Barrier: that barrier is
// job-wide, but a step-2 reduction is scoped to the child team, which may
// be a strict subset of the job, so a world-wide rendezvous would hang
// waiting on PEs that never call Reduce for that split. Polling Get
// instead only requires the group members that actually call Reduce.
//
// A pSync slot is safe to reuse across back-to-back splits (e.g. the two
// SplitStrided calls behind Split2D) only once every member of the prior
// round has observed its result; callers that fan out single-shot
// collectives one at a time, as the demo command does, never hit the
// stale-publish window this implies.
type KVSTransport struct {
	store    kvs.Store
	me       int
	interval time.Duration
}

// NewKVSTransport returns a Transport that reduces over store, identifying
// this process as world rank me. interval bounds how often an unresolved
// peer value is retried; a non-positive interval defaults to 1ms.
func NewKVSTransport(store kvs.Store, me int, interval time.Duration) *KVSTransport {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &KVSTransport{store: store, me: me, interval: interval}
}

// Reduce implements Transport.
func (t *KVSTransport) Reduce(ctx context.Context, group []int, pSyncSlot int, localValue uint64) (uint64, error) {
	key := fmt.Sprintf("psync/%d", pSyncSlot)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], localValue)
	if err := t.store.Put(ctx, key, buf[:]); err != nil {
		return 0, fmt.Errorf("team: publishing reduce value: %w", err)
	}

	acc := ^uint64(0)
	for _, pe := range group {
		v, err := t.pollOne(ctx, pe, key)
		if err != nil {
			return 0, err
		}
		acc &= v
	}
	return acc, nil
}

func (t *KVSTransport) pollOne(ctx context.Context, pe int, key string) (uint64, error) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		var out [8]byte
		if err := t.store.Get(ctx, pe, key, out[:]); err == nil {
			return binary.LittleEndian.Uint64(out[:]), nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return 0, fmt.Errorf("team: waiting for PE %d's reduce value: %w", pe, ctx.Err())
		}
	}
}
