// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package stx implements the shared-transmit-context pool allocator
// (spec.md §4.2): a fixed-size array of provider transmit resources
// multiplexed over a user-creatable set of contexts, honoring private
// (per-thread-exclusive) requests where possible and falling back to a
// bounded-over-subscription shared pool otherwise.
package stx

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/provider"
)

// Slot is one entry of the STX pool (spec.md §3 "STX slot").
type Slot struct {
	Handle    provider.STXContext
	RefCnt    uint64
	IsPrivate bool
}

// Pool is the STX pool plus the private-owner map, both guarded by the
// pool's own mutex; the context registry holds a separate lock of its own.
type Pool struct {
	mu sync.Mutex

	slots     []Slot
	allocator config.Allocator
	threshold int  // StxThreshold; -1 = unbounded
	disablePriv bool

	// free tracks ref_cnt == 0 slots for find_unused; a bit is set when
	// the slot is unused.
	free *bitset.BitSet

	// cursor is the persistent round-robin walk position for find_shared.
	cursor int
	rng    *rand.Rand

	owners map[ThreadId]int // thread id -> slot index, private allocations only
}

// New builds a pool of n STX slots, each opened eagerly via open. n must be
// >= 1; bring-up is responsible for deriving n from configuration (Auto
// mode, Single/Funneled forcing 1) before calling New.
func New(n int, cfg config.Config, open func() (provider.STXContext, error)) (*Pool, error) {
	if n < 1 {
		return nil, fmt.Errorf("stx: pool size must be >= 1, got %d", n)
	}
	slots := make([]Slot, n)
	for i := range slots {
		h, err := open()
		if err != nil {
			for j := 0; j < i; j++ {
				_ = slots[j].Handle.Close()
			}
			return nil, fmt.Errorf("stx: opening slot %d of %d: %w", i, n, err)
		}
		slots[i] = Slot{Handle: h}
	}

	free := bitset.New(uint(n))
	for i := range slots {
		free.Set(uint(i))
	}

	return &Pool{
		slots:       slots,
		allocator:   cfg.StxAllocator,
		threshold:   cfg.StxThreshold,
		disablePriv: cfg.StxDisablePrivate,
		free:        free,
		rng:         rand.New(rand.NewSource(rand.Int63())),
		owners:      make(map[ThreadId]int),
	}, nil
}

// Len returns the pool size.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

// Slot returns a copy of slot i's bookkeeping state, for tests and
// diagnostics (spec.md §6 "DEBUG").
func (p *Pool) Slot(i int) Slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slots[i]
}

// RefCountSum returns Σ ref_cnt across every slot (spec.md §8 invariant
// "Σ stx.ref_cnt == #live contexts").
func (p *Pool) RefCountSum() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sum uint64
	for _, s := range p.slots {
		sum += s.RefCnt
	}
	return sum
}

// findUnused returns the index of the first slot with ref_cnt == 0, or -1
// (spec.md §4.2 "find_unused").
func (p *Pool) findUnused() int {
	i, ok := p.free.NextSet(0)
	if !ok {
		return -1
	}
	return int(i)
}

// findShared returns the index of an eligible non-private slot with
// 0 < ref_cnt <= threshold (threshold == -1 meaning "any non-private shared
// slot"), or -1 if none qualifies (spec.md §4.2 "find_shared").
func (p *Pool) findShared(threshold int) int {
	switch p.allocator {
	case config.Random:
		return p.findSharedRandom(threshold)
	default:
		return p.findSharedRoundRobin(threshold)
	}
}

func (p *Pool) eligible(i int, threshold int) bool {
	s := p.slots[i]
	if s.IsPrivate || s.RefCnt == 0 {
		return false
	}
	return threshold == -1 || s.RefCnt <= uint64(threshold)
}

// findSharedRoundRobin walks from the persistent cursor, advancing it past
// every hit so the next search resumes one slot later.
func (p *Pool) findSharedRoundRobin(threshold int) int {
	n := len(p.slots)
	for k := 0; k < n; k++ {
		i := (p.cursor + k) % n
		if p.eligible(i, threshold) {
			p.cursor = (i + 1) % n
			return i
		}
	}
	return -1
}

// findSharedRandom rejection-samples among eligible slots: it collects the
// eligible set and picks uniformly among it.
func (p *Pool) findSharedRandom(threshold int) int {
	var eligible []int
	for i := range p.slots {
		if p.eligible(i, threshold) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return -1
	}
	return eligible[p.rng.Intn(len(eligible))]
}

func (p *Pool) markUsed(i int) {
	p.free.Clear(uint(i))
}

func (p *Pool) markUnused(i int) {
	p.free.Set(uint(i))
}
