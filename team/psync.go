// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package team

import (
	"fmt"
	"math/bits"
	"sync"
)

// MaskPool holds this PE's pSync reservation mask: one bit per team slot,
// bit i == 1 meaning slot i is free (spec.md §3 "pSync reservation mask").
// The pool size is hard-capped at 64 (the width of mask) by
// config.Valid()'s TEAMS_MAX check, so a single uint64 suffices; a wider
// MAX_TEAMS would need a bitset, which the STX pool already demonstrates
// how to wire in.
type MaskPool struct {
	mu       sync.Mutex
	mask     uint64
	maxTeams int
}

// NewMaskPool reserves bit 0 for the world team and marks every other bit,
// up to maxTeams, free (spec.md §4.4 "World team": "reserving bit 0 of the
// pSync mask").
func NewMaskPool(maxTeams int) (*MaskPool, error) {
	if maxTeams <= 0 || maxTeams > 64 {
		return nil, fmt.Errorf("team: maxTeams must be in (0,64], got %d", maxTeams)
	}
	var full uint64
	if maxTeams == 64 {
		full = ^uint64(0)
	} else {
		full = (uint64(1) << uint(maxTeams)) - 1
	}
	return &MaskPool{mask: full &^ 1, maxTeams: maxTeams}, nil
}

// Snapshot returns the current reservation mask, for diagnostics and for
// seeding the first round of a split's AND-reduction.
func (p *MaskPool) Snapshot() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mask
}

// Reserve clears the lowest free bit and returns its index, or -1 if no
// bit is free ("teams exhausted", spec.md §4.4 step 3).
func (p *MaskPool) Reserve() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mask == 0 {
		return -1
	}
	i := bits.TrailingZeros64(p.mask)
	p.mask &^= uint64(1) << uint(i)
	return i
}

// Adopt overwrites the local mask with a value agreed by the group's
// AND-reduction (spec.md §4.4 step 2: "AND across identical masks is a
// no-op; the reduction exists to synchronize and to tolerate transient
// divergence").
func (p *MaskPool) Adopt(mask uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mask = mask
}

// UsedCount returns how many of the maxTeams slots are currently reserved,
// for metrics (spec.md §7 "Metrics").
func (p *MaskPool) UsedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxTeams - bits.OnesCount64(p.mask)
}

// groupSlot returns the pSync slot index for group g (0 or 1) of a team at
// psyncIdx (spec.md §3 "pSync slot": "group g = psync_idx + g*MAX_TEAMS").
func (p *MaskPool) groupSlot(psyncIdx, g int) int {
	return psyncIdx + g*p.maxTeams
}
