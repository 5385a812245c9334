// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package team implements team creation, splitting, PE translation, and the
// pSync scratch-pool allocator (spec.md §4.4): a distributed allocator of
// per-team collective scratch slots, negotiated so that every participating
// PE picks the same slot.
package team

import "fmt"

// SyncSize is the number of provider-agnostic words in one pSync slot
// (spec.md §3 "pSync slot").
const SyncSize = 8

// SyncValue is the value every word of a pSync slot holds outside an
// in-flight collective (spec.md §3 "pSync slot" invariant).
const SyncValue uint64 = 0

// WorldPsyncIdx is the pSync slot reserved permanently for the world team
// (spec.md §4.4 "World team").
const WorldPsyncIdx = 0

// Team is a strided subgroup of world PEs (spec.md §3 "Team").
type Team struct {
	ID       int
	Start    int
	Stride   int
	Size     int
	MyPe     int // -1 if this PE is not a member
	PsyncIdx int

	Config     any
	ConfigMask uint64
}

// Null is the handle a PE receives for a split it does not participate in.
var Null = &Team{MyPe: -1, PsyncIdx: -1}

// IsNull reports whether t is the null team handle.
func (t *Team) IsNull() bool { return t == nil || t.MyPe < 0 }

// validateStrided checks the invariant spec.md §3 "Team" places on
// (start, stride, size): start >= 0, stride >= 1, size > 0, and the last
// member's world rank must be < worldSize.
func validateStrided(start, stride, size, worldSize int) error {
	if start < 0 {
		return fmt.Errorf("team: start must be >= 0, got %d", start)
	}
	if stride < 1 {
		return fmt.Errorf("team: stride must be >= 1, got %d", stride)
	}
	if size <= 0 {
		return fmt.Errorf("team: size must be > 0, got %d", size)
	}
	if last := start + (size-1)*stride; last >= worldSize {
		return fmt.Errorf("team: last member's world rank %d is out of range [0,%d)", last, worldSize)
	}
	return nil
}

// member reports whether world rank me belongs to the strided set
// (start, stride, size), and if so its local rank within the team
// (spec.md §4.4 "Split (strided)" step 1).
func member(me, start, stride, size int) (localRank int, ok bool) {
	if me < start {
		return 0, false
	}
	d := me - start
	if d%stride != 0 {
		return 0, false
	}
	local := d / stride
	if local >= size {
		return 0, false
	}
	return local, true
}

// WorldRank returns the world rank of a team's local PE i
// (spec.md §4.4 "PE translation"): start + i*stride.
func (t *Team) WorldRank(i int) int {
	return t.Start + i*t.Stride
}

// World constructs the process-global singleton world team
// (spec.md §4.4 "World team").
func World(myPe, worldSize int) *Team {
	return &Team{
		ID:       0,
		Start:    0,
		Stride:   1,
		Size:     worldSize,
		MyPe:     myPe,
		PsyncIdx: WorldPsyncIdx,
	}
}
