// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package team

import (
	"context"
	"fmt"
)

// Transport performs the pSync-scoped bitwise-AND reduction a team split
// needs (spec.md §4.4 "Split (strided)" steps 2 and 5). Reduce blocks
// every PE listed in group until all have contributed, so it also serves
// as the parent barrier of step 5 when called over the full parent group.
// The CORE owns which slot is used and when the reduction happens; the
// underlying one-sided exchange is provided by the transport layer the
// same way put/get/AMO verbs are (spec.md §1 Non-goals).
type Transport interface {
	// Reduce bitwise-ANDs localValue across every PE listed in group,
	// using pSyncSlot as scratch, and returns the converged result to
	// every member of group once all have contributed.
	Reduce(ctx context.Context, group []int, pSyncSlot int, localValue uint64) (uint64, error)
}

// SplitStrided creates a child team of parent's active set, selecting
// (start, stride, size) relative to world numbering (spec.md §4.4 "Split
// (strided)"). me is this PE's world rank. Every PE in parent — member or
// not — must call SplitStrided for the protocol to complete, since step 5's
// parent-wide reduction is how non-participants observe the mask update.
func SplitStrided(ctx context.Context, parent *Team, start, stride, size int, worldSize, me int, pool *MaskPool, tr Transport, childConfig any, childConfigMask uint64) (*Team, error) {
	if err := validateStrided(start, stride, size, worldSize); err != nil {
		return nil, err
	}

	localRank, isMember := member(me, start, stride, size)

	var psyncIdx int = -1
	if isMember {
		childGroup := make([]int, 0, size)
		for i := 0; i < size; i++ {
			childGroup = append(childGroup, start+i*stride)
		}

		// Step 2: AND-reduce the reservation mask across the child's
		// active set, using the parent's group-0 slot as scratch. AND
		// across identical masks is a no-op; the reduction exists to
		// synchronize and tolerate transient divergence from concurrent
		// parent-level splits.
		reduced, err := tr.Reduce(ctx, childGroup, pool.groupSlot(parent.PsyncIdx, 0), pool.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("team: split mask reduction: %w", err)
		}
		pool.Adopt(reduced)

		// Step 3: pick the least-significant free bit.
		psyncIdx = pool.Reserve()
		if psyncIdx < 0 {
			return nil, fmt.Errorf("team: split: teams exhausted")
		}
	}
	// Step 4: non-participants no-op through here; their mask is
	// unchanged until step 5.

	// Step 5: every PE in parent (participant or not) AND-reduces its
	// current local mask over the full parent group on parent's group-1
	// slot. A participant's post-reservation mask is a strict subset of
	// its pre-split mask, so ANDing it with a non-participant's
	// unmodified copy converges to the same value everywhere — this is
	// the mechanism by which non-participants observe the reservation
	// update before any participant can start a second split.
	pgroup := parentGroup(parent, worldSize)
	converged, err := tr.Reduce(ctx, pgroup, pool.groupSlot(parent.PsyncIdx, 1), pool.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("team: split parent barrier: %w", err)
	}
	pool.Adopt(converged)

	if !isMember {
		return Null, nil
	}
	return &Team{
		Start:      start,
		Stride:     stride,
		Size:       size,
		MyPe:       localRank,
		PsyncIdx:   psyncIdx,
		Config:     childConfig,
		ConfigMask: childConfigMask,
	}, nil
}

// parentGroup enumerates every world rank participating in the parent
// team, for the final reduction that must include non-participants of the
// child split too.
func parentGroup(parent *Team, worldSize int) []int {
	out := make([]int, 0, parent.Size)
	for i := 0; i < parent.Size; i++ {
		r := parent.WorldRank(i)
		if r < worldSize {
			out = append(out, r)
		}
	}
	return out
}
