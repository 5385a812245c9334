// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package team

// TranslatePE computes dest's local rank for srcPe, a local rank within
// src, or -1 if srcPe does not also lie in dest (spec.md §4.4 "PE
// translation"). srcPe must be in [0, src.Size); the original source this
// spec is drawn from checked `srcPe > src.Size`, which off-by-one admits
// srcPe == src.Size — spec.md §9 flags this as a bug, and this
// implementation requires the documented `src_pe ∈ [0, size)` instead.
func TranslatePE(src *Team, srcPe int, dest *Team) int {
	if srcPe < 0 || srcPe >= src.Size {
		return -1
	}
	world := src.WorldRank(srcPe)

	local, ok := member(world, dest.Start, dest.Stride, dest.Size)
	if !ok {
		return -1
	}
	return local
}
