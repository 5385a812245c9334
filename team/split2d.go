// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package team

import (
	"context"
	"fmt"
)

// Split2D builds one x-team (a contiguous run of up to xrange PEs) and one
// y-team (PEs sharing a column, stride xrange) for every PE in parent, each
// via SplitStrided, so each terminates with its own parent barrier
// (spec.md §4.4 "Split (2-D)"). A PE participates in exactly one x-team and
// one y-team.
func Split2D(ctx context.Context, parent *Team, xrange, worldSize, me int, pool *MaskPool, tr Transport) (xTeam, yTeam *Team, err error) {
	if xrange <= 0 {
		return nil, nil, fmt.Errorf("team: split2d: xrange must be > 0, got %d", xrange)
	}

	col := me % xrange
	xStart := (me / xrange) * xrange
	xSize := xrange
	if xStart+xSize > worldSize {
		xSize = worldSize - xStart
	}

	xTeam, err = SplitStrided(ctx, parent, xStart, 1, xSize, worldSize, me, pool, tr, nil, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("team: split2d: x-team: %w", err)
	}

	ySize := ceilDiv(worldSize-col, xrange)
	yTeam, err = SplitStrided(ctx, parent, col, xrange, ySize, worldSize, me, pool, tr, nil, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("team: split2d: y-team: %w", err)
	}

	return xTeam, yTeam, nil
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
