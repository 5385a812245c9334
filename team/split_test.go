// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package team

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/rmacore/team/teamtest"
)

func TestSplitStridedSelectsEvenPEsExample(t *testing.T) {
	// spec.md §8 scenario 2: N=4, team_split_strided(world, 0, 2, 2, ...)
	// selects PEs 0 and 2. They receive psync_idx == 1, my_pe == 0|1;
	// PEs 1 and 3 receive null. All PEs' masks converge to …1111_1100.
	const worldSize = 4
	hub := teamtest.NewHub()

	type result struct {
		child *Team
		mask  uint64
	}
	results := make([]result, worldSize)

	g, ctx := errgroup.WithContext(context.Background())
	for me := 0; me < worldSize; me++ {
		me := me
		g.Go(func() error {
			pool, err := NewMaskPool(16)
			if err != nil {
				return err
			}
			world := World(me, worldSize)
			child, err := SplitStrided(ctx, world, 0, 2, 2, worldSize, me, pool, hub.Client(), nil, 0)
			if err != nil {
				return err
			}
			results[me] = result{child: child, mask: pool.Snapshot()}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.False(t, results[0].child.IsNull())
	require.Equal(t, 1, results[0].child.PsyncIdx)
	require.Equal(t, 0, results[0].child.MyPe)

	require.False(t, results[2].child.IsNull())
	require.Equal(t, 1, results[2].child.PsyncIdx)
	require.Equal(t, 1, results[2].child.MyPe)

	require.True(t, results[1].child.IsNull())
	require.True(t, results[3].child.IsNull())

	for me := 0; me < worldSize; me++ {
		require.EqualValues(t, 0xFFFC, results[me].mask, "PE %d mask did not converge", me)
	}
}

func TestSplitStridedRejectsOversizedChild(t *testing.T) {
	const worldSize = 4
	hub := teamtest.NewHub()
	pool, err := NewMaskPool(16)
	require.NoError(t, err)
	world := World(0, worldSize)

	_, err = SplitStrided(context.Background(), world, 0, 1, worldSize+1, worldSize, 0, pool, hub.Client(), nil, 0)
	require.Error(t, err)
}

func TestSplitStridedExhaustsTeamsSlots(t *testing.T) {
	const worldSize = 2
	hub := teamtest.NewHub()

	g, ctx := errgroup.WithContext(context.Background())
	pools := make([]*MaskPool, worldSize)
	for me := 0; me < worldSize; me++ {
		p, err := NewMaskPool(1) // only bit 0, permanently reserved for world
		require.NoError(t, err)
		pools[me] = p
	}

	for me := 0; me < worldSize; me++ {
		me := me
		g.Go(func() error {
			world := World(me, worldSize)
			_, err := SplitStrided(ctx, world, 0, 1, worldSize, worldSize, me, pools[me], hub.Client(), nil, 0)
			return err
		})
	}
	require.Error(t, g.Wait())
}
