// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package team

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorldTeamReservesBitZero(t *testing.T) {
	// spec.md §8 scenario 1: N=4, MAX_TEAMS=16, world-only run.
	pool, err := NewMaskPool(16)
	require.NoError(t, err)
	require.EqualValues(t, 0xFFFE, pool.Snapshot())

	w := World(2, 4)
	require.Equal(t, 2, w.MyPe)
	require.Equal(t, WorldPsyncIdx, w.PsyncIdx)
}

func TestValidateStridedInvariants(t *testing.T) {
	require.NoError(t, validateStrided(0, 1, 4, 4))
	require.Error(t, validateStrided(-1, 1, 4, 4))
	require.Error(t, validateStrided(0, 0, 4, 4))
	require.Error(t, validateStrided(0, 1, 0, 4))
	require.Error(t, validateStrided(3, 1, 2, 4)) // last rank 4 is out of range
}

func TestMemberComputesLocalRank(t *testing.T) {
	local, ok := member(2, 0, 2, 2)
	require.True(t, ok)
	require.Equal(t, 1, local)

	_, ok = member(1, 0, 2, 2)
	require.False(t, ok)

	_, ok = member(6, 0, 2, 2)
	require.False(t, ok)
}

func TestWorldRank(t *testing.T) {
	tm := &Team{Start: 3, Stride: 2, Size: 3}
	require.Equal(t, 3, tm.WorldRank(0))
	require.Equal(t, 5, tm.WorldRank(1))
	require.Equal(t, 7, tm.WorldRank(2))
}

func TestNullTeam(t *testing.T) {
	require.True(t, Null.IsNull())
	require.True(t, (*Team)(nil).IsNull())
	require.False(t, World(0, 4).IsNull())
}
