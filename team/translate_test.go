// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package team

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranslatePEWithinOverlappingTeams(t *testing.T) {
	// world ranks 0,2,4,6 (src) and 0,3,6 (dest) overlap at world rank 6.
	src := &Team{Start: 0, Stride: 2, Size: 4}
	dest := &Team{Start: 0, Stride: 3, Size: 3}

	require.Equal(t, 2, TranslatePE(src, 3, dest)) // src local 3 -> world 6 -> dest local 2
	require.Equal(t, -1, TranslatePE(src, 1, dest)) // world rank 2, not in dest
}

func TestTranslatePERejectsOutOfRangeSrcPe(t *testing.T) {
	src := &Team{Start: 0, Stride: 1, Size: 4}
	dest := World(0, 4)

	require.Equal(t, -1, TranslatePE(src, -1, dest))
	// spec.md §9: src_pe == size must be rejected, not silently admitted.
	require.Equal(t, -1, TranslatePE(src, src.Size, dest))
	require.NotEqual(t, -1, TranslatePE(src, src.Size-1, dest))
}
