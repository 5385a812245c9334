// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stx

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIdentifyStableWithinGoroutine(t *testing.T) {
	a := DefaultIdentify()
	b := DefaultIdentify()
	require.Equal(t, a, b)
}

func TestDefaultIdentifyDiffersAcrossGoroutines(t *testing.T) {
	var wg sync.WaitGroup
	ids := make([]ThreadId, 2)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = DefaultIdentify()
		}(i)
	}
	wg.Wait()
	require.NotEqual(t, ids[0], ids[1])
}
