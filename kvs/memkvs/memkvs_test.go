// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memkvs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestPutBarrierGet(t *testing.T) {
	const n = 4
	hub := NewHub(n, n)

	g, ctx := errgroup.WithContext(context.Background())
	for pe := 0; pe < n; pe++ {
		pe := pe
		g.Go(func() error {
			c := hub.Client(pe)
			if err := c.Put(ctx, "fi_epname", []byte{byte(pe), byte(pe + 1)}); err != nil {
				return err
			}
			return c.Barrier(ctx)
		})
	}
	require.NoError(t, g.Wait())

	c0 := hub.Client(0)
	for pe := 0; pe < n; pe++ {
		out := make([]byte, 2)
		require.NoError(t, c0.Get(context.Background(), pe, "fi_epname", out))
		require.Equal(t, []byte{byte(pe), byte(pe + 1)}, out)
	}
}

func TestGetLengthMismatch(t *testing.T) {
	hub := NewHub(1, 1)
	c := hub.Client(0)
	require.NoError(t, c.Put(context.Background(), "fi_heap_key", []byte{1, 2, 3, 4}))

	out := make([]byte, 8)
	err := c.Get(context.Background(), 0, "fi_heap_key", out)
	require.Error(t, err)
}

func TestGetMissingKey(t *testing.T) {
	hub := NewHub(1, 1)
	c := hub.Client(0)
	out := make([]byte, 4)
	err := c.Get(context.Background(), 0, "nope", out)
	require.Error(t, err)
}

func TestBarrierReusableAcrossRounds(t *testing.T) {
	const n = 3
	hub := NewHub(n, n)

	for round := 0; round < 2; round++ {
		g, ctx := errgroup.WithContext(context.Background())
		for pe := 0; pe < n; pe++ {
			pe := pe
			g.Go(func() error {
				return hub.Client(pe).Barrier(ctx)
			})
		}
		require.NoError(t, g.Wait())
	}
}

func TestSizeAndLocalSize(t *testing.T) {
	hub := NewHub(8, 2)
	c := hub.Client(0)
	require.Equal(t, 8, c.Size())
	require.Equal(t, 2, c.LocalSize())
}
