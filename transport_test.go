// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rmacore

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/internal/ctxreg"
	"github.com/luxfi/rmacore/internal/fabric"
	"github.com/luxfi/rmacore/kvs/memkvs"
	"github.com/luxfi/rmacore/provider"
	"github.com/luxfi/rmacore/provider/providertest"
)

func segments(base uintptr) Segments {
	return Segments{
		Heap: fabric.Segment{Base: base, Length: 4096},
		Data: fabric.Segment{Base: base + 8192, Length: 1024},
	}
}

func TestStartupThenFiniAcrossTwoPEs(t *testing.T) {
	const worldSize = 2
	hub := memkvs.NewHub(worldSize, worldSize)

	g, ctx := errgroup.WithContext(context.Background())
	for pe := 0; pe < worldSize; pe++ {
		pe := pe
		g.Go(func() error {
			h := providertest.New(providertest.Options{})
			ts, err := New(config.Default(), nil, h, hub.Client(pe), pe, worldSize)
			if err != nil {
				return err
			}
			if err := ts.Startup(ctx, provider.Info{RMA: true, Atomics: true}, fabric.Scalable, segments(uintptr(pe*1<<20))); err != nil {
				return err
			}
			if ts.Default() == nil {
				t.Errorf("pe %d: default context missing after startup", pe)
			}
			if ts.World().Size != worldSize {
				t.Errorf("pe %d: world size %d, want %d", pe, ts.World().Size, worldSize)
			}
			return ts.Fini(ctx)
		})
	}
	require.NoError(t, g.Wait())
}

func TestStartupRejectsInvalidConfig(t *testing.T) {
	bad := config.Default()
	bad.TeamsMax = 0
	h := providertest.New(providertest.Options{})
	hub := memkvs.NewHub(1, 1)
	_, err := New(bad, nil, h, hub.Client(0), 0, 1)
	require.Error(t, err)
}

func TestNewRejectsOutOfRangePe(t *testing.T) {
	h := providertest.New(providertest.Options{})
	hub := memkvs.NewHub(2, 2)
	_, err := New(config.Default(), nil, h, hub.Client(0), 2, 2)
	require.Error(t, err)
}

func TestCreateAndDestroyExtraContextAfterStartup(t *testing.T) {
	h := providertest.New(providertest.Options{})
	hub := memkvs.NewHub(1, 1)
	ts, err := New(config.Default(), nil, h, hub.Client(0), 0, 1)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ts.Startup(ctx, provider.Info{RMA: true, Atomics: true}, fabric.Scalable, segments(0x10000)))

	require.NoError(t, ts.EnableMetrics(prometheus.NewRegistry()))

	c, err := ts.CreateContext(ctxreg.Options{})
	require.NoError(t, err)
	require.Equal(t, ctxreg.Active, c.State())

	require.NoError(t, ts.DestroyContext(c))
	require.NoError(t, ts.Fini(ctx))
}
