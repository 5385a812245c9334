// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ctxreg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	rmaconfig "github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/internal/stx"
	"github.com/luxfi/rmacore/provider"
	"github.com/luxfi/rmacore/provider/providertest"
)

// testOpener wraps a providertest.Handle's domain-scoped opens behind the
// Opener interface the registry consumes.
type testOpener struct {
	h   *providertest.Handle
	dom provider.Domain
}

func (o *testOpener) OpenEndpoint() (provider.Endpoint, error) {
	return o.h.OpenEndpoint(o.dom, provider.Info{})
}
func (o *testOpener) OpenCounter() (provider.Counter, error) { return o.h.OpenCounter(o.dom) }
func (o *testOpener) OpenCQ() (provider.CQ, error)           { return o.h.OpenCQ(o.dom) }

func newTestRegistry(t *testing.T, cfg rmaconfig.Config, stxSize int, threading provider.ThreadingMode) (*Registry, *stx.Pool) {
	t.Helper()
	h := providertest.New(providertest.Options{})
	dom, err := h.OpenDomain(nil, provider.Info{}, threading)
	require.NoError(t, err)

	pool, err := stx.New(stxSize, cfg, func() (provider.STXContext, error) { return h.OpenSTX(dom) })
	require.NoError(t, err)

	reg := New(cfg, pool, &testOpener{h: h, dom: dom}, func() stx.ThreadId { return stx.Synthetic(1) }, threading)
	return reg, pool
}

func baseConfig() rmaconfig.Config {
	cfg := rmaconfig.Default()
	cfg.StxMax = 2
	cfg.StxThreshold = -1
	return cfg
}

func TestCreateDefaultContextActivatesAndBindsOneStx(t *testing.T) {
	reg, pool := newTestRegistry(t, baseConfig(), 2, provider.Multiple)

	def, err := reg.CreateDefault(Options{})
	require.NoError(t, err)
	require.Equal(t, DefaultID, def.ID)
	require.Equal(t, Active, def.State())
	require.EqualValues(t, 1, pool.RefCountSum())

	_, err = reg.CreateDefault(Options{})
	require.Error(t, err)
}

func TestCreateGrowsSlotsAndReusesFreedOnes(t *testing.T) {
	reg, pool := newTestRegistry(t, baseConfig(), 2, provider.Multiple)
	_, err := reg.CreateDefault(Options{})
	require.NoError(t, err)

	c1, err := reg.Create(Options{})
	require.NoError(t, err)
	require.Equal(t, 0, c1.ID)

	c2, err := reg.Create(Options{})
	require.NoError(t, err)
	require.Equal(t, 1, c2.ID)

	require.NoError(t, reg.Destroy(c1))
	c3, err := reg.Create(Options{})
	require.NoError(t, err)
	require.Equal(t, 0, c3.ID) // reuses the freed slot

	require.EqualValues(t, 3, pool.RefCountSum()) // default + c2 + c3
}

func TestCreateWithBounceBufferEnabled(t *testing.T) {
	cfg := baseConfig()
	cfg.BounceSize = 64
	cfg.MaxBounceBuffers = 2
	reg, _ := newTestRegistry(t, cfg, 2, provider.Multiple)
	_, err := reg.CreateDefault(Options{})
	require.NoError(t, err)

	c, err := reg.Create(Options{BounceBuffer: true})
	require.NoError(t, err)
	require.True(t, c.HasBounceBuffers())

	b, err := c.AcquireBounce()
	require.NoError(t, err)
	require.Len(t, b.Payload, 64)
}

func TestCreateWithBounceBufferDisabledByConfig(t *testing.T) {
	reg, _ := newTestRegistry(t, baseConfig(), 2, provider.Multiple) // BounceSize/MaxBounceBuffers are 0
	_, err := reg.CreateDefault(Options{})
	require.NoError(t, err)

	c, err := reg.Create(Options{BounceBuffer: true})
	require.NoError(t, err)
	require.False(t, c.HasBounceBuffers())

	_, err = c.AcquireBounce()
	require.Error(t, err)
}

func TestDestroyReleasesStxAndClosesSlot(t *testing.T) {
	reg, pool := newTestRegistry(t, baseConfig(), 1, provider.Multiple)
	def, err := reg.CreateDefault(Options{})
	require.NoError(t, err)

	c, err := reg.Create(Options{})
	require.NoError(t, err)
	require.EqualValues(t, 2, pool.RefCountSum())

	require.NoError(t, reg.Destroy(c))
	require.Equal(t, Closed, c.State())
	require.EqualValues(t, 1, pool.RefCountSum())

	require.NoError(t, reg.Destroy(def))
	require.EqualValues(t, 0, pool.RefCountSum())
}

func TestDestroyTwiceErrors(t *testing.T) {
	reg, _ := newTestRegistry(t, baseConfig(), 1, provider.Multiple)
	c, err := reg.CreateDefault(Options{})
	require.NoError(t, err)
	require.NoError(t, reg.Destroy(c))
	require.Error(t, reg.Destroy(c))
}

func TestQuietWithoutBounceBuffersIsNoOpTwice(t *testing.T) {
	reg, _ := newTestRegistry(t, baseConfig(), 1, provider.Multiple)
	c, err := reg.CreateDefault(Options{})
	require.NoError(t, err)

	require.NoError(t, c.Quiet(context.Background(), -1))
	require.NoError(t, c.Quiet(context.Background(), -1))
}

func TestQuietDrainsBounceCompletions(t *testing.T) {
	cfg := baseConfig()
	cfg.BounceSize = 16
	cfg.MaxBounceBuffers = 4
	reg, _ := newTestRegistry(t, cfg, 1, provider.Multiple)
	def, err := reg.CreateDefault(Options{BounceBuffer: true})
	require.NoError(t, err)

	b, err := def.AcquireBounce()
	require.NoError(t, err)

	fcq := def.CQ.(*providertest.CQ)
	fcq.Push(provider.CompletionEvent{OpContext: b.OpCtx})

	require.NoError(t, def.Quiet(context.Background(), -1))
}
