// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package providertest

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/provider"
	"github.com/stretchr/testify/require"
)

func TestQueryFabricsDefault(t *testing.T) {
	h := New(Options{})
	infos, err := h.QueryFabrics(provider.Info{RMA: true, Atomics: true})
	require.NoError(t, err)
	require.Len(t, infos, 1)
}

func TestAVInsertAndAddress(t *testing.T) {
	h := New(Options{})
	fab, err := h.OpenFabric(provider.Info{})
	require.NoError(t, err)
	dom, err := h.OpenDomain(fab, provider.Info{}, provider.Multiple)
	require.NoError(t, err)

	a, err := h.OpenAV(dom, 4)
	require.NoError(t, err)
	n, err := a.Insert([][]byte{{1}, {2}, {3}, {4}})
	require.NoError(t, err)
	require.Equal(t, 4, n)

	_, err = a.Address(2)
	require.NoError(t, err)
	_, err = a.Address(99)
	require.Error(t, err)
}

func TestCounterWaitWithPolling(t *testing.T) {
	h := New(Options{})
	c, err := h.OpenCounter(nil)
	require.NoError(t, err)
	fc := c.(*Counter)

	go func() {
		time.Sleep(5 * time.Millisecond)
		fc.Advance(3)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx, 3, 100))
}

func TestCounterWaitTimesOut(t *testing.T) {
	h := New(Options{})
	c, err := h.OpenCounter(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, c.Wait(ctx, 1, -1))
}

func TestAtomicValidMissingCategory(t *testing.T) {
	h := New(Options{MissingCategories: map[config.AtomicCategory]bool{
		config.BitwiseReduce: true,
	}})
	ok, err := h.AtomicValid(nil, 0, 0, provider.PlainAtomic, config.BitwiseReduce)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = h.AtomicValid(nil, 0, 0, provider.PlainAtomic, config.StandardAMO)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCQPushRead(t *testing.T) {
	h := New(Options{})
	cq, err := h.OpenCQ(nil)
	require.NoError(t, err)
	fcq := cq.(*CQ)

	fcq.Push(provider.CompletionEvent{OpContext: 0xdead})
	ev, err := cq.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, uintptr(0xdead), ev.OpContext)
}

func TestRegisterMRAssignsKey(t *testing.T) {
	h := New(Options{})
	mr1, err := h.RegisterMR(nil, 0x1000, 4096, 0)
	require.NoError(t, err)
	mr2, err := h.RegisterMR(nil, 0x2000, 4096, 0)
	require.NoError(t, err)
	require.NotEqual(t, mr1.Key(), mr2.Key())

	mrFixed, err := h.RegisterMR(nil, 0x3000, 4096, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), mrFixed.Key())
}
