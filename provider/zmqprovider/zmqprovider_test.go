// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zmqprovider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/provider"
)

func TestQueryFabricsHonorsHints(t *testing.T) {
	h := New(Options{})
	infos, err := h.QueryFabrics(provider.Info{RMA: true, Atomics: true})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "zmq", infos[0].ProviderName)
}

func TestNotifyDeliversCompletionAcrossEndpoints(t *testing.T) {
	h := New(Options{RecvTimeout: 20 * time.Millisecond})
	d, err := h.OpenDomain(nil, provider.Info{}, provider.Funneled)
	require.NoError(t, err)

	epA, err := h.OpenEndpoint(d, provider.Info{})
	require.NoError(t, err)
	defer epA.Close()
	epB, err := h.OpenEndpoint(d, provider.Info{})
	require.NoError(t, err)
	defer epB.Close()

	nameA, err := epA.Name()
	require.NoError(t, err)
	nameB, err := epB.Name()
	require.NoError(t, err)

	av, err := h.OpenAV(d, 2)
	require.NoError(t, err)
	defer av.Close()
	n, err := av.Insert([][]byte{nameA, nameB})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, epA.BindAV(av))
	require.NoError(t, epB.BindAV(av))

	counterB, err := h.OpenCounter(d)
	require.NoError(t, err)
	defer counterB.Close()
	require.NoError(t, epB.BindCounter(counterB, provider.CounterWrite))

	notifier, ok := epA.(*endpoint)
	require.True(t, ok)
	require.NoError(t, notifier.Notify(1, 0xdead))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, counterB.Wait(ctx, 1, 50))
}

func TestAtomicValidHonorsMissingCategories(t *testing.T) {
	h := New(Options{MissingCategories: map[config.AtomicCategory]bool{
		config.CompareReduce: true,
	}})
	ok, err := h.AtomicValid(nil, 0, 0, provider.PlainAtomic, config.CompareReduce)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = h.AtomicValid(nil, 0, 0, provider.PlainAtomic, config.ArithmeticReduce)
	require.NoError(t, err)
	require.True(t, ok)
}
