// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fabric

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/rmacore/kvs/memkvs"
	"github.com/luxfi/rmacore/provider"
	"github.com/luxfi/rmacore/provider/providertest"
)

func TestPopulateAVAllPEs(t *testing.T) {
	const n = 3
	hub := memkvs.NewHub(n, n)
	h := providertest.New(providertest.Options{})
	dom, err := h.OpenDomain(nil, provider.Info{}, provider.Multiple)
	require.NoError(t, err)

	g, ctx := errgroup.WithContext(context.Background())
	for pe := 0; pe < n; pe++ {
		pe := pe
		g.Go(func() error {
			ep, err := h.OpenEndpoint(dom, provider.Info{})
			if err != nil {
				return err
			}
			_, err = PopulateAV(ctx, h, dom, hub.Client(pe), ep)
			return err
		})
	}
	require.NoError(t, g.Wait())
}
