// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fabric

import (
	"context"
	"fmt"

	"github.com/luxfi/rmacore/kvs"
	"github.com/luxfi/rmacore/provider"
)

const kvsEndpointName = "fi_epname"

// PopulateAV publishes this PE's endpoint name under fi_epname, barriers,
// fetches every PE's name, and inserts all of them into a freshly opened
// address vector in rank order (spec.md §4.1 "Address-vector population").
// Every PE's endpoint name must be the same length; this holds whenever
// every PE opened the endpoint against the same provider/domain.
func PopulateAV(ctx context.Context, h provider.Handle, dom provider.Domain, store kvs.Store, ep provider.Endpoint) (provider.AddressVector, error) {
	name, err := ep.Name()
	if err != nil {
		return nil, fmt.Errorf("fabric: reading local endpoint name: %w", err)
	}
	if err := store.Put(ctx, kvsEndpointName, name); err != nil {
		return nil, fmt.Errorf("fabric: publishing %s: %w", kvsEndpointName, err)
	}
	if err := store.Barrier(ctx); err != nil {
		return nil, fmt.Errorf("fabric: KVS barrier after publishing endpoint names: %w", err)
	}

	n := store.Size()
	names := make([][]byte, n)
	for p := 0; p < n; p++ {
		buf := make([]byte, len(name))
		if err := store.Get(ctx, p, kvsEndpointName, buf); err != nil {
			return nil, fmt.Errorf("fabric: fetching endpoint name for PE %d: %w", p, err)
		}
		names[p] = buf
	}

	av, err := h.OpenAV(dom, n)
	if err != nil {
		return nil, fmt.Errorf("fabric: opening address vector: %w", err)
	}
	inserted, err := av.Insert(names)
	if err != nil {
		_ = av.Close()
		return nil, fmt.Errorf("fabric: inserting addresses: %w", err)
	}
	if inserted != n {
		_ = av.Close()
		return nil, fmt.Errorf("fabric: address vector insertion short count: inserted %d of %d", inserted, n)
	}
	if err := ep.BindAV(av); err != nil {
		_ = av.Close()
		return nil, fmt.Errorf("fabric: binding address vector to endpoint: %w", err)
	}
	return av, nil
}
