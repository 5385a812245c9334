// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fabric

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/provider"
	"github.com/luxfi/rmacore/provider/providertest"
)

func TestSelectFirstWhenNoFilters(t *testing.T) {
	h := providertest.New(providertest.Options{Offered: []provider.Info{
		{ProviderName: "verbs", FabricName: "verbs-fab", DomainName: "mlx5_0"},
		{ProviderName: "tcp", FabricName: "tcp-fab", DomainName: "eth0"},
	}})
	info, err := Select(h, config.Config{}, provider.Info{})
	require.NoError(t, err)
	require.Equal(t, "verbs", info.ProviderName)
}

func TestSelectByGlobFilter(t *testing.T) {
	h := providertest.New(providertest.Options{Offered: []provider.Info{
		{ProviderName: "verbs", FabricName: "verbs-fab", DomainName: "mlx5_0"},
		{ProviderName: "tcp", FabricName: "tcp-fab", DomainName: "eth0"},
	}})
	info, err := Select(h, config.Config{Provider: "tcp*"}, provider.Info{})
	require.NoError(t, err)
	require.Equal(t, "tcp", info.ProviderName)
}

func TestSelectNoMatchErrors(t *testing.T) {
	h := providertest.New(providertest.Options{Offered: []provider.Info{
		{ProviderName: "verbs"},
	}})
	_, err := Select(h, config.Config{Provider: "nonexistent*"}, provider.Info{})
	require.Error(t, err)
}

func TestApplyBounceFeasibilityForcesDisable(t *testing.T) {
	cfg := config.Config{BounceSize: 64, MaxBounceBuffers: 4}
	out := ApplyBounceFeasibility(cfg, provider.Info{RequiresOpContext: true})
	require.False(t, out.BounceBufferingEnabled())

	out = ApplyBounceFeasibility(cfg, provider.Info{RequiresOpContext: false})
	require.True(t, out.BounceBufferingEnabled())
}
