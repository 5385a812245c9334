// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Valid())
}

func TestValid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"teams max zero", func(c *Config) { c.TeamsMax = 0 }, true},
		{"teams max over hard cap", func(c *Config) { c.TeamsMax = maxTeamsHardCap + 1 }, true},
		{"teams max at hard cap", func(c *Config) { c.TeamsMax = maxTeamsHardCap }, false},
		{"stx max zero", func(c *Config) { c.StxMax = 0 }, true},
		{"stx threshold below -1", func(c *Config) { c.StxThreshold = -2 }, true},
		{"stx threshold unbounded", func(c *Config) { c.StxThreshold = -1 }, false},
		{"barrier timeout zero", func(c *Config) { c.BarrierTimeout = 0 }, true},
		{"missing atomic policy", func(c *Config) { c.AtomicChecks = nil }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Valid()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBounceBufferingEnabled(t *testing.T) {
	c := Default()
	require.False(t, c.BounceBufferingEnabled())

	c.BounceSize = 4096
	c.MaxBounceBuffers = 8
	require.True(t, c.BounceBufferingEnabled())

	c.MaxBounceBuffers = 0
	require.False(t, c.BounceBufferingEnabled())
}

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, Default().StxMax, c.StxMax)
}

func TestFromEnvOverride(t *testing.T) {
	t.Setenv("OFI_STX_MAX", "4")
	t.Setenv("OFI_STX_ALLOCATOR", "random")
	t.Setenv("OFI_STX_THRESHOLD", "not-a-number")

	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("OFI_STX_THRESHOLD", "2")
	c, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, 4, c.StxMax)
	require.Equal(t, Random, c.StxAllocator)
	require.Equal(t, 2, c.StxThreshold)
}

func TestAllocatorString(t *testing.T) {
	require.Equal(t, "round-robin", RoundRobin.String())
	require.Equal(t, "random", Random.String())
	require.Equal(t, "unknown", Allocator(99).String())
}
