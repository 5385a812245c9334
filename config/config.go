// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"time"
)

// maxTeamsHardCap is the bit-width of the pSync reservation word the core
// ships with (spec.md §6 "TEAMS_MAX ... hard-capped at the bit-width of the
// reservation word").
const maxTeamsHardCap = 64

// Default returns the configuration the core falls back to when nothing is
// set: single-slot STX pool, round-robin sharing, bounce buffering off,
// blocking waits, and hard-fail on a missing AMO or internal atomic
// capability (the three reduction categories are soft-supported).
func Default() Config {
	checks := make(map[AtomicCategory]AtomicPolicy, len(allCategories))
	for _, c := range allCategories {
		checks[c] = NoSupport
	}
	// Reductions implemented in software above the core are allowed to be
	// silently unsupported by the provider.
	checks[BitwiseReduce] = SoftSupport
	checks[CompareReduce] = SoftSupport
	checks[ArithmeticReduce] = SoftSupport

	return Config{
		TeamsMax:          32,
		StxMax:            1,
		StxThreshold:      -1,
		StxAllocator:      RoundRobin,
		BounceSize:        0,
		MaxBounceBuffers:  0,
		TxPollLimit:       -1,
		RxPollLimit:       -1,
		AtomicChecks:      checks,
		BarrierTimeout:    30 * time.Second,
	}
}

// Valid reports the first violated invariant, if any, matching the style of
// descriptive per-field errors used throughout the ambient config layer.
func (c Config) Valid() error {
	switch {
	case c.TeamsMax <= 0:
		return keyErr("TEAMS_MAX", fmt.Sprintf("must be > 0, got %d", c.TeamsMax))
	case c.TeamsMax > maxTeamsHardCap:
		return keyErr("TEAMS_MAX", fmt.Sprintf("%d exceeds the %d-bit reservation word", c.TeamsMax, maxTeamsHardCap))
	case c.StxMax <= 0:
		return keyErr("OFI_STX_MAX", fmt.Sprintf("must be > 0, got %d", c.StxMax))
	case c.StxThreshold < -1:
		return keyErr("OFI_STX_THRESHOLD", fmt.Sprintf("must be -1 or >= 0, got %d", c.StxThreshold))
	case c.BarrierTimeout <= 0:
		return keyErr("barrier timeout", fmt.Sprintf("must be > 0, got %s", c.BarrierTimeout))
	}
	if c.AtomicChecks == nil {
		return keyErr("OFI_ATOMIC_CHECKS", "no policy configured for any category")
	}
	for _, cat := range allCategories {
		if _, ok := c.AtomicChecks[cat]; !ok {
			return keyErr("OFI_ATOMIC_CHECKS", fmt.Sprintf("missing policy for category %s", cat))
		}
	}
	return nil
}

// BounceBufferingEnabled reports whether both shape parameters allow bounce
// buffering at all, independent of any per-provider force-disable.
func (c Config) BounceBufferingEnabled() bool {
	return c.BounceSize > 0 && c.MaxBounceBuffers > 0
}
