// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv builds a Config starting from Default() and overriding it with
// whichever OFI_* / RMA_* environment variables are set, matching the key
// names enumerated in spec.md §6. Unset variables keep the default; a set
// but unparsable variable is reported as a *Error naming the offending key.
func FromEnv() (Config, error) {
	c := Default()

	if v, ok := lookup("TEAMS_MAX"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, keyErr("TEAMS_MAX", "not an integer: "+v)
		}
		c.TeamsMax = n
	}
	if v, ok := lookup("OFI_STX_MAX"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, keyErr("OFI_STX_MAX", "not an integer: "+v)
		}
		c.StxMax = n
	}
	if v, ok := lookup("OFI_STX_AUTO"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, keyErr("OFI_STX_AUTO", "not a bool: "+v)
		}
		c.StxAuto = b
	}
	if v, ok := lookup("OFI_STX_NODE_MAX"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, keyErr("OFI_STX_NODE_MAX", "not an integer: "+v)
		}
		c.StxNodeMax = n
	}
	if v, ok := lookup("OFI_STX_THRESHOLD"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, keyErr("OFI_STX_THRESHOLD", "not an integer: "+v)
		}
		c.StxThreshold = n
	}
	if v, ok := lookup("OFI_STX_ALLOCATOR"); ok {
		switch strings.ToLower(v) {
		case "round-robin", "round_robin", "roundrobin":
			c.StxAllocator = RoundRobin
		case "random":
			c.StxAllocator = Random
		default:
			// An unrecognised allocator name falls back to round-robin
			// silently: FromEnv has no logger and reports nothing to its
			// caller for this case.
			c.StxAllocator = RoundRobin
		}
	}
	if v, ok := lookup("OFI_STX_DISABLE_PRIVATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, keyErr("OFI_STX_DISABLE_PRIVATE", "not a bool: "+v)
		}
		c.StxDisablePrivate = b
	}
	if v, ok := lookup("OFI_PROVIDER"); ok {
		c.Provider = v
	} else if v, ok := lookup("OFI_USE_PROVIDER"); ok {
		c.Provider = v
	}
	if v, ok := lookup("OFI_FABRIC"); ok {
		c.Fabric = v
	}
	if v, ok := lookup("OFI_DOMAIN"); ok {
		c.Domain = v
	}
	if v, ok := lookup("BOUNCE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, keyErr("BOUNCE_SIZE", "not an integer: "+v)
		}
		c.BounceSize = n
	}
	if v, ok := lookup("MAX_BOUNCE_BUFFERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, keyErr("MAX_BOUNCE_BUFFERS", "not an integer: "+v)
		}
		c.MaxBounceBuffers = n
	}
	if v, ok := lookup("OFI_TX_POLL_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, keyErr("OFI_TX_POLL_LIMIT", "not an integer: "+v)
		}
		c.TxPollLimit = n
	}
	if v, ok := lookup("OFI_RX_POLL_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, keyErr("OFI_RX_POLL_LIMIT", "not an integer: "+v)
		}
		c.RxPollLimit = n
	}
	if v, ok := lookup("OFI_ATOMIC_CHECKS_WARN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, keyErr("OFI_ATOMIC_CHECKS_WARN", "not a bool: "+v)
		}
		if b {
			for _, cat := range allCategories {
				if c.AtomicChecks[cat] == NoSupport {
					c.AtomicChecks[cat] = Warnings
				}
			}
		}
	}
	if v, ok := lookup("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, keyErr("DEBUG", "not a bool: "+v)
		}
		c.Debug = b
	}
	if v, ok := lookup("OFI_BARRIER_TIMEOUT_MS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, keyErr("OFI_BARRIER_TIMEOUT_MS", "not an integer: "+v)
		}
		c.BarrierTimeout = time.Duration(n) * time.Millisecond
	}

	return c, c.Valid()
}

// lookup checks the RMA_ prefixed name first, then the bare OFI_ name, so a
// deployment can namespace overrides without losing the names spec.md §6
// enumerates verbatim.
func lookup(name string) (string, bool) {
	if v, ok := os.LookupEnv("RMA_" + name); ok {
		return v, true
	}
	return os.LookupEnv(name)
}
