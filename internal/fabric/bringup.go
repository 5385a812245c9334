// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fabric implements provider bring-up and memory-region
// publication (spec.md §4.1): capability-based provider selection, the
// scalable/basic memory-region modes, address-vector population from the
// runtime KVS, and the atomic-validity check.
package fabric

import (
	"fmt"
	"path"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/provider"
)

// Select iterates the provider's offered fabric/domain combinations and
// returns the first one matching the configured provider/fabric/domain
// name filters, using glob-style comparison (spec.md §4.1 "Capability/
// selection algorithm"). An empty filter matches everything. If no filters
// are set, the first offered combination is returned.
func Select(h provider.Handle, cfg config.Config, hints provider.Info) (provider.Info, error) {
	offered, err := h.QueryFabrics(hints)
	if err != nil {
		return provider.Info{}, fmt.Errorf("fabric: querying provider fabrics: %w", err)
	}
	if len(offered) == 0 {
		return provider.Info{}, fmt.Errorf("fabric: provider offered no fabric/domain matching the requested capabilities")
	}

	for _, info := range offered {
		if globMatch(cfg.Provider, info.ProviderName) &&
			globMatch(cfg.Fabric, info.FabricName) &&
			globMatch(cfg.Domain, info.DomainName) {
			return info, nil
		}
	}
	return provider.Info{}, fmt.Errorf(
		"fabric: no offered fabric/domain matched filters provider=%q fabric=%q domain=%q",
		cfg.Provider, cfg.Fabric, cfg.Domain,
	)
}

// globMatch reports whether name matches pattern; an empty pattern matches
// anything. path.Match already implements the shell-glob semantics spec.md
// asks for, so there is no need for a dedicated matching library here.
func globMatch(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// ApplyBounceFeasibility force-disables bounce buffering when the selected
// provider requires a per-operation user context pointer, since bounce
// buffering's recovery mechanism is to read that pointer back out of the
// completion event (spec.md §4.1 "Bounce-buffer feasibility").
func ApplyBounceFeasibility(cfg config.Config, info provider.Info) config.Config {
	if info.RequiresOpContext {
		cfg.BounceSize = 0
		cfg.MaxBounceBuffers = 0
	}
	return cfg
}
