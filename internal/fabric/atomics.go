// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fabric

import (
	"fmt"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/log"
	"github.com/luxfi/rmacore/provider"
)

// check is one (datatype, operation) combination the core depends on,
// tagged with the category whose policy governs a missing result and the
// query kind (plain/fetch/compare) libfabric-equivalent providers expose
// as three distinct capability queries (spec.md §4.1 "Atomic-validity
// check").
type check struct {
	dtype, op int
	kind      provider.AtomicQueryKind
	category  config.AtomicCategory
}

// dependencyMatrix enumerates every (datatype x operation) combination the
// transport core itself issues: standard and extended AMOs used directly
// by put/get/AMO verbs, the bitwise/compare/arithmetic-reduce combinations
// collectives rely on when the provider can accelerate them, and the
// MSWAP-on-int combination the core uses internally (spec.md GLOSSARY,
// §4.1).
var dependencyMatrix = []check{
	{dtype: dtypeInt64, op: opAtomicWrite, kind: provider.PlainAtomic, category: config.StandardAMO},
	{dtype: dtypeInt64, op: opAtomicAdd, kind: provider.PlainAtomic, category: config.StandardAMO},
	{dtype: dtypeInt64, op: opAtomicFetchAdd, kind: provider.FetchAtomic, category: config.StandardAMO},
	{dtype: dtypeInt64, op: opAtomicCswap, kind: provider.CompareAtomic, category: config.StandardAMO},

	{dtype: dtypeUint64, op: opAtomicBand, kind: provider.PlainAtomic, category: config.ExtendedAMO},
	{dtype: dtypeUint64, op: opAtomicBor, kind: provider.PlainAtomic, category: config.ExtendedAMO},
	{dtype: dtypeUint64, op: opAtomicBxor, kind: provider.PlainAtomic, category: config.ExtendedAMO},

	{dtype: dtypeUint64, op: opAtomicBand, kind: provider.FetchAtomic, category: config.BitwiseReduce},
	{dtype: dtypeUint64, op: opAtomicBor, kind: provider.FetchAtomic, category: config.BitwiseReduce},

	{dtype: dtypeInt64, op: opAtomicCswap, kind: provider.CompareAtomic, category: config.CompareReduce},

	{dtype: dtypeInt64, op: opAtomicSum, kind: provider.FetchAtomic, category: config.ArithmeticReduce},
	{dtype: dtypeFloat64, op: opAtomicSum, kind: provider.FetchAtomic, category: config.ArithmeticReduce},

	{dtype: dtypeInt64, op: opAtomicMswap, kind: provider.CompareAtomic, category: config.Internal},
}

// Opaque datatype/operation identifiers. The transport core treats these as
// provider-defined enumerants it passes through unexamined; the specific
// numeric values only need to be consistent within one provider binding.
const (
	dtypeInt64 = iota
	dtypeUint64
	dtypeFloat64
)

const (
	opAtomicWrite = iota
	opAtomicAdd
	opAtomicFetchAdd
	opAtomicCswap
	opAtomicBand
	opAtomicBor
	opAtomicBxor
	opAtomicSum
	opAtomicMswap
)

// CheckAtomics queries the provider for every (datatype x operation)
// combination the core depends on and applies the configured per-category
// policy to any gap (spec.md §4.1 "Atomic-validity check"). It returns an
// error for a failed provider query or a NoSupport category gap; Warnings
// gaps are logged and SoftSupport gaps pass silently.
func CheckAtomics(h provider.Handle, ep provider.Endpoint, cfg config.Config, logger log.Logger) error {
	for _, c := range dependencyMatrix {
		ok, err := h.AtomicValid(ep, c.dtype, c.op, c.kind, c.category)
		if err != nil {
			return fmt.Errorf("fabric: querying atomic validity for category %s: %w", c.category, err)
		}
		if ok {
			continue
		}

		policy, configured := cfg.AtomicChecks[c.category]
		if !configured {
			policy = config.NoSupport
		}
		switch policy {
		case config.NoSupport:
			return fmt.Errorf("fabric: provider does not support a required %s atomic combination (dtype=%d op=%d)", c.category, c.dtype, c.op)
		case config.Warnings:
			logger.Warn("provider missing atomic combination", "category", c.category.String(), "dtype", c.dtype, "op", c.op)
		case config.SoftSupport:
			// Emulated above the core; nothing to do.
		}
	}
	return nil
}
