// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the tunables of the RMA transport core: STX pool
// sizing, provider/fabric/domain selection filters, bounce-buffer shape,
// poll limits, atomic-capability policy, and team/pSync bounds.
package config

import (
	"time"
)

// Allocator selects the STX sharing policy when a private slot cannot be
// granted or was not requested.
type Allocator int

const (
	// RoundRobin walks shared slots from a persistent cursor.
	RoundRobin Allocator = iota
	// Random rejection-samples among eligible shared slots.
	Random
)

func (a Allocator) String() string {
	switch a {
	case RoundRobin:
		return "round-robin"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// AtomicPolicy is the per-category severity applied when the provider is
// missing a (datatype x operation) combination the core depends on.
type AtomicPolicy int

const (
	// NoSupport hard-fails bring-up on any missing combination.
	NoSupport AtomicPolicy = iota
	// Warnings logs the gap and continues.
	Warnings
	// SoftSupport silently continues; used for reductions emulated above the core.
	SoftSupport
)

// Config holds every tunable named in spec.md §6.
type Config struct {
	// TeamsMax is the maximum number of simultaneous teams, hard-capped at
	// the bit-width of the pSync reservation word.
	TeamsMax int

	// StxMax is the size of the STX pool. Forced to 1 in Single/Funneled
	// threading modes. In Auto mode it is derived from the provider's
	// reported tx-context count.
	StxMax int
	// StxAuto, when true, ignores StxMax and derives the pool size from
	// the provider's reported transmit-context count divided across PEs
	// co-located on the node.
	StxAuto bool
	// StxNodeMax caps the per-node share used by StxAuto, 0 = unbounded.
	StxNodeMax int
	// StxThreshold is the soft cap on ref_cnt before find_shared skips a
	// slot; -1 means unbounded.
	StxThreshold int
	// StxAllocator is the fallback allocation policy for shared slots.
	StxAllocator Allocator
	// StxDisablePrivate forces every context to share, regardless of
	// what the caller requested.
	StxDisablePrivate bool

	// Provider, Fabric, Domain are glob-style name filters used during
	// provider selection (spec.md §4.1). Empty means "first available".
	Provider string
	Fabric   string
	Domain   string

	// BounceSize is the payload size of one bounce buffer; <= 0 disables
	// bounce buffering entirely.
	BounceSize int
	// MaxBounceBuffers bounds the per-context freelist; <= 0 disables
	// bounce buffering entirely.
	MaxBounceBuffers int

	// TxPollLimit / RxPollLimit bound CPU polling before a blocking wait;
	// negative forces an immediately-blocking wait.
	TxPollLimit int
	RxPollLimit int

	// AtomicChecks selects the severity of a missing atomic capability
	// per category (spec.md §4.1 "Atomic-validity check").
	AtomicChecks map[AtomicCategory]AtomicPolicy

	// Debug enables verbose destroy-time dumps of pending/completed
	// counters (spec.md §6 "DEBUG").
	Debug bool

	// BarrierTimeout bounds how long a KVS barrier or provider counter
	// wait may block before bring-up treats it as a fatal-init failure.
	BarrierTimeout time.Duration
}

// AtomicCategory enumerates the (datatype x operation) groups the core
// depends on, per spec.md §4.1 "Atomic-validity check".
type AtomicCategory int

const (
	StandardAMO AtomicCategory = iota
	ExtendedAMO
	BitwiseReduce
	CompareReduce
	ArithmeticReduce
	Internal // e.g. MSWAP on int, used internally by the core
)

func (c AtomicCategory) String() string {
	switch c {
	case StandardAMO:
		return "standard-amo"
	case ExtendedAMO:
		return "extended-amo"
	case BitwiseReduce:
		return "bitwise-reduce"
	case CompareReduce:
		return "compare-reduce"
	case ArithmeticReduce:
		return "arithmetic-reduce"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// allCategories is used to fill in defaults and to iterate deterministically
// during the bring-up atomic-validity check.
var allCategories = []AtomicCategory{
	StandardAMO, ExtendedAMO, BitwiseReduce, CompareReduce, ArithmeticReduce, Internal,
}
