// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package provider defines the opaque provider handle layer the transport
// core builds on (spec.md §6 "Provider handle layer (consumed)"): fabric,
// domain, address-vector, endpoint, counter, completion-queue, memory-
// region, and shared-transmit-context handles. The CORE owns their
// lifecycle but never their semantics — put/get/AMO verbs themselves are
// out of scope (spec.md §1).
package provider

import (
	"context"

	"github.com/luxfi/rmacore/config"
)

// Info describes one fabric/domain combination a provider offers, and
// doubles as the capability hint passed to QueryFabrics. Name fields use
// glob-style matching when used as a filter (spec.md §4.1 "Capability/
// selection algorithm").
type Info struct {
	ProviderName string
	FabricName   string
	DomainName   string

	// Capabilities this fabric/domain combination offers.
	RMA              bool
	Atomics          bool
	MRRemoteVirtAddr bool // remote peers may address MRs by virtual address
	MRRmaEvent       bool // MR_RMA_EVENT: MR completions bind to a counter
	RequiresOpContext bool // provider needs a per-op user context pointer

	// TxCtxCount is the provider-reported number of transmit contexts
	// available, used to size the STX pool in Auto mode (spec.md §4.2).
	TxCtxCount int

	// MaxOrderedSize is the largest region, in bytes, over which the
	// provider guarantees write-after-write ordering on one endpoint
	// (spec.md §5 "Ordering").
	MaxOrderedSize uint64
}

// Fabric is the top-level handle returned by opening a provider's fabric.
type Fabric interface {
	Close() error
}

// Domain scopes endpoints, AVs, counters, CQs, MRs and STX contexts to one
// fabric.
type Domain interface {
	Close() error
}

// AddressVector maps a PE index to an opaque fabric address.
type AddressVector interface {
	// Insert adds addrs in one batch and returns how many were accepted;
	// spec.md §4.1 requires this count to equal the number of PEs.
	Insert(addrs [][]byte) (int, error)
	// Address returns the fabric address object for PE index i, usable as
	// the destination of an endpoint operation.
	Address(i int) (FabricAddr, error)
	Close() error
}

// FabricAddr is an opaque, provider-specific peer address.
type FabricAddr interface{}

// Endpoint is a target or transmit endpoint bound to a domain and address
// vector.
type Endpoint interface {
	// Name returns the bytes this endpoint should publish through the KVS
	// under "fi_epname" so peers can insert it into their AV.
	Name() ([]byte, error)
	// BindAV binds the endpoint to the process-wide address vector.
	BindAV(AddressVector) error
	// BindCounter binds a counter to the endpoint for the given event
	// flags (e.g. "I wrote" vs "I read").
	BindCounter(c Counter, flags CounterFlags) error
	// BindCQ binds a completion queue to the endpoint.
	BindCQ(cq CQ, flags CQFlags) error
	// BindSTX binds the endpoint's transmit side to a shared transmit
	// context (spec.md §4.2).
	BindSTX(STXContext) error
	Enable() error
	Close() error
}

// CounterFlags selects which events a bound counter advances on.
type CounterFlags uint32

const (
	CounterWrite CounterFlags = 1 << iota
	CounterRead
	CounterRemoteWrite
)

// CQFlags selects which events a bound completion queue reports.
type CQFlags uint32

const (
	CQTransmit CQFlags = 1 << iota
	CQRecv
)

// Counter is a provider-maintained monotonic completion counter, read with
// fi_cntr_read semantics.
type Counter interface {
	Read() uint64
	// Wait blocks (subject to pollLimit CPU-polls first, per spec.md §5)
	// until Read() >= threshold or ctx is done.
	Wait(ctx context.Context, threshold uint64, pollLimit int) error
	Close() error
}

// CompletionEvent is one entry read off a CQ.
type CompletionEvent struct {
	// OpContext is the user context pointer the operation was posted
	// with; for bounce-buffered puts this recovers the buffer (spec.md §3
	// "Bounce buffer").
	OpContext uintptr
	Err       error
}

// CQ is a completion queue.
type CQ interface {
	// Read returns the next completion event, blocking until one is
	// available or ctx is done.
	Read(ctx context.Context) (CompletionEvent, error)
	Close() error
}

// MemoryRegion is a registered, remotely-addressable range.
type MemoryRegion interface {
	Key() uint64
	// BaseAddr is meaningful only when the domain lacks remote virtual
	// addressing (spec.md §4.1 "Memory-region modes").
	BaseAddr() uintptr
	Enable() error
	Close() error
}

// STXContext is a shared transmit context: a provider-level transmit
// resource that serializes the operations submitted through it (spec.md
// GLOSSARY "STX").
type STXContext interface {
	Close() error
}

// ThreadingMode mirrors spec.md §5 "Threading levels", translated to the
// provider's domain-threading setting (spec.md §5 "Domain threading
// policy").
type ThreadingMode int

const (
	Single ThreadingMode = iota
	Funneled
	Serialized
	Multiple
)

// Handle is the full provider capability set the transport core consumes.
// A real implementation wraps a libfabric-equivalent C API; providertest
// ships an in-memory implementation for tests, and zmqprovider one over
// ZeroMQ sockets that the demo command uses.
type Handle interface {
	// QueryFabrics returns every fabric/domain combination the provider
	// offers that satisfies hints.RMA / hints.Atomics (capability
	// filtering), in provider-reported order.
	QueryFabrics(hints Info) ([]Info, error)

	OpenFabric(info Info) (Fabric, error)
	OpenDomain(f Fabric, info Info, threading ThreadingMode) (Domain, error)
	OpenAV(d Domain, size int) (AddressVector, error)
	OpenEndpoint(d Domain, info Info) (Endpoint, error)
	OpenCounter(d Domain) (Counter, error)
	OpenCQ(d Domain) (CQ, error)
	OpenSTX(d Domain) (STXContext, error)

	// RegisterMR registers [base, base+length) with the requested key.
	// In Scalable mode with remote-virtual-addressing on, key is ignored
	// by the provider and base is globally meaningful; otherwise key must
	// be exchanged through the KVS (spec.md §4.1 "Memory-region modes").
	RegisterMR(d Domain, base uintptr, length uint64, key uint64) (MemoryRegion, error)

	// AtomicValid reports whether the provider supports op on dtype for
	// the given category (spec.md §4.1 "Atomic-validity check"). kind
	// selects which of the three libfabric-equivalent queries to make.
	AtomicValid(ep Endpoint, dtype, op int, kind AtomicQueryKind, cat config.AtomicCategory) (bool, error)
}

// AtomicQueryKind selects which atomic-capability query to issue, mirroring
// libfabric's atomicvalid / fetch_atomicvalid / compare_atomicvalid.
type AtomicQueryKind int

const (
	PlainAtomic AtomicQueryKind = iota
	FetchAtomic
	CompareAtomic
)
