// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fabric

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/luxfi/rmacore/kvs"
	"github.com/luxfi/rmacore/provider"
)

// Mode selects one of the two memory-region publication strategies
// spec.md §4.1 "Memory-region modes" requires the design to support.
type Mode int

const (
	// Scalable covers the whole address space with as few MRs as possible
	// and, when the provider offers remote virtual addressing, needs no
	// per-PE key/address table at all.
	Scalable Mode = iota
	// Basic always registers one MR per symmetric segment and always
	// exchanges their provider-assigned keys through the KVS.
	Basic
)

// staticHeapKey and staticDataKey are the keys spec.md §4.1 calls for when
// running Scalable without remote virtual addressing: "two MRs (heap,
// data) with statically chosen keys 1 and 0."
const (
	staticHeapKey = 1
	staticDataKey = 0
)

const (
	kvsHeapKey  = "fi_heap_key"
	kvsDataKey  = "fi_data_key"
	kvsHeapAddr = "fi_heap_addr"
	kvsDataAddr = "fi_data_addr"
)

// Segment describes one symmetric region (the heap or the data segment) on
// this PE that must be registered and, depending on mode, published.
type Segment struct {
	Base   uintptr
	Length uint64
}

// Table holds, for Basic mode (or Scalable without remote virtual
// addressing), the per-PE keys and base addresses needed to address a
// remote PE's heap and data segments (spec.md §4.1 "two MRs ... stored in
// per-PE tables sized N").
type Table struct {
	HeapKey  []uint64
	DataKey  []uint64
	HeapAddr []uintptr // only meaningful when the provider lacks remote virtual addressing
	DataAddr []uintptr
}

// Registered is the outcome of RegisterAndPublish: the open memory-region
// handles this PE must keep alive and close at teardown, plus the
// cross-PE table when one was built.
type Registered struct {
	MRs   []provider.MemoryRegion
	Table *Table // nil in Scalable mode with remote virtual addressing
}

// RegisterAndPublish registers this PE's heap and data segments per mode,
// exchanges whatever keys/addresses the mode requires through store, and
// returns the resulting table (spec.md §4.1 "Memory-region modes").
func RegisterAndPublish(ctx context.Context, h provider.Handle, dom provider.Domain, info provider.Info, mode Mode, store kvs.Store, pe int, heap, data Segment) (*Registered, error) {
	switch mode {
	case Scalable:
		return registerScalable(ctx, h, dom, info, store, pe, heap, data)
	default:
		return registerBasic(ctx, h, dom, store, pe, heap, data)
	}
}

func registerScalable(ctx context.Context, h provider.Handle, dom provider.Domain, info provider.Info, store kvs.Store, pe int, heap, data Segment) (*Registered, error) {
	if info.MRRemoteVirtAddr {
		base, length := spanningRegion(heap, data)
		mr, err := h.RegisterMR(dom, base, length, 0)
		if err != nil {
			return nil, fmt.Errorf("fabric: registering scalable MR: %w", err)
		}
		if err := mr.Enable(); err != nil {
			_ = mr.Close()
			return nil, fmt.Errorf("fabric: enabling scalable MR: %w", err)
		}
		return &Registered{MRs: []provider.MemoryRegion{mr}}, nil
	}

	heapMR, err := h.RegisterMR(dom, heap.Base, heap.Length, staticHeapKey)
	if err != nil {
		return nil, fmt.Errorf("fabric: registering heap MR with static key %d: %w", staticHeapKey, err)
	}
	dataMR, err := h.RegisterMR(dom, data.Base, data.Length, staticDataKey)
	if err != nil {
		_ = heapMR.Close()
		return nil, fmt.Errorf("fabric: registering data MR with static key %d: %w", staticDataKey, err)
	}
	for _, mr := range []provider.MemoryRegion{heapMR, dataMR} {
		if err := mr.Enable(); err != nil {
			_ = heapMR.Close()
			_ = dataMR.Close()
			return nil, fmt.Errorf("fabric: enabling MR: %w", err)
		}
	}

	table, err := exchangeAddrs(ctx, store, pe, heap.Base, data.Base)
	if err != nil {
		_ = heapMR.Close()
		_ = dataMR.Close()
		return nil, err
	}
	for i := range table.HeapKey {
		table.HeapKey[i] = staticHeapKey
		table.DataKey[i] = staticDataKey
	}
	return &Registered{MRs: []provider.MemoryRegion{heapMR, dataMR}, Table: table}, nil
}

func registerBasic(ctx context.Context, h provider.Handle, dom provider.Domain, store kvs.Store, pe int, heap, data Segment) (*Registered, error) {
	heapMR, err := h.RegisterMR(dom, heap.Base, heap.Length, 0)
	if err != nil {
		return nil, fmt.Errorf("fabric: registering heap MR: %w", err)
	}
	dataMR, err := h.RegisterMR(dom, data.Base, data.Length, 0)
	if err != nil {
		_ = heapMR.Close()
		return nil, fmt.Errorf("fabric: registering data MR: %w", err)
	}
	for _, mr := range []provider.MemoryRegion{heapMR, dataMR} {
		if err := mr.Enable(); err != nil {
			_ = heapMR.Close()
			_ = dataMR.Close()
			return nil, fmt.Errorf("fabric: enabling MR: %w", err)
		}
	}

	n := store.Size()
	table := &Table{
		HeapKey: make([]uint64, n),
		DataKey: make([]uint64, n),
	}

	if err := publishU64(ctx, store, kvsHeapKey, heapMR.Key()); err != nil {
		return nil, err
	}
	if err := publishU64(ctx, store, kvsDataKey, dataMR.Key()); err != nil {
		return nil, err
	}
	if err := store.Barrier(ctx); err != nil {
		return nil, fmt.Errorf("fabric: KVS barrier after publishing MR keys: %w", err)
	}
	for p := 0; p < n; p++ {
		k, err := fetchU64(ctx, store, p, kvsHeapKey)
		if err != nil {
			return nil, err
		}
		table.HeapKey[p] = k
		k, err = fetchU64(ctx, store, p, kvsDataKey)
		if err != nil {
			return nil, err
		}
		table.DataKey[p] = k
	}

	addrTable, err := exchangeAddrs(ctx, store, pe, heap.Base, data.Base)
	if err != nil {
		return nil, err
	}
	table.HeapAddr = addrTable.HeapAddr
	table.DataAddr = addrTable.DataAddr

	return &Registered{MRs: []provider.MemoryRegion{heapMR, dataMR}, Table: table}, nil
}

// exchangeAddrs publishes this PE's heap/data base addresses and collects
// every PE's, used whenever the provider lacks remote virtual addressing.
func exchangeAddrs(ctx context.Context, store kvs.Store, pe int, heapBase, dataBase uintptr) (*Table, error) {
	if err := publishU64(ctx, store, kvsHeapAddr, uint64(heapBase)); err != nil {
		return nil, err
	}
	if err := publishU64(ctx, store, kvsDataAddr, uint64(dataBase)); err != nil {
		return nil, err
	}
	if err := store.Barrier(ctx); err != nil {
		return nil, fmt.Errorf("fabric: KVS barrier after publishing MR base addresses: %w", err)
	}

	n := store.Size()
	table := &Table{HeapAddr: make([]uintptr, n), DataAddr: make([]uintptr, n)}
	for p := 0; p < n; p++ {
		v, err := fetchU64(ctx, store, p, kvsHeapAddr)
		if err != nil {
			return nil, err
		}
		table.HeapAddr[p] = uintptr(v)
		v, err = fetchU64(ctx, store, p, kvsDataAddr)
		if err != nil {
			return nil, err
		}
		table.DataAddr[p] = uintptr(v)
	}
	return table, nil
}

func spanningRegion(heap, data Segment) (uintptr, uint64) {
	base := heap.Base
	end := uint64(heap.Base) + heap.Length
	if data.Base < base {
		base = data.Base
	}
	dataEnd := uint64(data.Base) + data.Length
	if dataEnd > end {
		end = dataEnd
	}
	return base, end - uint64(base)
}

func publishU64(ctx context.Context, store kvs.Store, key string, v uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	if err := store.Put(ctx, key, buf); err != nil {
		return fmt.Errorf("fabric: publishing %s: %w", key, err)
	}
	return nil
}

func fetchU64(ctx context.Context, store kvs.Store, pe int, key string) (uint64, error) {
	buf := make([]byte, 8)
	if err := store.Get(ctx, pe, key, buf); err != nil {
		return 0, fmt.Errorf("fabric: fetching %s from PE %d: %w", key, pe, err)
	}
	return binary.LittleEndian.Uint64(buf), nil
}
