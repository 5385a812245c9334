// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ctxreg

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// errBounceDisabled is returned by Context.AcquireBounce when the context
// was created, or downgraded, without bounce buffering.
var errBounceDisabled = errors.New("ctxreg: bounce buffering not enabled on this context")

// bounceTag marks a buffer drawn from a context's freelist as a bounce
// fragment. Nothing reads it back: recover tells a bounce completion apart
// by looking its OpContext up in the in-flight map.
const bounceTag uint32 = 0xb0c4

// BounceBuffer is one fixed-size payload buffer drawn from a context's
// freelist for the lifetime of one put whose source cannot be pinned for
// the duration of the operation. OpCtx is the value the caller must post
// the RMA operation with as its provider op-context pointer; the
// completion event returns it unchanged so quiet can recover the buffer
// (spec.md §3 "Bounce buffer").
type BounceBuffer struct {
	tag     uint32
	OpCtx   uintptr
	Payload []byte
}

// bouncePool is a per-context freelist of BounceBuffers, sized at context
// creation and never resized.
type bouncePool struct {
	size int
	free chan *BounceBuffer

	mu       sync.Mutex
	inflight map[uintptr]*BounceBuffer
}

// newBouncePool allocates count buffers of size bytes apiece. Either
// argument <= 0 means bounce buffering is disabled for this context
// (spec.md §4.1 "Bounce-buffer feasibility", §6 "BOUNCE_SIZE,
// MAX_BOUNCE_BUFFERS"); newBouncePool returns (nil, nil) in that case.
func newBouncePool(size, count int) (*bouncePool, error) {
	if size <= 0 || count <= 0 {
		return nil, nil
	}
	p := &bouncePool{
		size:     size,
		free:     make(chan *BounceBuffer, count),
		inflight: make(map[uintptr]*BounceBuffer, count),
	}
	for i := 0; i < count; i++ {
		b := &BounceBuffer{tag: bounceTag, Payload: make([]byte, size)}
		b.OpCtx = uintptr(unsafe.Pointer(b))
		p.free <- b
	}
	return p, nil
}

// acquire takes one buffer without blocking and marks it in-flight under
// its OpCtx key, or reports exhaustion.
func (p *bouncePool) acquire() (*BounceBuffer, error) {
	select {
	case b := <-p.free:
		p.mu.Lock()
		p.inflight[b.OpCtx] = b
		p.mu.Unlock()
		return b, nil
	default:
		return nil, fmt.Errorf("ctxreg: bounce-buffer freelist exhausted (cap %d)", cap(p.free))
	}
}

// recover looks up the in-flight buffer for a completion event's OpCtx,
// returns it to the freelist, and reports whether one was found. A
// completion event whose OpCtx does not match any in-flight bounce buffer
// belongs to a directly-posted (non-bounced) operation.
func (p *bouncePool) recover(opCtx uintptr) (*BounceBuffer, bool) {
	p.mu.Lock()
	b, ok := p.inflight[opCtx]
	if ok {
		delete(p.inflight, opCtx)
	}
	p.mu.Unlock()
	if !ok {
		return nil, false
	}
	p.free <- b
	return b, true
}

// outstanding reports how many buffers are currently checked out.
func (p *bouncePool) outstanding() int {
	return cap(p.free) - len(p.free)
}
