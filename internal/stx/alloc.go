// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stx

import "fmt"

// Allocate binds one context to an STX slot (spec.md §4.2 "Allocation
// algorithm"). wantPrivate is the context's requested CTX_PRIVATE option;
// tid identifies the calling thread and is only consulted when wantPrivate
// is true. The returned granted reports whether the slot was actually
// granted private — it is false whenever wantPrivate was stripped because
// no unused slot was available, so the caller can downgrade the context's
// recorded options accordingly.
func (p *Pool) Allocate(wantPrivate bool, tid ThreadId) (slot int, granted bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if wantPrivate && !p.disablePriv {
		if i, ok := p.owners[tid]; ok {
			p.slots[i].RefCnt++
			return i, true, nil
		}
		if i := p.findUnused(); i >= 0 {
			p.slots[i].RefCnt = 1
			p.slots[i].IsPrivate = true
			p.owners[tid] = i
			p.markUsed(i)
			return i, true, nil
		}
		// Fall through to shared allocation; PRIVATE is stripped.
	}

	if i := p.findShared(p.threshold); i >= 0 {
		p.slots[i].RefCnt++
		return i, false, nil
	}
	if i := p.findUnused(); i >= 0 {
		p.slots[i].RefCnt = 1
		p.markUsed(i)
		return i, false, nil
	}
	if i := p.findShared(-1); i >= 0 {
		p.slots[i].RefCnt++
		return i, false, nil
	}
	return -1, false, fmt.Errorf("stx: no slot available in a pool of %d (this should be unreachable once the default context holds a reference)", len(p.slots))
}

// Release drops one context's reference on slot i (spec.md §4.2
// "Release"). wasPrivate and tid must match what Allocate returned/was
// called with for this context.
func (p *Pool) Release(i int, wasPrivate bool, tid ThreadId) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i < 0 || i >= len(p.slots) {
		return fmt.Errorf("stx: release of out-of-range slot %d (pool size %d)", i, len(p.slots))
	}
	s := &p.slots[i]
	if s.RefCnt == 0 {
		return fmt.Errorf("stx: release of slot %d with ref_cnt already 0", i)
	}
	s.RefCnt--

	if wasPrivate && s.RefCnt == 0 {
		delete(p.owners, tid)
		s.IsPrivate = false
	}
	if s.RefCnt == 0 {
		p.markUnused(i)
	}
	return nil
}

// Close releases every provider STX handle. The caller must ensure no
// context still references any slot (spec.md §7 "Shutdown-time anomaly").
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for i := range p.slots {
		if err := p.slots[i].Handle.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stx: closing slot %d: %w", i, err)
		}
	}
	return firstErr
}
