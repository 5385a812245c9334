// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ctxreg

import (
	"context"
	"fmt"
)

// Quiet waits until the provider's put/get completion counters catch up to
// this context's pending counts and, if bounce buffering is in use, drains
// the completion queue until every outstanding bounce buffer has been
// recovered (spec.md §4.5 "Completion & quiet"). On return, all prior RMA
// issued on this context has completed remotely (puts) and locally (gets);
// Quiet gives no ordering guarantee across contexts.
//
// Calling Quiet twice with no intervening RMA is a no-op beyond the first
// call: the pending counters will already equal the completed ones, so
// both waits return immediately (spec.md §8 "Idempotence").
func (c *Context) Quiet(ctx context.Context, pollLimit int) error {
	c.mustBeState(Active, Draining)

	if err := c.PutCntr.Wait(ctx, c.pendingPut.Load(), pollLimit); err != nil {
		return fmt.Errorf("ctxreg: quiet: waiting on put counter: %w", err)
	}
	if err := c.GetCntr.Wait(ctx, c.pendingGet.Load(), pollLimit); err != nil {
		return fmt.Errorf("ctxreg: quiet: waiting on get counter: %w", err)
	}

	if c.bounce == nil {
		return nil
	}
	for c.completedBB.Load() < c.pendingBB.Load() {
		ev, err := c.CQ.Read(ctx)
		if err != nil {
			return fmt.Errorf("ctxreg: quiet: draining completion queue: %w", err)
		}
		if ev.Err != nil {
			return fmt.Errorf("ctxreg: quiet: completion event reported an error: %w", ev.Err)
		}
		c.recoverBounce(ev.OpContext)
	}
	return nil
}

// mustBeState is a debug assertion; quiet is only meaningful once the
// endpoint is enabled, through to the moment it starts draining.
func (c *Context) mustBeState(allowed ...State) {
	for _, s := range allowed {
		if c.state == s {
			return
		}
	}
	panic(fmt.Sprintf("ctxreg: quiet called on context %d in state %s", c.ID, c.state))
}
