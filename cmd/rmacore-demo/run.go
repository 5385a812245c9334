// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	rmacore "github.com/luxfi/rmacore"
	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/internal/ctxreg"
	"github.com/luxfi/rmacore/internal/fabric"
	"github.com/luxfi/rmacore/kvs"
	"github.com/luxfi/rmacore/kvs/memkvs"
	"github.com/luxfi/rmacore/log"
	"github.com/luxfi/rmacore/provider"
	"github.com/luxfi/rmacore/provider/zmqprovider"
	"github.com/luxfi/rmacore/team"
)

// runCmd brings up one rmacore.TransportState per PE, all in one process,
// splits the world team into its even-ranked half, runs one reduction
// over that half, then tears everything down in reverse order. Every PE
// gets its own zmqprovider.Handle bound to its own loopback sockets, and
// every PE shares one in-memory KVS hub for out-of-band exchange, the
// same shape transport_test.go's TestStartupThenFiniAcrossTwoPEs uses for
// two PEs, scaled up to --pes.
func runCmd() *cobra.Command {
	var numPEs int
	var localSize int
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a local multi-PE bring-up/split/fini demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			if numPEs < 2 {
				return fmt.Errorf("--pes must be >= 2, got %d", numPEs)
			}
			if localSize <= 0 || localSize > numPEs {
				localSize = numPEs
			}
			return runDemo(numPEs, localSize, timeout)
		},
	}

	cmd.Flags().IntVar(&numPEs, "pes", 4, "number of PEs to bring up")
	cmd.Flags().IntVar(&localSize, "local-size", 0, "PEs co-located on one node, for STX Auto sizing (defaults to --pes)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "deadline for the whole run")

	return cmd
}

func runDemo(numPEs, localSize int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	hub := memkvs.NewHub(numPEs, localSize)
	logger, err := log.NewDevelopment()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for pe := 0; pe < numPEs; pe++ {
		pe := pe
		g.Go(func() error {
			return runPE(gctx, pe, numPEs, hub.Client(pe), logger.With("pe", pe))
		})
	}
	return g.Wait()
}

// runPE is one PE's full lifecycle: Startup, split the world team into
// its even-ranked half, reduce the member count over that half, Destroy
// the extra context, Fini.
func runPE(ctx context.Context, pe, world int, store kvs.Store, logger log.Logger) error {
	handle := zmqprovider.New(zmqprovider.Options{})

	ts, err := rmacore.New(config.Default(), logger, handle, store, pe, world)
	if err != nil {
		return fmt.Errorf("pe %d: constructing transport: %w", pe, err)
	}

	segs := rmacore.Segments{
		Heap: fabric.Segment{Base: uintptr(pe+1) << 24, Length: 1 << 20},
		Data: fabric.Segment{Base: uintptr(pe+1)<<24 + 1<<20, Length: 1 << 16},
	}
	if err := ts.Startup(ctx, provider.Info{RMA: true, Atomics: true}, fabric.Scalable, segs); err != nil {
		return fmt.Errorf("pe %d: startup: %w", pe, err)
	}
	defer func() {
		if err := ts.Fini(ctx); err != nil {
			logger.Error("fini failed", "err", err)
		}
	}()

	evenSize := (world + 1) / 2
	tr := team.NewKVSTransport(store, pe, time.Millisecond)
	evenTeam, err := team.SplitStrided(ctx, ts.World(), 0, 2, evenSize, world, pe, ts.MaskPool(), tr, nil, 0)
	if err != nil {
		return fmt.Errorf("pe %d: split: %w", pe, err)
	}

	if !evenTeam.IsNull() {
		// Every member publishes its own view of the team size; an
		// AND-reduce of identical values is a no-op that converges back
		// to that size, confirming every member agrees on membership.
		agreed, err := tr.Reduce(ctx, memberRanks(evenTeam, world), evenTeam.PsyncIdx, uint64(evenTeam.Size))
		if err != nil {
			return fmt.Errorf("pe %d: reduce: %w", pe, err)
		}
		logger.Info("even-team reduce converged", "local_rank", evenTeam.MyPe, "agreed_team_size", agreed)
	} else {
		logger.Info("not a member of the even team")
	}

	c, err := ts.CreateContext(ctxreg.Options{})
	if err != nil {
		return fmt.Errorf("pe %d: create context: %w", pe, err)
	}
	if err := ts.DestroyContext(c); err != nil {
		return fmt.Errorf("pe %d: destroy context: %w", pe, err)
	}
	return nil
}

// memberRanks enumerates t's member world ranks, the group a Transport.Reduce
// call needs.
func memberRanks(t *team.Team, worldSize int) []int {
	out := make([]int, 0, t.Size)
	for i := 0; i < t.Size; i++ {
		if r := t.WorldRank(i); r < worldSize {
			out = append(out, r)
		}
	}
	return out
}
