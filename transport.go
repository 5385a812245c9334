// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rmacore wires the provider handle layer, the runtime KVS, the
// STX pool, the context registry and the team/pSync allocator into one
// PGAS/RMA transport core (spec.md §2 "Control flow"). It owns no RMA
// verb of its own: put, get and atomic operations, and the reduction and
// barrier algorithms layered over them, are explicitly out of scope
// (spec.md §1).
package rmacore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/errs"
	"github.com/luxfi/rmacore/internal/ctxreg"
	"github.com/luxfi/rmacore/internal/fabric"
	"github.com/luxfi/rmacore/internal/stx"
	"github.com/luxfi/rmacore/kvs"
	"github.com/luxfi/rmacore/log"
	"github.com/luxfi/rmacore/metrics"
	"github.com/luxfi/rmacore/provider"
	"github.com/luxfi/rmacore/team"
)

// Segments describes the symmetric heap and data segments this PE brings
// to the run. Their allocation is the caller's responsibility (spec.md §1
// "no symmetric heap allocator"); the core only registers and publishes
// whatever ranges it is given.
type Segments struct {
	Heap fabric.Segment
	Data fabric.Segment
}

// TransportState is one PE's live transport instance: everything Startup
// brings up and Fini must tear back down in reverse.
type TransportState struct {
	cfg   config.Config
	log   log.Logger
	pe    int
	world int

	handle provider.Handle
	store  kvs.Store

	fabricInfo provider.Info
	fabricH    provider.Fabric
	domain     provider.Domain
	av         provider.AddressVector
	bootstrap  provider.Endpoint
	registered *fabric.Registered

	stxPool  *stx.Pool
	registry *ctxreg.Registry
	def      *ctxreg.Context

	maskPool *team.MaskPool
	worldTm  *team.Team

	gauges *metrics.TransportGauges
}

// New constructs a TransportState for PE pe of a run of size world,
// talking to the provider through handle and to the out-of-band launcher
// through store. It performs no I/O; call Startup to bring the transport
// up.
func New(cfg config.Config, logger log.Logger, handle provider.Handle, store kvs.Store, pe, world int) (*TransportState, error) {
	if err := cfg.Valid(); err != nil {
		return nil, fmt.Errorf("rmacore: invalid configuration: %w", err)
	}
	if logger == nil {
		logger = log.NewNoOp()
	}
	if pe < 0 || pe >= world {
		return nil, fmt.Errorf("rmacore: pe %d out of range [0,%d)", pe, world)
	}
	logger = logger.With("pe", pe)
	return &TransportState{
		cfg:    cfg,
		log:    logger,
		pe:     pe,
		world:  world,
		handle: handle,
		store:  store,
	}, nil
}

// EnableMetrics registers this transport's gauge set under reg. Startup
// must have already run; refresh happens on every CreateContext,
// DestroyContext and Fini call from then on.
func (t *TransportState) EnableMetrics(reg prometheus.Registerer) error {
	g, err := metrics.NewTransportGauges(reg, fmt.Sprintf("rmacore_pe%d", t.pe))
	if err != nil {
		return fmt.Errorf("rmacore: registering metrics: %w", err)
	}
	t.gauges = g
	t.refreshGauges()
	return nil
}

func (t *TransportState) refreshGauges() {
	if t.gauges == nil {
		return
	}
	t.gauges.Refresh(
		int(t.stxPool.RefCountSum()),
		t.stxPool.Len(),
		len(t.registry.Live()),
		t.maskPool.UsedCount(),
		t.cfg.TeamsMax,
	)
}

// Startup runs spec.md §2's bring-up sequence: select and open the
// provider's fabric/domain, populate the address vector through the KVS,
// register and publish segs, size and open the STX pool, create the
// default context, and reserve TEAM_WORLD's pSync slot.
func (t *TransportState) Startup(ctx context.Context, hints provider.Info, mode fabric.Mode, segs Segments) (err error) {
	t.fabricInfo, err = fabric.Select(t.handle, t.cfg, hints)
	if err != nil {
		return err
	}
	t.cfg = fabric.ApplyBounceFeasibility(t.cfg, t.fabricInfo)
	t.log.Info("selected fabric", "provider", t.fabricInfo.ProviderName, "fabric", t.fabricInfo.FabricName, "domain", t.fabricInfo.DomainName)

	t.fabricH, err = t.handle.OpenFabric(t.fabricInfo)
	if err != nil {
		return fmt.Errorf("rmacore: opening fabric: %w", err)
	}
	threading := t.threadingMode()
	t.domain, err = t.handle.OpenDomain(t.fabricH, t.fabricInfo, threading)
	if err != nil {
		return fmt.Errorf("rmacore: opening domain: %w", err)
	}

	t.bootstrap, err = t.handle.OpenEndpoint(t.domain, t.fabricInfo)
	if err != nil {
		return fmt.Errorf("rmacore: opening bootstrap endpoint: %w", err)
	}
	if err := fabric.CheckAtomics(t.handle, t.bootstrap, t.cfg, t.log); err != nil {
		return err
	}
	t.av, err = fabric.PopulateAV(ctx, t.handle, t.domain, t.store, t.bootstrap)
	if err != nil {
		return fmt.Errorf("rmacore: populating address vector: %w", err)
	}

	t.registered, err = fabric.RegisterAndPublish(ctx, t.handle, t.domain, t.fabricInfo, mode, t.store, t.pe, segs.Heap, segs.Data)
	if err != nil {
		return fmt.Errorf("rmacore: registering memory regions: %w", err)
	}

	stxSize := t.stxPoolSize(threading)
	t.stxPool, err = stx.New(stxSize, t.cfg, func() (provider.STXContext, error) {
		return t.handle.OpenSTX(t.domain)
	})
	if err != nil {
		return fmt.Errorf("rmacore: building STX pool: %w", err)
	}

	opener := &regOpener{h: t.handle, dom: t.domain, info: t.fabricInfo, av: t.av}
	t.registry = ctxreg.New(t.cfg, t.stxPool, opener, stx.DefaultIdentify, threading)

	t.def, err = t.registry.CreateDefault(ctxreg.Options{})
	if err != nil {
		return fmt.Errorf("rmacore: creating default context: %w", err)
	}

	t.maskPool, err = team.NewMaskPool(t.cfg.TeamsMax)
	if err != nil {
		return fmt.Errorf("rmacore: building team mask pool: %w", err)
	}
	t.worldTm = team.World(t.pe, t.world)

	return nil
}

// threadingMode forces Single/Funneled threading into an unlocked registry
// exactly as spec.md §5 "Threading levels" requires; any richer level asks
// for a per-context lock.
func (t *TransportState) threadingMode() provider.ThreadingMode {
	if t.cfg.StxMax <= 1 && !t.cfg.StxAuto {
		return provider.Funneled
	}
	return provider.Serialized
}

// stxPoolSize derives the STX pool size from configuration: StxAuto
// divides the provider's reported transmit-context count across the PEs
// co-located on this node (spec.md §4.2 "Pool sizing"), capped by
// StxNodeMax when set; Single/Funneled threading always forces 1.
func (t *TransportState) stxPoolSize(threading provider.ThreadingMode) int {
	if threading == provider.Single || threading == provider.Funneled {
		return 1
	}
	if !t.cfg.StxAuto {
		return t.cfg.StxMax
	}
	local := t.store.LocalSize()
	if local <= 0 {
		local = 1
	}
	n := t.fabricInfo.TxCtxCount / local
	if n < 1 {
		n = 1
	}
	if t.cfg.StxNodeMax > 0 && n > t.cfg.StxNodeMax {
		n = t.cfg.StxNodeMax
	}
	return n
}

// Default returns the sentinel default context created during Startup.
func (t *TransportState) Default() *ctxreg.Context { return t.def }

// World returns TEAM_WORLD, the implicit team spanning every PE in the run.
func (t *TransportState) World() *team.Team { return t.worldTm }

// MaskPool returns the pSync reservation pool backing team splits.
func (t *TransportState) MaskPool() *team.MaskPool { return t.maskPool }

// CreateContext allocates and activates a new user context (spec.md §4.3).
func (t *TransportState) CreateContext(opts ctxreg.Options) (*ctxreg.Context, error) {
	c, err := t.registry.Create(opts)
	t.refreshGauges()
	return c, err
}

// DestroyContext releases a context's resources. It does not quiesce the
// context first; outstanding operations are not waited for.
func (t *TransportState) DestroyContext(c *ctxreg.Context) error {
	err := t.registry.Destroy(c)
	t.refreshGauges()
	return err
}

// ErrNotImplemented is returned by the team/context operations the
// original source carries as TODOs rather than working code (spec.md §9
// "team_create_ctx does not actually link the context to the team",
// "team_sync unimplemented", "ctx_get_team unimplemented"). Each is left
// unimplemented here too, per spec.md §9's own instruction.
var ErrNotImplemented = errors.New("rmacore: not implemented")

// CreateTeamContext is team_create_ctx: it should allocate a context
// scoped to tm the way CreateContext allocates one scoped to the whole
// transport. The original never actually links the returned context back
// to its team, so this stays a documented stub rather than silently
// carrying that bug forward.
func (t *TransportState) CreateTeamContext(tm *team.Team, opts ctxreg.Options) (*ctxreg.Context, error) {
	return nil, fmt.Errorf("rmacore: team_create_ctx: %w", ErrNotImplemented)
}

// ContextTeam is ctx_get_team: the context-to-team back-reference the
// original never wired up.
func (t *TransportState) ContextTeam(c *ctxreg.Context) (*team.Team, error) {
	return nil, fmt.Errorf("rmacore: ctx_get_team: %w", ErrNotImplemented)
}

// TeamSync is team_sync: a collective barrier over a team's members. The
// original leaves it unimplemented; reduction and barrier algorithms are
// out of scope for this transport core (spec.md §1).
func (t *TransportState) TeamSync(tm *team.Team) error {
	return fmt.Errorf("rmacore: team_sync: %w", ErrNotImplemented)
}

// Fini tears the transport down in reverse acquisition order, quiescing
// every live context first (spec.md §2 "Teardown quiesces all contexts,
// releases STX references, unregisters memory regions, frees address
// vector and fabric handles"). It keeps releasing every remaining
// resource even after an earlier release fails, returning the combined
// error.
func (t *TransportState) Fini(ctx context.Context) error {
	var accum errs.Errs

	for _, c := range t.registry.Live() {
		start := time.Now()
		err := c.Quiet(ctx, t.cfg.RxPollLimit)
		if t.gauges != nil {
			t.gauges.ObserveQuiet(time.Since(start))
		}
		accum.Add(err)
	}
	for _, c := range t.registry.Live() {
		accum.Add(t.registry.Destroy(c))
	}
	t.refreshGauges()

	if t.stxPool != nil {
		accum.Add(t.stxPool.Close())
	}
	if t.registered != nil {
		for _, mr := range t.registered.MRs {
			accum.Add(mr.Close())
		}
	}
	if t.av != nil {
		accum.Add(t.av.Close())
	}
	if t.bootstrap != nil {
		accum.Add(t.bootstrap.Close())
	}
	if t.domain != nil {
		accum.Add(t.domain.Close())
	}
	if t.fabricH != nil {
		accum.Add(t.fabricH.Close())
	}

	return accum.Err()
}

// regOpener is the ctxreg.Opener bound to this transport's selected
// domain, fabric info and address vector.
type regOpener struct {
	h    provider.Handle
	dom  provider.Domain
	info provider.Info
	av   provider.AddressVector
}

func (o *regOpener) OpenEndpoint() (provider.Endpoint, error) {
	ep, err := o.h.OpenEndpoint(o.dom, o.info)
	if err != nil {
		return nil, err
	}
	if err := ep.BindAV(o.av); err != nil {
		_ = ep.Close()
		return nil, err
	}
	return ep, nil
}

func (o *regOpener) OpenCounter() (provider.Counter, error) { return o.h.OpenCounter(o.dom) }
func (o *regOpener) OpenCQ() (provider.CQ, error)           { return o.h.OpenCQ(o.dom) }
