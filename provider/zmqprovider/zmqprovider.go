// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package zmqprovider is a reference provider.Handle backed by real
// ZeroMQ sockets instead of an in-process fake (providertest) or actual
// libfabric hardware. It exists so the demo command can run its PEs over
// real loopback TCP sockets, without needing a libfabric-equivalent
// provider installed.
//
// It still implements only the control-plane surface spec.md §6
// describes: endpoint naming, counters and completion queues. Put, get
// and atomic verbs stay out of scope; a real transmit path would drive
// Counter.Advance/CQ.Push itself, same as providertest's test hooks do.
// Here that role is filled by Endpoint.Notify, which PUSHes a completion
// frame to a peer's bound PULL socket over the network.
package zmqprovider

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/luxfi/rmacore/config"
	"github.com/luxfi/rmacore/provider"
)

// Options configures the fake fabric/domain this Handle reports and how
// its PULL sockets are bound.
type Options struct {
	// Offered mirrors providertest.Options.Offered; defaults to one
	// RMA+Atomics capable zmq-backed fabric/domain.
	Offered []provider.Info
	// BindHost is the interface new endpoints bind their PULL socket on,
	// e.g. "127.0.0.1". Defaults to "127.0.0.1".
	BindHost string
	// RecvTimeout bounds how long the completion-reader goroutine blocks
	// on one Recv before checking for shutdown. Defaults to 200ms.
	RecvTimeout time.Duration
	// MissingCategories marks atomic categories this Handle reports as
	// unsupported, exercising the same policy matrix providertest does.
	MissingCategories map[config.AtomicCategory]bool
}

// Handle is the ZeroMQ-backed provider.Handle.
type Handle struct {
	opts    Options
	nextKey uint64
}

// New returns a Handle. zmq.NewContext is process-global in pebbe/zmq4,
// so Handle itself holds no context; each endpoint owns its own socket.
func New(opts Options) *Handle {
	if len(opts.Offered) == 0 {
		opts.Offered = []provider.Info{{
			ProviderName:     "zmq",
			FabricName:       "zmq-tcp",
			DomainName:       "zmq-tcp-domain",
			RMA:              true,
			Atomics:          true,
			MRRemoteVirtAddr: true,
			TxCtxCount:       4,
			MaxOrderedSize:   1 << 20,
		}}
	}
	if opts.BindHost == "" {
		opts.BindHost = "127.0.0.1"
	}
	if opts.RecvTimeout <= 0 {
		opts.RecvTimeout = 200 * time.Millisecond
	}
	return &Handle{opts: opts}
}

func (h *Handle) QueryFabrics(hints provider.Info) ([]provider.Info, error) {
	var out []provider.Info
	for _, info := range h.opts.Offered {
		if hints.RMA && !info.RMA {
			continue
		}
		if hints.Atomics && !info.Atomics {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

type fabric struct{}

func (f *fabric) Close() error { return nil }

func (h *Handle) OpenFabric(provider.Info) (provider.Fabric, error) { return &fabric{}, nil }

type domain struct{}

func (d *domain) Close() error { return nil }

func (h *Handle) OpenDomain(provider.Fabric, provider.Info, provider.ThreadingMode) (provider.Domain, error) {
	return &domain{}, nil
}

// av resolves PE index to the tcp address its endpoint published, and
// memoizes one PUSH socket per peer so repeated sends reuse the
// connection (pebbe/zmq4 sockets are not safe for concurrent Send from
// multiple goroutines, so pushOne serializes with a mutex).
type av struct {
	mu      sync.Mutex
	addrs   []string
	sockets map[int]*zmq.Socket
}

func (a *av) Insert(addrs [][]byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, raw := range addrs {
		a.addrs = append(a.addrs, string(raw))
	}
	return len(addrs), nil
}

func (a *av) Address(i int) (provider.FabricAddr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.addrs) {
		return nil, fmt.Errorf("zmqprovider: address vector index %d out of range [0,%d)", i, len(a.addrs))
	}
	return a.addrs[i], nil
}

func (a *av) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.sockets {
		_ = s.Close()
	}
	return nil
}

// pushOne sends payload to the peer at AV index i, dialing lazily.
func (a *av) pushOne(i int, payload []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.addrs) {
		return fmt.Errorf("zmqprovider: address vector index %d out of range [0,%d)", i, len(a.addrs))
	}
	s, ok := a.sockets[i]
	if !ok {
		var err error
		s, err = zmq.NewSocket(zmq.PUSH)
		if err != nil {
			return fmt.Errorf("zmqprovider: opening push socket: %w", err)
		}
		if err := s.Connect(a.addrs[i]); err != nil {
			_ = s.Close()
			return fmt.Errorf("zmqprovider: connecting to %s: %w", a.addrs[i], err)
		}
		if a.sockets == nil {
			a.sockets = make(map[int]*zmq.Socket)
		}
		a.sockets[i] = s
	}
	_, err := s.SendBytes(payload, 0)
	return err
}

func (h *Handle) OpenAV(_ provider.Domain, size int) (provider.AddressVector, error) {
	return &av{}, nil
}

// endpoint binds a PULL socket other PEs' endpoints push completion
// frames to, and runs a background reader that drains it into whichever
// Counter/CQ got bound.
type endpoint struct {
	sock    *zmq.Socket
	name    []byte
	av      *av
	counter *Counter
	cq      *CQ
	stop    chan struct{}
	stopped sync.Once
}

func (h *Handle) OpenEndpoint(d provider.Domain, info provider.Info) (provider.Endpoint, error) {
	sock, err := zmq.NewSocket(zmq.PULL)
	if err != nil {
		return nil, fmt.Errorf("zmqprovider: opening pull socket: %w", err)
	}
	if err := sock.Bind(fmt.Sprintf("tcp://%s:*", h.opts.BindHost)); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("zmqprovider: binding pull socket: %w", err)
	}
	endpointAddr, err := sock.GetLastEndpoint()
	if err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("zmqprovider: resolving bound address: %w", err)
	}
	if err := sock.SetRcvtimeo(h.opts.RecvTimeout); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("zmqprovider: setting recv timeout: %w", err)
	}
	ep := &endpoint{
		sock: sock,
		name: []byte(endpointAddr),
		stop: make(chan struct{}),
	}
	go ep.drain()
	return ep, nil
}

// drain runs until Close, forwarding every frame received on the PULL
// socket to whichever Counter/CQ have been bound. Each frame advances
// the counter by one and, if a CQ is bound, also becomes a completion
// event whose OpContext is decoded from the frame's bytes.
func (e *endpoint) drain() {
	for {
		select {
		case <-e.stop:
			return
		default:
		}
		msg, err := e.sock.RecvBytes(0)
		if err != nil {
			// Timeout (EAGAIN) is expected every RecvTimeout; anything else
			// we also just retry, since there is no caller to report to.
			continue
		}
		if e.counter != nil {
			e.counter.Advance(1)
		}
		if e.cq != nil {
			e.cq.Push(provider.CompletionEvent{OpContext: opContextOf(msg)})
		}
	}
}

// opContextOf recovers the uintptr op-context a Notify call embedded in
// its payload, mirroring the bounce-buffer recovery spec.md §3 describes
// for real providers.
func opContextOf(payload []byte) uintptr {
	var v uintptr
	for _, b := range payload {
		v = v<<8 | uintptr(b)
	}
	return v
}

func (e *endpoint) Name() ([]byte, error) { return e.name, nil }

func (e *endpoint) BindAV(a provider.AddressVector) error {
	real, ok := a.(*av)
	if !ok {
		return fmt.Errorf("zmqprovider: BindAV given a non-zmqprovider AddressVector")
	}
	e.av = real
	return nil
}

func (e *endpoint) BindCounter(c provider.Counter, _ provider.CounterFlags) error {
	real, ok := c.(*Counter)
	if !ok {
		return fmt.Errorf("zmqprovider: BindCounter given a non-zmqprovider Counter")
	}
	e.counter = real
	return nil
}

func (e *endpoint) BindCQ(cq provider.CQ, _ provider.CQFlags) error {
	real, ok := cq.(*CQ)
	if !ok {
		return fmt.Errorf("zmqprovider: BindCQ given a non-zmqprovider CQ")
	}
	e.cq = real
	return nil
}

func (e *endpoint) BindSTX(provider.STXContext) error { return nil }

func (e *endpoint) Enable() error { return nil }

func (e *endpoint) Close() error {
	e.stopped.Do(func() { close(e.stop) })
	return e.sock.Close()
}

// Notify pushes a completion frame carrying opCtx to the peer at AV
// index dst, the way a real provider's transmit path would drive a
// remote completion after a bounce-buffered put lands (spec.md §3).
// Only this package's tests call it; the CORE itself never does.
func (e *endpoint) Notify(dst int, opCtx uintptr) error {
	if e.av == nil {
		return fmt.Errorf("zmqprovider: endpoint has no bound address vector")
	}
	payload := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		payload[i] = byte(opCtx)
		opCtx >>= 8
	}
	return e.av.pushOne(dst, payload)
}

// Counter is a real atomic completion counter, advanced only by frames
// the drain goroutine receives over the network.
type Counter struct {
	val atomic.Uint64
}

func (c *Counter) Advance(delta uint64) { c.val.Add(delta) }
func (c *Counter) Read() uint64         { return c.val.Load() }

func (c *Counter) Wait(ctx context.Context, threshold uint64, pollLimit int) error {
	for i := 0; i < pollLimit; i++ {
		if c.Read() >= threshold {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		if c.Read() >= threshold {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Counter) Close() error { return nil }

func (h *Handle) OpenCounter(provider.Domain) (provider.Counter, error) { return &Counter{}, nil }

// CQ is a completion queue fed by the owning endpoint's drain goroutine.
type CQ struct {
	ch     chan provider.CompletionEvent
	closed atomic.Bool
}

func (q *CQ) Push(ev provider.CompletionEvent) {
	if q.closed.Load() {
		return
	}
	select {
	case q.ch <- ev:
	default:
		// Drop rather than block the drain goroutine; a saturated CQ is
		// a consumer bug, not something worth deadlocking the socket
		// reader over.
	}
}

func (q *CQ) Read(ctx context.Context) (provider.CompletionEvent, error) {
	select {
	case ev := <-q.ch:
		return ev, nil
	case <-ctx.Done():
		return provider.CompletionEvent{}, ctx.Err()
	}
}

func (q *CQ) Close() error {
	q.closed.Store(true)
	return nil
}

func (h *Handle) OpenCQ(provider.Domain) (provider.CQ, error) {
	return &CQ{ch: make(chan provider.CompletionEvent, 256)}, nil
}

type stx struct{}

func (s *stx) Close() error { return nil }

func (h *Handle) OpenSTX(provider.Domain) (provider.STXContext, error) { return &stx{}, nil }

type mr struct {
	key  uint64
	base uintptr
}

func (m *mr) Key() uint64       { return m.key }
func (m *mr) BaseAddr() uintptr { return m.base }
func (m *mr) Enable() error     { return nil }
func (m *mr) Close() error      { return nil }

func (h *Handle) RegisterMR(_ provider.Domain, base uintptr, _ uint64, key uint64) (provider.MemoryRegion, error) {
	if key == 0 {
		key = atomic.AddUint64(&h.nextKey, 1)
	}
	return &mr{key: key, base: base}, nil
}

func (h *Handle) AtomicValid(_ provider.Endpoint, _, _ int, _ provider.AtomicQueryKind, cat config.AtomicCategory) (bool, error) {
	if h.opts.MissingCategories[cat] {
		return false, nil
	}
	return true, nil
}
