// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TransportGauges is the fixed set of prometheus collectors the transport
// core exposes: STX pool occupancy, live context count, team/pSync slot
// usage, and quiet() latency, wired directly as prometheus.Gauge and
// prometheus.Histogram values.
type TransportGauges struct {
	StxUsed      prometheus.Gauge
	StxSize      prometheus.Gauge
	LiveContexts prometheus.Gauge
	PsyncUsed    prometheus.Gauge
	PsyncMax     prometheus.Gauge
	QuietLatency prometheus.Histogram
}

// NewTransportGauges registers and returns the transport core's gauge set
// under reg. namespace/subsystem follow prometheus.BuildFQName so multiple
// PEs in one process (e.g. one per PE under rmacore_pe<N>) can register
// distinct label sets by giving each its own namespace.
func NewTransportGauges(reg prometheus.Registerer, namespace string) (*TransportGauges, error) {
	g := &TransportGauges{
		StxUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "stx", Name: "slots_in_use",
			Help: "Sum of ref_cnt across the STX pool.",
		}),
		StxSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "stx", Name: "pool_size",
			Help: "Configured size of the STX pool.",
		}),
		LiveContexts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "ctxreg", Name: "live_contexts",
			Help: "Number of contexts currently Active or Draining.",
		}),
		PsyncUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "team", Name: "psync_slots_in_use",
			Help: "Number of reserved bits in the pSync mask.",
		}),
		PsyncMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "team", Name: "psync_slots_max",
			Help: "Configured TEAMS_MAX.",
		}),
		QuietLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ctxreg", Name: "quiet_seconds",
			Help:    "Time spent inside Context.Quiet.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{g.StxUsed, g.StxSize, g.LiveContexts, g.PsyncUsed, g.PsyncMax, g.QuietLatency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Refresh overwrites every gauge with a fresh sample.
func (g *TransportGauges) Refresh(stxUsed, stxSize, liveContexts, psyncUsed, psyncMax int) {
	g.StxUsed.Set(float64(stxUsed))
	g.StxSize.Set(float64(stxSize))
	g.LiveContexts.Set(float64(liveContexts))
	g.PsyncUsed.Set(float64(psyncUsed))
	g.PsyncMax.Set(float64(psyncMax))
}

// ObserveQuiet records how long one Context.Quiet call took.
func (g *TransportGauges) ObserveQuiet(d time.Duration) {
	g.QuietLatency.Observe(d.Seconds())
}
