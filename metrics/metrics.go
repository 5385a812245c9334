// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wraps prometheus.Registerer for the transport core
// (spec.md §7 "Metrics") with a fixed set of gauges covering STX pool
// occupancy, live context count, and team/pSync slot usage.
package metrics

import (
    "github.com/prometheus/client_golang/prometheus"
)

// Metrics provides the transport core's metrics registration surface.
type Metrics struct {
    Registry prometheus.Registerer
}

// NewMetrics creates new metrics instance
func NewMetrics(reg prometheus.Registerer) *Metrics {
    return &Metrics{
        Registry: reg,
    }
}

// Register registers a prometheus collector
func (m *Metrics) Register(collector prometheus.Collector) error {
    return m.Registry.Register(collector)
}
