// Copyright 2025 Ekjot Singh
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics keeps a private prometheus.Registry for the engine's own
// counters and gauges. Nothing in this package serves an HTTP scrape
// endpoint: that wiring belongs to an external collaborator. Snapshot lets
// stats()-shaped calls elsewhere in the engine read current values back
// into a plain map.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry owns the plain counters and gauges of each subsystem that asks
// for instrumentation: ingest, and the index background builder.
type Registry struct {
	reg *prometheus.Registry

	IngestAccepted prometheus.Counter
	IngestDropped  prometheus.Counter
	IngestFlushes  prometheus.Counter

	BuilderActiveTasks prometheus.Gauge
	BuilderCompleted   prometheus.Counter
	BuilderFailed      prometheus.Counter
}

// New builds a Registry with all metrics registered under the veloq_
// namespace.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		IngestAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "veloq", Subsystem: "ingest", Name: "accepted_total",
			Help: "events accepted by the ingest buffer",
		}),
		IngestDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "veloq", Subsystem: "ingest", Name: "dropped_total",
			Help: "events dropped due to ingest overload",
		}),
		IngestFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "veloq", Subsystem: "ingest", Name: "flushes_total",
			Help: "batches flushed into the column store",
		}),
		BuilderActiveTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "veloq", Subsystem: "index_builder", Name: "active_tasks",
			Help: "in-flight index build/maintenance tasks",
		}),
		BuilderCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "veloq", Subsystem: "index_builder", Name: "completed_total",
			Help: "index build tasks that completed successfully",
		}),
		BuilderFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "veloq", Subsystem: "index_builder", Name: "failed_total",
			Help: "index build tasks that failed and were logged-and-continued",
		}),
	}
	reg.MustRegister(r.IngestAccepted, r.IngestDropped, r.IngestFlushes,
		r.BuilderActiveTasks, r.BuilderCompleted, r.BuilderFailed)
	return r
}

// Snapshot gathers every registered metric into a flat map, for callers
// like Engine.MetricsSnapshot that want plain numbers rather than a
// prometheus client.
func (r *Registry) Snapshot() map[string]float64 {
	out := make(map[string]float64)
	families, err := r.reg.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	return out
}
