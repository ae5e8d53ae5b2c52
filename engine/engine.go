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

// Package engine is the composition root: it wires config, the column
// store, the ingest buffer and the index manager together and exposes the
// two embeddable services (IngestService, QueryService) external
// collaborators call into.
package engine

import (
	"github.com/ekjotsingh/veloq/config"
	"github.com/ekjotsingh/veloq/event"
	"github.com/ekjotsingh/veloq/index"
	"github.com/ekjotsingh/veloq/ingest"
	"github.com/ekjotsingh/veloq/internal/metrics"
	"github.com/ekjotsingh/veloq/query"
	"github.com/ekjotsingh/veloq/store"
)

// Engine owns every long-lived collaborator and exposes Ingest/Query as the
// two narrow entry points an embedding process calls into.
type Engine struct {
	cfg     *config.Config
	store   *store.ColumnStore
	buffer  *ingest.Buffer
	indexes *index.Manager
	metrics *metrics.Registry

	Ingest *ingest.Service
	Query  *query.Service
}

// New builds an Engine from cfg, starting the ingest scheduler and the
// index manager's adaptive-tick loop.
func New(cfg *config.Config) *Engine {
	mx := metrics.New()
	st := store.New()
	mgr := index.NewManager(index.ManagerConfig{
		MemoryBudgetMB:      cfg.Index.MemoryBudgetMB,
		MaxNewPerTick:       cfg.Index.MaxNewPerTick,
		StaleDropMillis:     int64(cfg.Index.StaleDropMS),
		AdaptiveTickSeconds: cfg.Index.AdaptiveTickSeconds,
		PoolSize:            index.DefaultPoolSize(),
	}, mx)
	buf := ingest.New(cfg.Ingest, st, mgr, mx)

	return &Engine{
		cfg:     cfg,
		store:   st,
		buffer:  buf,
		indexes: mgr,
		metrics: mx,
		Ingest:  ingest.NewService(buf, st),
		Query:   query.New(st, mgr.Policy, int64(cfg.Log.SlowQueryMillis)),
	}
}

// Submit is a convenience pass-through to Ingest.Submit, present because
// event.Event is the only type an embedder needs to construct to drive the
// whole pipeline end to end.
func (e *Engine) Submit(events []event.Event) int {
	return e.Ingest.Submit(events)
}

// IndexStats reports the index manager's installed/desired/active-task
// counters, folded into the same flat shape get_storage_stats() returns.
func (e *Engine) IndexStats() map[string]interface{} {
	return e.indexes.Stats()
}

// MetricsSnapshot exposes the registry's current counter values.
func (e *Engine) MetricsSnapshot() map[string]float64 {
	return e.metrics.Snapshot()
}

// Close sequences shutdown: stop accepting and flush pending ingest first,
// then stop the index manager's background builder and tick loop, so no
// index build is ever scheduled against a buffer that can no longer
// deliver rows.
func (e *Engine) Close() {
	e.buffer.Stop()
	e.indexes.Shutdown()
}
