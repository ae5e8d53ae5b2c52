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

package index

import (
	"sync"
	"time"

	"github.com/ekjotsingh/veloq/event"
	"github.com/ekjotsingh/veloq/internal/logutil"
	"github.com/ekjotsingh/veloq/internal/metrics"
	"go.uber.org/zap"
)

// QueryKind tags which shape of probe Manager.Lookup dispatches.
type QueryKind int

// Query kinds, spec §4.11's `lookup(table, column, query)`.
const (
	QueryEquals QueryKind = iota
	QueryIn
	QueryRange
)

// Query is one lookup request against the manager.
type Query struct {
	Kind   QueryKind
	Value  string
	Values []string
	Range  RangeQuery
}

// LookupResult mirrors spec §3's IndexLookupResult: per-segment matches,
// whether the result needs no residual re-check, and a diagnostic count.
type LookupResult struct {
	Matches        map[string]IntSet
	Exact          bool
	RowsConsidered int
}

type segmentMeta struct {
	rowCount  int
	createdAt time.Time
}

// Manager is the IndexManager of spec §4.11: owns the index map, segment
// metadata, catalog, policy, and background builder, and drives the
// periodic adaptive tick.
type Manager struct {
	mu sync.RWMutex
	// indexes[table][column][segmentID]
	indexes  map[string]map[string]map[string]SecondaryIndex
	segments map[string]map[string]segmentMeta

	Catalog *Catalog
	Policy  *Policy
	Builder *Builder

	memoryBudgetBytes int64
	maxNewPerTick     int
	staleDropMillis   int64
	tickInterval      time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// ManagerConfig carries the tunables config.IndexConfig supplies.
type ManagerConfig struct {
	MemoryBudgetMB      int
	MaxNewPerTick       int
	StaleDropMillis     int64
	AdaptiveTickSeconds int
	PoolSize            int
}

// NewManager builds a Manager and starts its adaptive-tick scheduler.
func NewManager(cfg ManagerConfig, mx *metrics.Registry) *Manager {
	tick := time.Duration(cfg.AdaptiveTickSeconds) * time.Second
	if tick <= 0 {
		tick = 60 * time.Second
	}
	m := &Manager{
		indexes:           make(map[string]map[string]map[string]SecondaryIndex),
		segments:          make(map[string]map[string]segmentMeta),
		Catalog:           NewCatalog(),
		Policy:            NewPolicy(DefaultWindowMillis, DefaultMaxObservations),
		Builder:           NewBuilder(cfg.PoolSize, mx),
		memoryBudgetBytes: int64(cfg.MemoryBudgetMB) * 1024 * 1024,
		maxNewPerTick:     cfg.MaxNewPerTick,
		staleDropMillis:   cfg.StaleDropMillis,
		tickInterval:      tick,
		stopCh:            make(chan struct{}),
	}
	m.wg.Add(1)
	go m.tickLoop()
	return m
}

func (m *Manager) tickLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.AdaptiveTick()
		case <-m.stopCh:
			return
		}
	}
}

// RegisterSegment records segment metadata ahead of any index build over it.
func (m *Manager) RegisterSegment(table, segmentID string, offset, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.segments[table] == nil {
		m.segments[table] = make(map[string]segmentMeta)
	}
	m.segments[table][segmentID] = segmentMeta{rowCount: count, createdAt: time.Now()}
}

// UnregisterSegment removes segment metadata and every index keyed by that
// segment, under the write lock.
func (m *Manager) UnregisterSegment(table, segmentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.segments[table], segmentID)
	for _, bySegment := range m.indexes[table] {
		delete(bySegment, segmentID)
	}
}

// OnSegmentFlushed builds, off the critical path, every index currently
// marked desired on table, installing each under the write lock once its
// build completes successfully. A failed build is logged and otherwise
// ignored: the (table,column,segment) triple simply has no index and
// queries fall back to a scan, per spec §4.9's propagation rule.
func (m *Manager) OnSegmentFlushed(table, segmentID string, rows []event.Row) {
	columns := m.Catalog.ListAll(table)
	for _, column := range columns {
		column := column
		idx := NewIndex(table, column, segmentID, len(rows))
		start := time.Now()
		future := m.Builder.SubmitBuild(idx, rows)
		go func() {
			err := future.Wait()
			cost := time.Since(start).Milliseconds()
			m.Catalog.RecordBuildCost(table, column, cost)
			if err != nil {
				logutil.SlowQueryZapLogger.Warn("index build failed",
					zap.String("table", table), zap.String("column", column),
					zap.String("segment", segmentID), zap.Error(err))
				return
			}
			m.install(table, column, segmentID, idx)
		}()
	}
}

func (m *Manager) install(table, column, segmentID string, idx SecondaryIndex) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexes[table] == nil {
		m.indexes[table] = make(map[string]map[string]SecondaryIndex)
	}
	if m.indexes[table][column] == nil {
		m.indexes[table][column] = make(map[string]SecondaryIndex)
	}
	m.indexes[table][column][segmentID] = idx
}

// EnsureIndex marks (table,column) desired and reports whether an index is
// already installed for at least one segment.
func (m *Manager) EnsureIndex(table, column string) bool {
	m.Catalog.MarkDesired(table, column)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.indexes[table][column]) > 0
}

// DropIndex unmarks (table,column) desired and removes every per-segment
// index built for it.
func (m *Manager) DropIndex(table, column string) {
	m.Catalog.UnmarkDesired(table, column)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexes[table] != nil {
		delete(m.indexes[table], column)
	}
}

// Lookup dispatches query to every segment's index for (table,column) and
// unions the results. Missing table/column yields an empty, inexact
// result rather than an error.
func (m *Manager) Lookup(table, column string, query Query) LookupResult {
	m.mu.RLock()
	bySegment := m.indexes[table][column]
	segs := make(map[string]SecondaryIndex, len(bySegment))
	for id, idx := range bySegment {
		segs[id] = idx
	}
	m.mu.RUnlock()

	if len(segs) == 0 {
		return LookupResult{Matches: map[string]IntSet{}, Exact: false}
	}

	matches := make(map[string]IntSet, len(segs))
	exact := true
	considered := 0
	for id, idx := range segs {
		considered++
		set, segExact, err := dispatch(idx, query)
		if err != nil {
			exact = false
			continue
		}
		exact = exact && segExact
		matches[id] = set
	}
	m.Catalog.RecordHit(table, column)
	return LookupResult{Matches: matches, Exact: exact, RowsConsidered: considered}
}

func dispatch(idx SecondaryIndex, query Query) (IntSet, bool, error) {
	switch query.Kind {
	case QueryEquals:
		return idx.LookupEquals(query.Value), true, nil
	case QueryIn:
		return idx.LookupIn(query.Values), true, nil
	case QueryRange:
		set, err := idx.LookupRange(query.Range)
		if err != nil {
			return nil, false, err
		}
		return set, true, nil
	default:
		return NewSparseSet(), false, nil
	}
}

// RecordQueryUsage forwards an index usage signal for (table, column) to
// the policy with a fixed 0.1 selectivity, separate from the planner's
// per-predicate Observer heuristics in sql/plan.Planner: it records "this
// column was worth having an index for" rather than estimating row
// selectivity. Nothing in the engine calls it automatically; neither
// Lookup nor the query path invokes it.
func (m *Manager) RecordQueryUsage(table, column string) {
	m.Policy.Observe(table, column, false, 0.1)
}

// AdaptiveTick consults the policy for every known table and applies its
// build/drop recommendations.
func (m *Manager) AdaptiveTick() {
	m.mu.RLock()
	tables := make([]string, 0, len(m.segments))
	for table := range m.segments {
		tables = append(tables, table)
	}
	m.mu.RUnlock()

	for _, table := range tables {
		for _, column := range m.Policy.RecommendBuild(table, m.memoryBudgetBytes, m.maxNewPerTick) {
			m.EnsureIndex(table, column)
		}
		desired := m.Catalog.ListAll(table)
		for _, column := range m.Policy.RecommendDrop(table, desired, len(desired), m.staleDropMillis) {
			m.DropIndex(table, column)
		}
	}
}

// Stats reports a flat summary: total indexes installed, desired columns,
// and in-flight builder tasks, suitable for get_storage_stats.
func (m *Manager) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, byColumn := range m.indexes {
		for _, bySegment := range byColumn {
			total += len(bySegment)
		}
	}
	return map[string]interface{}{
		"installed_indexes":  total,
		"desired_columns":    m.Catalog.Stats(),
		"active_build_tasks": int(m.Builder.ActiveTasks()),
	}
}

// Shutdown cancels the tick scheduler and shuts down the builder pool.
func (m *Manager) Shutdown() {
	m.once.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	m.Builder.Shutdown()
}
