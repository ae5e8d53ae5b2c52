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

// Package store holds the ColumnStore: the authoritative in-memory record
// of all ingested events, partitioned by table. Each table's sequence is
// guarded by its own mutex so that appenders and scanners across different
// tables never contend, mirroring the per-key locking discipline of the
// teacher's in-memory KV layer (kv.UnionStore / store/tikv scanning).
package store

import (
	"sync"
	"sync/atomic"

	"github.com/ekjotsingh/veloq/event"
)

// table is one logical partition: an append-only, mutex-guarded slice of
// events.
type table struct {
	mu     sync.Mutex
	events []event.Event
}

// ColumnStore is the columnar in-memory store described in spec §4.1.
type ColumnStore struct {
	mu     sync.RWMutex // guards the tables map itself, not its contents
	tables map[string]*table

	totalEvents uint64
	totalBatches uint64
}

// New builds an empty ColumnStore.
func New() *ColumnStore {
	return &ColumnStore{tables: make(map[string]*table)}
}

func (s *ColumnStore) getOrCreateTable(name string) *table {
	s.mu.RLock()
	t, ok := s.tables[name]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok = s.tables[name]; ok {
		return t
	}
	t = &table{}
	s.tables[name] = t
	return t
}

// AppendBatch groups events by table (substituting the default when
// absent) and appends each group atomically with respect to concurrent
// scanners of that table. It returns the per-table row offsets the events
// landed at, keyed by table, for callers (the ingest path) that need to
// register a Segment over exactly the rows this call added.
func (s *ColumnStore) AppendBatch(events []event.Event) map[string]SegmentSpan {
	grouped := make(map[string][]event.Event, 1)
	for _, e := range events {
		e.Normalize()
		grouped[e.Table] = append(grouped[e.Table], e)
	}

	spans := make(map[string]SegmentSpan, len(grouped))
	for name, group := range grouped {
		t := s.getOrCreateTable(name)
		t.mu.Lock()
		offset := len(t.events)
		t.events = append(t.events, group...)
		t.mu.Unlock()
		spans[name] = SegmentSpan{Offset: offset, Count: len(group)}
	}

	atomic.AddUint64(&s.totalEvents, uint64(len(events)))
	atomic.AddUint64(&s.totalBatches, 1)
	return spans
}

// SegmentSpan is the row range a single AppendBatch call contributed to one
// table, returned so the ingest path can register a Segment over exactly
// those rows.
type SegmentSpan struct {
	Offset int
	Count  int
}

// Filter decides whether a row is admitted by a scan; it is the residual
// predicate the executor passes down, or nil for an unconditional scan.
type Filter func(event.Row) bool

// Scan returns rows of table whose ts lies in [fromTS, toTS] and for which
// filter (if non-nil) returns true. Order of yield is insertion order.
// Unknown tables yield the empty sequence, never an error. The snapshot is
// taken under the table's mutex and then iterated without holding it, so
// scanners never block appenders (or each other) for the full scan
// duration.
func (s *ColumnStore) Scan(tableName string, fromTS, toTS int64, filter Filter) []event.Row {
	s.mu.RLock()
	t, ok := s.tables[tableName]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	t.mu.Lock()
	snapshot := make([]event.Event, len(t.events))
	copy(snapshot, t.events)
	t.mu.Unlock()

	rows := make([]event.Row, 0, len(snapshot))
	for i := range snapshot {
		e := &snapshot[i]
		if e.TS < fromTS || e.TS > toTS {
			continue
		}
		row := event.NewRow(e)
		if filter != nil && !filter(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// RowsInSegment returns the local-position slice of events owned by a
// segment, [offset, offset+count) clipped to the table's length.
func (s *ColumnStore) RowsInSegment(tableName string, offset, count int) []event.Row {
	s.mu.RLock()
	t, ok := s.tables[tableName]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	t.mu.Lock()
	end := offset + count
	if end > len(t.events) {
		end = len(t.events)
	}
	if offset > end {
		offset = end
	}
	snapshot := make([]event.Event, end-offset)
	copy(snapshot, t.events[offset:end])
	t.mu.Unlock()

	rows := make([]event.Row, len(snapshot))
	for i := range snapshot {
		rows[i] = event.NewRow(&snapshot[i])
	}
	return rows
}

// Stats is the snapshot ColumnStore.Stats() returns and
// get_storage_stats() reports: totals plus per-table counts.
type Stats struct {
	TotalEvents  uint64
	TotalBatches uint64
	PerTable     map[string]int
}

// Stats reports totals plus per-table row counts.
func (s *ColumnStore) Stats() Stats {
	s.mu.RLock()
	names := make([]string, 0, len(s.tables))
	tabs := make([]*table, 0, len(s.tables))
	for name, t := range s.tables {
		names = append(names, name)
		tabs = append(tabs, t)
	}
	s.mu.RUnlock()

	perTable := make(map[string]int, len(names))
	for i, name := range names {
		t := tabs[i]
		t.mu.Lock()
		perTable[name] = len(t.events)
		t.mu.Unlock()
	}

	return Stats{
		TotalEvents:  atomic.LoadUint64(&s.totalEvents),
		TotalBatches: atomic.LoadUint64(&s.totalBatches),
		PerTable:     perTable,
	}
}

// Size returns the total number of events across all tables.
func (s *ColumnStore) Size() int {
	return int(atomic.LoadUint64(&s.totalEvents))
}

// TableNames lists every table that has received at least one append.
func (s *ColumnStore) TableNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	return names
}

// Clear drops every table and resets counters; used by tests.
func (s *ColumnStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]*table)
	atomic.StoreUint64(&s.totalEvents, 0)
	atomic.StoreUint64(&s.totalBatches, 0)
}
