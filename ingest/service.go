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

package ingest

import (
	"github.com/ekjotsingh/veloq/event"
	"github.com/ekjotsingh/veloq/store"
)

// Service is the embeddable IngestService named in spec §6: a thin façade
// over Buffer and the ColumnStore for external collaborators (an HTTP
// handler, a websocket bridge, a Kafka consumer) that live outside this
// repo.
type Service struct {
	buffer *Buffer
	store  *store.ColumnStore
}

// NewService wraps buffer/store as a Service.
func NewService(buffer *Buffer, st *store.ColumnStore) *Service {
	return &Service{buffer: buffer, store: st}
}

// Submit forwards to Buffer.Submit; returns the accepted count, or a
// negative overload signal.
func (s *Service) Submit(events []event.Event) int {
	return s.buffer.Submit(events)
}

// Flush forwards to Buffer.Flush.
func (s *Service) Flush() { s.buffer.Flush() }

// Stop forwards to Buffer.Stop.
func (s *Service) Stop() { s.buffer.Stop() }

// Scan forwards to ColumnStore.Scan.
func (s *Service) Scan(table string, from, to int64, filter store.Filter) []event.Row {
	return s.store.Scan(table, from, to, filter)
}

// QueryEvents returns the raw events (not row views) in [from, to] for
// table, for collaborators that want owned copies rather than borrowed
// row views.
func (s *Service) QueryEvents(table string, from, to int64) []event.Event {
	rows := s.store.Scan(table, from, to, nil)
	out := make([]event.Event, len(rows))
	for i, r := range rows {
		out[i] = *r.Source
	}
	return out
}

// Stats reports buffer and store counters together.
func (s *Service) Stats() map[string]interface{} {
	bufStats := s.buffer.Stats()
	storeStats := s.store.Stats()
	return map[string]interface{}{
		"accepted":     bufStats.Accepted,
		"dropped":      bufStats.Dropped,
		"pending":      bufStats.Pending,
		"totalEvents":  storeStats.TotalEvents,
		"totalBatches": storeStats.TotalBatches,
		"perTable":     storeStats.PerTable,
	}
}
