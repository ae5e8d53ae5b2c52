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

// Package ingest coalesces event submissions into batches sized for the
// ColumnStore and applies soft backpressure under overload. The scheduler
// loop is a single background goroutine driven by a ticker, with a quit
// channel for cooperative shutdown, even though the work here is flushing
// rather than job processing.
package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/ekjotsingh/veloq/config"
	"github.com/ekjotsingh/veloq/event"
	"github.com/ekjotsingh/veloq/internal/logutil"
	"github.com/ekjotsingh/veloq/internal/metrics"
	"github.com/ekjotsingh/veloq/store"
)

// SegmentRegistrar is notified whenever a flush lands new rows in the
// store, so the index manager can register a Segment and schedule builds.
// Implemented by index.Manager; declared here to avoid an import cycle.
type SegmentRegistrar interface {
	RegisterSegment(table, segmentID string, offset, count int)
	OnSegmentFlushed(table, segmentID string, rows []event.Row)
}

// Overloaded is the negative accepted-count sentinel returned by Submit
// when the staging area already holds 2x batch_size events or more.
const Overloaded = -1

// Buffer is the IngestBuffer described in spec §4.2: a single mutex around
// the pending list, synchronous flush-on-full, and a scheduled background
// flush for buffered events that never reach batch_size.
type Buffer struct {
	cfg   config.IngestConfig
	store *store.ColumnStore
	index SegmentRegistrar
	log   *logutil.LogConfig
	mx    *metrics.Registry

	// admitter shapes submission rate ahead of the hard overload cutoff:
	// Submit blocks on it before touching the pending list, so sustained
	// overload shows up as rising caller latency well before the staging
	// area fills and Submit starts returning Overloaded outright.
	admitter *rate.Limiter

	mu      sync.Mutex
	pending []event.Event

	dropped  atomic.Int64
	accepted atomic.Int64

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// New builds a Buffer that flushes into store and registers segments with
// registrar (normally an *index.Manager).
func New(cfg config.IngestConfig, st *store.ColumnStore, registrar SegmentRegistrar, mx *metrics.Registry) *Buffer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10000
	}
	if cfg.FlushIntervalMillis <= 0 {
		cfg.FlushIntervalMillis = 500
	}
	b := &Buffer{
		cfg:      cfg,
		store:    st,
		index:    registrar,
		mx:       mx,
		admitter: rate.NewLimiter(rate.Limit(cfg.BatchSize*4), cfg.BatchSize*2),
		stopCh:   make(chan struct{}),
	}
	b.wg.Add(1)
	go b.scheduler()
	return b
}

// Submit coalesces events into the pending buffer, flushing synchronously
// if batch_size is reached. It returns the accepted count (== len(events))
// or Overloaded if the staging area already holds >= 2*batch_size events,
// in which case the whole batch is dropped and never touches the store.
//
// Submit first waits on the admitter for len(events) tokens, which throttles
// the caller to the configured sustained rate. A batch larger than the
// limiter's burst can never be satisfied by waiting, so that case falls
// through to the hard overload check below rather than blocking forever.
func (b *Buffer) Submit(events []event.Event) int {
	if len(events) == 0 {
		return 0
	}

	if err := b.admitter.WaitN(context.Background(), minInt(len(events), b.admitter.Burst())); err != nil {
		b.dropped.Add(int64(len(events)))
		if b.mx != nil {
			b.mx.IngestDropped.Add(float64(len(events)))
		}
		logutil.SlowQueryLogger.Warnf("ingest admitter rejected %d events: %v", len(events), err)
		return Overloaded
	}

	b.mu.Lock()
	if len(b.pending) >= 2*b.cfg.BatchSize {
		b.mu.Unlock()
		b.dropped.Add(int64(len(events)))
		if b.mx != nil {
			b.mx.IngestDropped.Add(float64(len(events)))
		}
		logutil.SlowQueryLogger.Warnf("ingest buffer overloaded, dropping %d events", len(events))
		return Overloaded
	}

	b.pending = append(b.pending, events...)
	full := len(b.pending) >= b.cfg.BatchSize
	b.mu.Unlock()

	b.accepted.Add(int64(len(events)))
	if b.mx != nil {
		b.mx.IngestAccepted.Add(float64(len(events)))
	}

	if full {
		b.Flush()
	}
	return len(events)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Flush drains whatever is buffered into the ColumnStore. It is
// best-effort and safe to call concurrently with Submit: the pending slice
// is swapped out under the mutex and delivered to the store after the lock
// is released, so long work never blocks Submit for longer than a slice
// swap.
func (b *Buffer) Flush() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	b.deliver(batch)
}

func (b *Buffer) deliver(batch []event.Event) {
	spans := b.store.AppendBatch(batch)
	if b.mx != nil {
		b.mx.IngestFlushes.Add(1)
	}

	if b.index == nil {
		return
	}
	// Re-derive per-table groups so the segment we register covers exactly
	// the rows this flush contributed, matching the offsets AppendBatch
	// returned.
	byTable := make(map[string][]event.Event, len(spans))
	for _, e := range batch {
		e.Normalize()
		byTable[e.Table] = append(byTable[e.Table], e)
	}
	for table, span := range spans {
		segID := newSegmentID()
		b.index.RegisterSegment(table, segID, span.Offset, span.Count)
		rows := make([]event.Row, len(byTable[table]))
		group := byTable[table]
		for i := range group {
			rows[i] = event.NewRow(&group[i])
		}
		b.index.OnSegmentFlushed(table, segID, rows)
	}
}

func (b *Buffer) scheduler() {
	defer b.wg.Done()
	interval := time.Duration(b.cfg.FlushIntervalMillis) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Stop cancels the scheduler and performs a final flush.
func (b *Buffer) Stop() {
	b.once.Do(func() {
		close(b.stopCh)
	})
	b.wg.Wait()
	b.Flush()
}

// Stats reports the accepted/dropped counters alongside the currently
// buffered (not yet flushed) count.
type Stats struct {
	Accepted int64
	Dropped  int64
	Pending  int
}

// Stats snapshots the buffer's counters.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	pending := len(b.pending)
	b.mu.Unlock()
	return Stats{
		Accepted: b.accepted.Load(),
		Dropped:  b.dropped.Load(),
		Pending:  pending,
	}
}
