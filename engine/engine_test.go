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

package engine

import (
	"testing"
	"time"

	"github.com/ekjotsingh/veloq/config"
	"github.com/ekjotsingh/veloq/event"
	"github.com/ekjotsingh/veloq/query"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Ingest.BatchSize = 2
	cfg.Ingest.FlushIntervalMillis = 20
	cfg.Index.AdaptiveTickSeconds = 3600
	e := New(cfg)
	t.Cleanup(e.Close)
	return e
}

func TestEngineSubmitFlushesAndIsQueryable(t *testing.T) {
	e := testEngine(t)
	accepted := e.Submit([]event.Event{
		event.NewWithTS(1000, "events", "u1", "click", map[string]string{"region": "us"}),
		event.NewWithTS(2000, "events", "u2", "purchase", map[string]string{"region": "eu"}),
	})
	if accepted != 2 {
		t.Fatalf("expected 2 accepted events, got %d", accepted)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && e.Query.GetTotalEventCount() < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	if got := e.Query.GetTotalEventCount(); got != 2 {
		t.Fatalf("expected 2 events visible to the query service, got %d", got)
	}

	res, err := e.Query.Execute(query.Request{SQL: "SELECT userId FROM events WHERE region = 'us'"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
}

func TestEngineGetTableNamesAfterIngest(t *testing.T) {
	e := testEngine(t)
	e.Submit([]event.Event{event.NewWithTS(1000, "purchases", "u1", "buy", nil)})
	e.Ingest.Flush()

	names := e.Query.GetTableNames()
	if len(names) != 1 || names[0] != "purchases" {
		t.Fatalf("expected [purchases], got %v", names)
	}
}

func TestEngineIndexStatsTracksBuiltIndex(t *testing.T) {
	e := testEngine(t)
	e.indexes.Catalog.MarkDesired("events", "region")
	e.Submit([]event.Event{
		event.NewWithTS(1000, "events", "u1", "click", map[string]string{"region": "us"}),
		event.NewWithTS(2000, "events", "u2", "click", map[string]string{"region": "eu"}),
	})
	e.Ingest.Flush()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if e.IndexStats()["installed_indexes"].(int) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := e.IndexStats()["installed_indexes"].(int); got == 0 {
		t.Fatal("expected at least one installed index after a flush")
	}
}

func TestEngineMetricsSnapshotReportsIngestCounters(t *testing.T) {
	e := testEngine(t)
	e.Submit([]event.Event{event.NewWithTS(1000, "events", "u1", "click", nil)})
	e.Ingest.Flush()

	snap := e.MetricsSnapshot()
	if snap["veloq_ingest_accepted_total"] < 1 {
		t.Fatalf("expected at least 1 accepted event in metrics, got %+v", snap)
	}
}

func TestEngineCloseOnDefaultConfig(t *testing.T) {
	cfg := config.Default()
	e := New(cfg)
	e.Close()
}
