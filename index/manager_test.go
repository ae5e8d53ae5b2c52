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
	"testing"
	"time"

	"github.com/ekjotsingh/veloq/internal/metrics"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(ManagerConfig{
		MemoryBudgetMB:      64,
		MaxNewPerTick:       4,
		StaleDropMillis:     60_000,
		AdaptiveTickSeconds: 3600,
		PoolSize:            2,
	}, metrics.New())
	t.Cleanup(m.Shutdown)
	return m
}

func waitForInstalled(t *testing.T, m *Manager, table, column string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.EnsureIndex(table, column) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("index on (%s,%s) was never installed", table, column)
}

func TestManagerRegisterAndUnregisterSegment(t *testing.T) {
	m := testManager(t)
	m.RegisterSegment("events", "seg-1", 0, 4)
	m.mu.RLock()
	_, ok := m.segments["events"]["seg-1"]
	m.mu.RUnlock()
	if !ok {
		t.Fatal("expected segment metadata to be recorded")
	}

	m.UnregisterSegment("events", "seg-1")
	m.mu.RLock()
	_, ok = m.segments["events"]["seg-1"]
	m.mu.RUnlock()
	if ok {
		t.Fatal("expected segment metadata to be removed")
	}
}

func TestManagerOnSegmentFlushedBuildsAndInstallsDesiredColumn(t *testing.T) {
	m := testManager(t)
	m.Catalog.MarkDesired("events", "region")
	m.RegisterSegment("events", "seg-1", 0, 4)

	m.OnSegmentFlushed("events", "seg-1", seedRows())
	waitForInstalled(t, m, "events", "region")

	res := m.Lookup("events", "region", Query{Kind: QueryEquals, Value: "us"})
	if !res.Exact || res.Matches["seg-1"].Size() != 2 {
		t.Fatalf("expected exact match of size 2, got %+v", res)
	}
}

func TestManagerOnSegmentFlushedSkipsColumnsNotDesired(t *testing.T) {
	m := testManager(t)
	m.RegisterSegment("events", "seg-1", 0, 4)
	m.OnSegmentFlushed("events", "seg-1", seedRows())
	time.Sleep(20 * time.Millisecond)

	res := m.Lookup("events", "region", Query{Kind: QueryEquals, Value: "us"})
	if res.Exact || len(res.Matches) != 0 {
		t.Fatalf("expected no index installed for an undesired column, got %+v", res)
	}
}

func TestManagerEnsureIndexMarksDesiredEvenBeforeBuild(t *testing.T) {
	m := testManager(t)
	installed := m.EnsureIndex("events", "region")
	if installed {
		t.Fatal("expected no index installed yet")
	}
	if !m.Catalog.IsDesired("events", "region") {
		t.Fatal("expected column to be marked desired")
	}
}

func TestManagerDropIndexRemovesInstalledIndex(t *testing.T) {
	m := testManager(t)
	m.Catalog.MarkDesired("events", "region")
	m.RegisterSegment("events", "seg-1", 0, 4)
	m.OnSegmentFlushed("events", "seg-1", seedRows())
	waitForInstalled(t, m, "events", "region")

	m.DropIndex("events", "region")
	if m.Catalog.IsDesired("events", "region") {
		t.Fatal("expected column to no longer be desired")
	}
	res := m.Lookup("events", "region", Query{Kind: QueryEquals, Value: "us"})
	if len(res.Matches) != 0 {
		t.Fatalf("expected no matches after drop, got %+v", res)
	}
}

func TestManagerLookupRangeAgainstBTreeColumn(t *testing.T) {
	m := testManager(t)
	m.Catalog.MarkDesired("events", "price")
	m.RegisterSegment("events", "seg-1", 0, 4)
	m.OnSegmentFlushed("events", "seg-1", seedRows())
	waitForInstalled(t, m, "events", "price")

	res := m.Lookup("events", "price", Query{Kind: QueryRange, Range: RangeQuery{Lo: 10, Hi: 20, IncludeLo: true, IncludeHi: true}})
	if !res.Exact || res.Matches["seg-1"].Size() != 2 {
		t.Fatalf("expected exact match of size 2 for price in [10,20], got %+v", res)
	}
}

func TestManagerLookupOnMissingTableOrColumnIsEmptyAndInexact(t *testing.T) {
	m := testManager(t)
	res := m.Lookup("unknown_table", "region", Query{Kind: QueryEquals, Value: "us"})
	if res.Exact {
		t.Fatal("expected an inexact result for a missing table")
	}
	if len(res.Matches) != 0 {
		t.Fatalf("expected no matches for a missing table, got %+v", res.Matches)
	}
}

func TestManagerRecordQueryUsageForwardsToPolicy(t *testing.T) {
	m := testManager(t)
	for i := 0; i < 60; i++ {
		m.RecordQueryUsage("events", "userId")
	}
	got := m.Policy.RecommendBuild("events", 10_000_000, 5)
	found := false
	for _, c := range got {
		if c == "userId" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected userId to be recommended after repeated usage, got %v", got)
	}
}

func TestManagerAdaptiveTickBuildsThenDropsStaleIndex(t *testing.T) {
	m := testManager(t)
	m.RegisterSegment("events", "seg-1", 0, 4)
	for i := 0; i < 60; i++ {
		m.Policy.Observe("events", "region", false, 0.2)
	}

	m.AdaptiveTick()
	if !m.Catalog.IsDesired("events", "region") {
		t.Fatal("expected AdaptiveTick to mark region desired after a build recommendation")
	}
	m.OnSegmentFlushed("events", "seg-1", seedRows())
	waitForInstalled(t, m, "events", "region")

	got := m.Policy.RecommendDrop("events", m.Catalog.ListAll("events"), 10, 0)
	found := false
	for _, c := range got {
		if c == "region" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected region to be eligible for drop at a zero staleness threshold")
	}

	m.staleDropMillis = 0
	m.AdaptiveTick()
	if m.Catalog.IsDesired("events", "region") {
		t.Fatal("expected AdaptiveTick to drop region once stale")
	}
}

func TestManagerStatsReportsInstalledAndDesiredCounts(t *testing.T) {
	m := testManager(t)
	m.Catalog.MarkDesired("events", "region")
	m.RegisterSegment("events", "seg-1", 0, 4)
	m.OnSegmentFlushed("events", "seg-1", seedRows())
	waitForInstalled(t, m, "events", "region")

	stats := m.Stats()
	if stats["installed_indexes"].(int) != 1 {
		t.Fatalf("expected 1 installed index, got %+v", stats)
	}
	if stats["desired_columns"].(int) != 1 {
		t.Fatalf("expected 1 desired column, got %+v", stats)
	}
}

func TestManagerShutdownStopsTickerAndBuilder(t *testing.T) {
	m := NewManager(ManagerConfig{PoolSize: 1, AdaptiveTickSeconds: 3600}, metrics.New())
	m.Shutdown()
	future := m.Builder.SubmitBuild(NewBitmap("events", "region", "seg-1", 4), seedRows())
	if err := future.Wait(); err == nil {
		t.Fatal("expected an error submitting work to a builder after manager shutdown")
	}
}
