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
)

func TestCatalogMarkAndIsDesired(t *testing.T) {
	c := NewCatalog()
	if c.IsDesired("events", "region") {
		t.Fatal("expected not desired before marking")
	}
	c.MarkDesired("events", "region")
	if !c.IsDesired("events", "region") {
		t.Fatal("expected desired after marking")
	}
}

func TestCatalogUnmarkRemovesSpec(t *testing.T) {
	c := NewCatalog()
	c.MarkDesired("events", "region")
	c.UnmarkDesired("events", "region")
	if c.IsDesired("events", "region") {
		t.Fatal("expected not desired after unmarking")
	}
}

func TestCatalogRecordHitBumpsCountAndTimestamp(t *testing.T) {
	c := NewCatalog()
	c.MarkDesired("events", "region")
	c.RecordHit("events", "region")
	c.RecordHit("events", "region")
	spec, ok := c.GetSpec("events", "region")
	if !ok || spec.HitCount != 2 {
		t.Fatalf("expected hit count 2, got %+v", spec)
	}
	if spec.LastUsedAt.IsZero() {
		t.Fatal("expected last_used_at to be set")
	}
}

func TestCatalogGetStaleByThreshold(t *testing.T) {
	c := NewCatalog()
	c.MarkDesired("events", "region")
	c.RecordHit("events", "region")
	stale := c.GetStale(0)
	if len(stale) != 1 {
		t.Fatalf("expected 1 stale spec at threshold 0, got %d", len(stale))
	}
	fresh := c.GetStale(int64(time.Hour / time.Millisecond))
	if len(fresh) != 0 {
		t.Fatalf("expected no stale specs under a 1h threshold, got %d", len(fresh))
	}
}

func TestCatalogListAllScopesByTable(t *testing.T) {
	c := NewCatalog()
	c.MarkDesired("events", "region")
	c.MarkDesired("purchases", "sku")
	cols := c.ListAll("events")
	if len(cols) != 1 || cols[0] != "region" {
		t.Fatalf("expected [region], got %v", cols)
	}
}

func TestCatalogClear(t *testing.T) {
	c := NewCatalog()
	c.MarkDesired("events", "region")
	c.Clear()
	if c.Stats() != 0 {
		t.Fatalf("expected empty catalog after Clear, got %d", c.Stats())
	}
}
