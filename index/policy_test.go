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

import "testing"

func TestPolicyRecommendBuildRanksHighQPSColumnFirst(t *testing.T) {
	p := NewPolicy(DefaultWindowMillis, DefaultMaxObservations)
	for i := 0; i < 50; i++ {
		p.Observe("events", "userId", false, 0.05)
	}
	for i := 0; i < 2; i++ {
		p.Observe("events", "region", false, 0.3)
	}
	got := p.RecommendBuild("events", 10_000_000, 2)
	if len(got) == 0 || got[0] != "userId" {
		t.Fatalf("expected userId ranked first, got %v", got)
	}
}

func TestPolicyRecommendBuildRespectsMemoryBudget(t *testing.T) {
	p := NewPolicy(DefaultWindowMillis, DefaultMaxObservations)
	for i := 0; i < 100; i++ {
		p.Observe("events", "userId", false, 0.01)
	}
	got := p.RecommendBuild("events", 1, 5)
	if len(got) != 0 {
		t.Fatalf("expected no candidates to fit a 1-byte budget, got %v", got)
	}
}

func TestPolicyRecommendBuildCapsAtMaxNew(t *testing.T) {
	p := NewPolicy(DefaultWindowMillis, DefaultMaxObservations)
	p.Observe("events", "a", false, 0.5)
	p.Observe("events", "b", false, 0.5)
	p.Observe("events", "c", false, 0.5)
	got := p.RecommendBuild("events", 10_000_000, 1)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 candidate, got %v", got)
	}
}

func TestPolicyRecommendDropFlagsColumnsWithNoObservations(t *testing.T) {
	p := NewPolicy(DefaultWindowMillis, DefaultMaxObservations)
	p.Observe("events", "region", false, 0.3)
	got := p.RecommendDrop("events", []string{"region", "neverObserved"}, 10, 60000)
	found := false
	for _, c := range got {
		if c == "neverObserved" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected neverObserved to be flagged for drop, got %v", got)
	}
}

func TestPolicyObservePrunesOverCap(t *testing.T) {
	p := NewPolicy(DefaultWindowMillis, 5)
	for i := 0; i < 20; i++ {
		p.Observe("events", "region", false, 0.2)
	}
	if len(p.observations[columnKey{"events", "region"}]) > 5 {
		t.Fatalf("expected observations capped at 5, got %d", len(p.observations[columnKey{"events", "region"}]))
	}
}
