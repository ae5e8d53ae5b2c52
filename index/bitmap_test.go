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

	"github.com/ekjotsingh/veloq/event"
)

func seedRows() []event.Row {
	events := []event.Event{
		event.NewWithTS(1000, "events", "u1", "click", map[string]string{"region": "us", "price": "10"}),
		event.NewWithTS(2000, "events", "u2", "purchase", map[string]string{"region": "eu", "price": "25"}),
		event.NewWithTS(3000, "events", "u1", "click", map[string]string{"region": "us", "price": "15"}),
		event.NewWithTS(4000, "events", "u3", "click", map[string]string{"region": "apac", "price": "5"}),
	}
	rows := make([]event.Row, len(events))
	for i := range events {
		rows[i] = event.NewRow(&events[i])
	}
	return rows
}

func TestBitmapBuildAndLookupEquals(t *testing.T) {
	b := NewBitmap("events", "region", "seg-1", 4)
	if err := b.Build(seedRows()); err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	set := b.LookupEquals("us")
	if set.Size() != 2 || !set.Contains(0) || !set.Contains(2) {
		t.Fatalf("expected positions {0,2} for region=us, got size=%d", set.Size())
	}
}

func TestBitmapLookupInUnionsBuckets(t *testing.T) {
	b := NewBitmap("events", "region", "seg-1", 4)
	b.Build(seedRows())
	set := b.LookupIn([]string{"eu", "apac"})
	if set.Size() != 2 || !set.Contains(1) || !set.Contains(3) {
		t.Fatalf("expected positions {1,3}, got size=%d", set.Size())
	}
}

func TestBitmapLookupRangeUnsupported(t *testing.T) {
	b := NewBitmap("events", "region", "seg-1", 4)
	b.Build(seedRows())
	_, err := b.LookupRange(RangeQuery{Lo: 0, Hi: 1})
	if err != ErrUnsupportedLookup {
		t.Fatalf("expected ErrUnsupportedLookup, got %v", err)
	}
}

func TestBitmapSkipsNullProperty(t *testing.T) {
	b := NewBitmap("events", "missingProp", "seg-1", 4)
	b.Build(seedRows())
	if len(b.buckets) != 0 {
		t.Fatalf("expected no buckets for an always-null column, got %d", len(b.buckets))
	}
}
