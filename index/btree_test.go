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

func TestBTreeBuildAndLookupRange(t *testing.T) {
	bt := NewBTree("events", "price", "seg-1")
	if err := bt.Build(seedRows()); err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	set, err := bt.LookupRange(RangeQuery{Lo: 10, Hi: 20, IncludeLo: true, IncludeHi: true})
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if set.Size() != 2 || !set.Contains(0) || !set.Contains(2) {
		t.Fatalf("expected positions {0,2} for price in [10,20], got size=%d", set.Size())
	}
}

func TestBTreeLookupEqualsMapsToPointRange(t *testing.T) {
	bt := NewBTree("events", "price", "seg-1")
	bt.Build(seedRows())
	set := bt.LookupEquals("25")
	if set.Size() != 1 || !set.Contains(1) {
		t.Fatalf("expected position {1} for price=25, got size=%d", set.Size())
	}
}

func TestBTreeExclusiveBoundsAreHonored(t *testing.T) {
	bt := NewBTree("events", "price", "seg-1")
	bt.Build(seedRows())
	set, _ := bt.LookupRange(RangeQuery{Lo: 10, Hi: 15, IncludeLo: false, IncludeHi: false})
	if set.Size() != 0 {
		t.Fatalf("expected no entries strictly between 10 and 15, got size=%d", set.Size())
	}
}

func TestBTreeSkipsNonNumericValues(t *testing.T) {
	bt := NewBTree("events", "region", "seg-1")
	bt.Build(seedRows())
	if bt.count != 0 {
		t.Fatalf("expected region (non-numeric) to contribute no entries, got %d", bt.count)
	}
}

func TestIsNumericColumnHeuristics(t *testing.T) {
	cases := map[string]bool{
		"ts": true, "timestamp": true, "props.price": true,
		"total_amount": true, "itemCount": true, "region": false, "userId": false,
	}
	for col, want := range cases {
		if got := IsNumericColumn(col); got != want {
			t.Fatalf("IsNumericColumn(%q) = %v, want %v", col, got, want)
		}
	}
}
