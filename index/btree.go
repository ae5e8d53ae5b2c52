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
	"strconv"
	"strings"

	"github.com/ekjotsingh/veloq/event"
	"github.com/google/btree"
)

const btreeDegree = 32

// btreeEntry is one (value, row position) pair stored in the ordered
// tree; ties on value are broken by position so repeated values each get
// their own entry.
type btreeEntry struct {
	value float64
	pos   int
}

func (e btreeEntry) Less(than btree.Item) bool {
	other := than.(btreeEntry)
	if e.value != other.value {
		return e.value < other.value
	}
	return e.pos < other.pos
}

// BTree indexes a numeric column (ts, or a props.* column whose name
// heuristically suggests numeric content) in sorted order, supporting
// range lookups a Bitmap cannot serve.
type BTree struct {
	table, column, segmentID string
	tree                     *btree.BTree
	count                    int
}

// NewBTree builds an unbuilt BTree index identity; call Build to populate it.
func NewBTree(table, column, segmentID string) *BTree {
	return &BTree{table: table, column: column, segmentID: segmentID, tree: btree.New(btreeDegree)}
}

func (b *BTree) Table() string     { return b.table }
func (b *BTree) Column() string    { return b.column }
func (b *BTree) SegmentID() string { return b.segmentID }
func (b *BTree) Kind() Kind        { return KindBTree }

// Build collects (value, pos) pairs for rows whose column resolves to a
// number (or a numeric-looking string), skipping null or non-numeric
// values, and inserts them into the tree.
func (b *BTree) Build(rows []event.Row) error {
	tree := btree.New(btreeDegree)
	count := 0
	for pos, row := range rows {
		raw, _ := row.Get(b.column)
		v, ok := toFloat(raw)
		if !ok {
			continue
		}
		tree.ReplaceOrInsert(btreeEntry{value: v, pos: pos})
		count++
	}
	b.tree = tree
	b.count = count
	return nil
}

// LookupEquals maps to a closed range of one point.
func (b *BTree) LookupEquals(value string) IntSet {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return NewSparseSet()
	}
	set, _ := b.LookupRange(RangeQuery{Lo: v, Hi: v, IncludeLo: true, IncludeHi: true})
	if set == nil {
		return NewSparseSet()
	}
	return set
}

// LookupIn unions per-value equals lookups.
func (b *BTree) LookupIn(values []string) IntSet {
	out := IntSet(NewSparseSet())
	for _, v := range values {
		out = out.Union(b.LookupEquals(v))
	}
	return out
}

// LookupRange scans entries in [lo,hi] (bounds inclusive/exclusive per the
// flags) and collects their row positions.
func (b *BTree) LookupRange(q RangeQuery) (IntSet, error) {
	out := NewSparseSet()
	lowerBound := btreeEntry{value: q.Lo, pos: -(1 << 31)}
	b.tree.AscendGreaterOrEqual(lowerBound, func(item btree.Item) bool {
		e := item.(btreeEntry)
		if e.value > q.Hi || (e.value == q.Hi && !q.IncludeHi) {
			return false
		}
		if e.value == q.Lo && !q.IncludeLo {
			return true
		}
		out.Add(e.pos)
		return true
	})
	return out, nil
}

// MemoryBytes estimates 20 bytes per indexed entry, matching the adaptive
// policy's BTree memory model in spec §4.10.
func (b *BTree) MemoryBytes() int64 { return int64(b.count) * 20 }

// Stats reports entry count and memory estimate.
func (b *BTree) Stats() IndexStats {
	return IndexStats{Kind: KindBTree, EntryCount: b.count, MemoryBytes: b.MemoryBytes()}
}

// numericHintSubstrings names the props.* name fragments that heuristically
// suggest numeric content, per spec §4.7.
var numericHintSubstrings = []string{"price", "amount", "count", "size"}

// IsNumericColumn reports whether column should be indexed with a BTree:
// the ts column itself, or a property name containing a numeric hint.
func IsNumericColumn(column string) bool {
	lower := strings.ToLower(column)
	if lower == "ts" || lower == "timestamp" {
		return true
	}
	for _, hint := range numericHintSubstrings {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
