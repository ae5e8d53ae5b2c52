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
	"fmt"

	"github.com/ekjotsingh/veloq/event"
)

// Kind tags which SecondaryIndex variant backs a given per-segment index.
type Kind int

// Index kinds.
const (
	KindBitmap Kind = iota
	KindBTree
)

// RangeQuery is a closed/open interval probe; IncludeLo/IncludeHi select
// whether the respective bound is inclusive.
type RangeQuery struct {
	Lo, Hi             float64
	IncludeLo, IncludeHi bool
}

// SecondaryIndex is the shared contract both variants in spec §4.7
// implement: identity, build, the three lookup shapes, and introspection.
type SecondaryIndex interface {
	Table() string
	Column() string
	SegmentID() string
	Kind() Kind
	Build(rows []event.Row) error
	LookupEquals(value string) IntSet
	LookupIn(values []string) IntSet
	LookupRange(q RangeQuery) (IntSet, error)
	MemoryBytes() int64
	Stats() IndexStats
}

// IndexStats is the introspection surface every SecondaryIndex exposes.
type IndexStats struct {
	Kind         Kind
	EntryCount   int
	MemoryBytes  int64
}

// ErrUnsupportedLookup is returned by a Bitmap index for a range probe,
// which it has no ordering to serve; the caller falls back to a scan.
var ErrUnsupportedLookup = fmt.Errorf("index: lookup kind not supported by this index variant")

// Bitmap indexes a low-to-medium cardinality string-valued column: one
// IntSet of segment-local row positions per distinct value.
type Bitmap struct {
	table, column, segmentID string
	buckets                  map[string]IntSet
	rowCount                 int
}

// NewBitmap builds an unbuilt Bitmap index identity; call Build to populate it.
func NewBitmap(table, column, segmentID string, rowCount int) *Bitmap {
	return &Bitmap{table: table, column: column, segmentID: segmentID, rowCount: rowCount}
}

func (b *Bitmap) Table() string     { return b.table }
func (b *Bitmap) Column() string    { return b.column }
func (b *Bitmap) SegmentID() string { return b.segmentID }
func (b *Bitmap) Kind() Kind        { return KindBitmap }

// Build scans rows in order, resolving the indexed column's string value
// for each and setting the row's segment-local position into that value's
// bucket; rows whose value is null are skipped.
func (b *Bitmap) Build(rows []event.Row) error {
	buckets := make(map[string]IntSet)
	for pos, row := range rows {
		raw, _ := row.Get(b.column)
		if raw == nil {
			continue
		}
		key := toStringValue(raw)
		set, ok := buckets[key]
		if !ok {
			set = NewSparseSet()
			buckets[key] = set
		}
		set.Add(pos)
	}
	b.buckets = buckets
	return nil
}

// LookupEquals returns the bucket for value, or an empty set.
func (b *Bitmap) LookupEquals(value string) IntSet {
	if set, ok := b.buckets[value]; ok {
		return set
	}
	return NewSparseSet()
}

// LookupIn unions the buckets of every requested value.
func (b *Bitmap) LookupIn(values []string) IntSet {
	out := IntSet(NewSparseSet())
	for _, v := range values {
		out = out.Union(b.LookupEquals(v))
	}
	return out
}

// LookupRange always fails: a Bitmap carries no ordering over its keys.
func (b *Bitmap) LookupRange(RangeQuery) (IntSet, error) {
	return nil, ErrUnsupportedLookup
}

// MemoryBytes estimates bytes retained: roughly one word per indexed row
// position across all buckets.
func (b *Bitmap) MemoryBytes() int64 {
	n := 0
	for _, set := range b.buckets {
		n += set.Size()
	}
	return int64(n) * 8
}

// Stats reports entry count (distinct bucket keys) and memory estimate.
func (b *Bitmap) Stats() IndexStats {
	return IndexStats{Kind: KindBitmap, EntryCount: len(b.buckets), MemoryBytes: b.MemoryBytes()}
}

func toStringValue(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
