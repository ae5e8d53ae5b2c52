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

// ResolveKind picks the SecondaryIndex variant on_segment_flushed builds
// for a given column: BTree for ts or a numeric-looking props column,
// Bitmap otherwise. This is a fixed rule rather than a search over
// alternatives: resolve against what's supported, with no further
// negotiation.
func ResolveKind(column string) Kind {
	if IsNumericColumn(column) {
		return KindBTree
	}
	return KindBitmap
}

// NewIndex constructs the unbuilt SecondaryIndex of the kind ResolveKind
// selects for column.
func NewIndex(table, column, segmentID string, rowCount int) SecondaryIndex {
	if ResolveKind(column) == KindBTree {
		return NewBTree(table, column, segmentID)
	}
	return NewBitmap(table, column, segmentID, rowCount)
}
