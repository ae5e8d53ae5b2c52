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

package store

import "time"

// SegmentInfo describes a flushed batch: its row count and the position
// range it owns within its table's sequence, [RowOffset, RowOffset+RowCount).
// Neither ColumnStore nor IndexManager stores values of this type.
type SegmentInfo struct {
	ID        string
	Table     string
	RowOffset int
	RowCount  int
	CreatedAt time.Time
}
