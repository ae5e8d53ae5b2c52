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
	"sync"
	"time"
)

// IndexSpec is a catalog entry identified by (table, column); the
// remaining fields are usage metadata the policy and manager consult.
type IndexSpec struct {
	Table           string
	Column          string
	CreatedAt       time.Time
	LastUsedAt      time.Time
	HitCount        int64
	BuildCostMillis int64
}

type catalogKey struct {
	table, column string
}

// Catalog is the thread-safe (table,column) -> IndexSpec map described in
// spec §4.8, guarded by a single RWMutex.
type Catalog struct {
	mu    sync.RWMutex
	specs map[catalogKey]*IndexSpec
}

// NewCatalog builds an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{specs: make(map[catalogKey]*IndexSpec)}
}

// MarkDesired registers (table,column) as desired, creating its IndexSpec
// if absent; a no-op if already desired.
func (c *Catalog) MarkDesired(table, column string) {
	key := catalogKey{table, column}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.specs[key]; ok {
		return
	}
	c.specs[key] = &IndexSpec{Table: table, Column: column, CreatedAt: time.Now()}
}

// UnmarkDesired removes (table,column) from the catalog entirely.
func (c *Catalog) UnmarkDesired(table, column string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.specs, catalogKey{table, column})
}

// IsDesired reports whether (table,column) is currently marked desired.
func (c *Catalog) IsDesired(table, column string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.specs[catalogKey{table, column}]
	return ok
}

// ListAll returns a snapshot of every desired column for table.
func (c *Catalog) ListAll(table string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var cols []string
	for key := range c.specs {
		if key.table == table {
			cols = append(cols, key.column)
		}
	}
	return cols
}

// GetSpec returns a copy of the spec for (table,column), or false if absent.
func (c *Catalog) GetSpec(table, column string) (IndexSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.specs[catalogKey{table, column}]
	if !ok {
		return IndexSpec{}, false
	}
	return *spec, true
}

// RecordHit bumps hit_count and refreshes last_used_at for (table,column);
// a no-op if the pair is not in the catalog (e.g. looked up before ever
// being marked desired).
func (c *Catalog) RecordHit(table, column string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	spec, ok := c.specs[catalogKey{table, column}]
	if !ok {
		return
	}
	spec.HitCount++
	spec.LastUsedAt = time.Now()
}

// RecordBuildCost stores the most recent build duration for (table,column).
func (c *Catalog) RecordBuildCost(table, column string, millis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	spec, ok := c.specs[catalogKey{table, column}]
	if !ok {
		return
	}
	spec.BuildCostMillis = millis
}

// GetStale returns every spec whose last_used_at is older than
// now-thresholdMillis, or which has never been used at all.
func (c *Catalog) GetStale(thresholdMillis int64) []IndexSpec {
	cutoff := time.Now().Add(-time.Duration(thresholdMillis) * time.Millisecond)
	c.mu.RLock()
	defer c.mu.RUnlock()
	var stale []IndexSpec
	for _, spec := range c.specs {
		if spec.LastUsedAt.IsZero() || spec.LastUsedAt.Before(cutoff) {
			stale = append(stale, *spec)
		}
	}
	return stale
}

// Stats returns the total number of desired (table,column) pairs.
func (c *Catalog) Stats() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.specs)
}

// Clear empties the catalog; used by tests.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specs = make(map[catalogKey]*IndexSpec)
}
