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
	"math"
	"sort"
	"sync"
	"time"
)

// Default tunables for AdaptiveIndexPolicy, spec §4.10.
const (
	DefaultWindowMillis   = 60000
	DefaultMaxObservations = 1000
)

// Score weights, spec §4.10.
const (
	weightQPS         = 1.0
	weightSelectivity = 2.0
	weightEquals      = 1.5
	weightRange       = 2.0
	weightCardinality = 0.5
)

type observation struct {
	at          time.Time
	isRange     bool
	selectivity float64
}

type columnKey struct {
	table, column string
}

// Policy is the AdaptiveIndexPolicy of spec §4.10: a rolling window of
// observed predicates per (table,column), scored to rank build candidates
// and flag unused columns for drop. Observations are pruned on every
// append rather than on a timer, so the bounded history never needs a
// separate sweep.
type Policy struct {
	mu           sync.Mutex
	observations map[columnKey][]observation
	windowMillis int64
	maxObs       int
}

// NewPolicy builds a Policy with the given window/cap, substituting the
// spec defaults for non-positive values.
func NewPolicy(windowMillis int64, maxObservations int) *Policy {
	if windowMillis <= 0 {
		windowMillis = DefaultWindowMillis
	}
	if maxObservations <= 0 {
		maxObservations = DefaultMaxObservations
	}
	return &Policy{
		observations: make(map[columnKey][]observation),
		windowMillis: windowMillis,
		maxObs:       maxObservations,
	}
}

// Observe records one predicate sighting, implementing the Observer
// interface the planner forwards predicates to.
func (p *Policy) Observe(table, column string, isRange bool, selectivity float64) {
	key := columnKey{table, column}
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	list := append(p.observations[key], observation{at: now, isRange: isRange, selectivity: selectivity})
	list = pruneWindow(list, now, p.windowMillis)
	if len(list) > p.maxObs {
		list = list[len(list)-p.maxObs:]
	}
	p.observations[key] = list
}

func pruneWindow(list []observation, now time.Time, windowMillis int64) []observation {
	cutoff := now.Add(-time.Duration(windowMillis) * time.Millisecond)
	i := 0
	for i < len(list) && list[i].at.Before(cutoff) {
		i++
	}
	if i == 0 {
		return list
	}
	return append([]observation{}, list[i:]...)
}

type candidate struct {
	column      string
	score       float64
	memoryBytes int64
}

// RecommendBuild ranks every observed column of table by score and
// greedily packs up to maxNew of them within memBudgetBytes, following
// spec §4.10's weighted-sum formula.
func (p *Policy) RecommendBuild(table string, memBudgetBytes int64, maxNew int) []string {
	p.mu.Lock()
	snapshot := make(map[string][]observation)
	for key, list := range p.observations {
		if key.table != table {
			continue
		}
		snapshot[key.column] = append([]observation{}, list...)
	}
	windowMillis := p.windowMillis
	p.mu.Unlock()

	candidates := make([]candidate, 0, len(snapshot))
	now := time.Now()
	for column, list := range snapshot {
		list = pruneWindow(list, now, windowMillis)
		if len(list) == 0 {
			continue
		}
		candidates = append(candidates, candidate{
			column:      column,
			score:       score(list, windowMillis),
			memoryBytes: estimateMemory(column, list),
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	var out []string
	var spent int64
	for _, c := range candidates {
		if len(out) >= maxNew {
			break
		}
		if spent+c.memoryBytes > memBudgetBytes {
			continue
		}
		out = append(out, c.column)
		spent += c.memoryBytes
	}
	return out
}

func score(list []observation, windowMillis int64) float64 {
	n := float64(len(list))
	qps := n * 1000 / float64(windowMillis)

	var selSum float64
	var eqCount, rangeCount float64
	for _, o := range list {
		selSum += o.selectivity
		if o.isRange {
			rangeCount++
		} else {
			eqCount++
		}
	}
	avgSel := selSum / n
	eqRatio := eqCount / n
	rangeRatio := rangeCount / n
	cardinality := 1 / math.Max(0.001, avgSel)

	return weightQPS*qps +
		weightSelectivity*(1-avgSel) +
		weightEquals*eqRatio +
		weightRange*rangeRatio -
		weightCardinality*math.Log10(math.Max(1, cardinality))
}

func estimateMemory(column string, list []observation) int64 {
	if IsNumericColumn(column) {
		hasRange := false
		for _, o := range list {
			if o.isRange {
				hasRange = true
				break
			}
		}
		if hasRange {
			return int64(20 * len(list))
		}
	}
	var selSum float64
	for _, o := range list {
		selSum += o.selectivity
	}
	avgSel := selSum / float64(len(list))
	cardinality := 1 / math.Max(0.001, avgSel)
	return int64(100 * cardinality)
}

// RecommendDrop returns columns whose newest observation predates
// stale_millis, or which have no observations at all — capped at maxDrop.
func (p *Policy) RecommendDrop(table string, desired []string, maxDrop int, staleMillis int64) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(staleMillis) * time.Millisecond)
	var stale []string
	for _, column := range desired {
		list := p.observations[columnKey{table, column}]
		if len(list) == 0 {
			stale = append(stale, column)
			continue
		}
		newest := list[len(list)-1].at
		if newest.Before(cutoff) {
			stale = append(stale, column)
		}
	}
	if maxDrop > 0 && len(stale) > maxDrop {
		stale = stale[:maxDrop]
	}
	return stale
}
