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

package exec

import (
	"sort"
	"strings"

	"github.com/ekjotsingh/veloq/event"
	"github.com/ekjotsingh/veloq/sql/plan"
	"github.com/ekjotsingh/veloq/store"
)

// RowSource is the scan surface the executor needs; store.ColumnStore
// satisfies it directly. Declared here, not imported from store, so a test
// double can stand in without touching the store package.
type RowSource interface {
	Scan(table string, from, to int64, filter store.Filter) []event.Row
}

// QueryResult is the tuple-at-a-time executor's output: a fixed column
// list plus rows of typed Values, alongside the scanned/matched counters
// spec §4.4 asks EXPLAIN and slow-query logging to report.
type QueryResult struct {
	Columns     []string
	Rows        [][]Value
	ScannedRows int
	MatchedRows int
}

// Run executes p against src end to end: Scan, optional Aggregate,
// Project, optional OrderBy, optional Limit.
func Run(src RowSource, p *plan.Plan) *QueryResult {
	scanned, matched := 0, 0
	filter := func(r event.Row) bool {
		scanned++
		ok := Eval(p.Scan.Residual, r)
		if ok {
			matched++
		}
		return ok
	}
	rows := src.Scan(p.Scan.Table, p.Scan.From, p.Scan.To, filter)

	var columns []string
	var out [][]Value

	if p.Aggregate != nil {
		columns, out = runAggregate(rows, p.Aggregate, p.Project)
	} else {
		columns, out = runPlain(rows, p.Project)
	}

	if p.OrderBy != nil {
		applyOrderBy(columns, out, p.OrderBy)
	}
	if p.Limit != nil && int64(len(out)) > p.Limit.N {
		if p.Limit.N < 0 {
			out = out[:0]
		} else {
			out = out[:p.Limit.N]
		}
	}

	return &QueryResult{Columns: columns, Rows: out, ScannedRows: scanned, MatchedRows: matched}
}

const groupKeySep = "\x1f"

type groupState struct {
	keyValues map[string]Value
	accs      []accumulator
}

func runAggregate(rows []event.Row, agg *plan.AggregateStage, project plan.ProjectStage) ([]string, [][]Value) {
	order := make([]string, 0)
	groups := make(map[string]*groupState)

	for _, row := range rows {
		var keyParts []string
		keyValues := make(map[string]Value, len(agg.GroupBy))
		for _, col := range agg.GroupBy {
			raw, _ := row.Get(col)
			v := FromRaw(raw)
			keyValues[col] = v
			keyParts = append(keyParts, v.AsString())
		}
		key := strings.Join(keyParts, groupKeySep)

		g, ok := groups[key]
		if !ok {
			accs := make([]accumulator, len(agg.Aggs))
			for i, spec := range agg.Aggs {
				accs[i] = newAccumulator(spec)
			}
			g = &groupState{keyValues: keyValues, accs: accs}
			groups[key] = g
			order = append(order, key)
		}
		for _, acc := range g.accs {
			acc.Update(row)
		}
	}

	columns := aggregateOutputColumns(agg, project)
	outRows := make([][]Value, 0, len(order))
	for _, key := range order {
		g := groups[key]
		values := make(map[string]Value, len(agg.GroupBy)+len(agg.Aggs))
		for col, v := range g.keyValues {
			values[col] = v
		}
		for i, spec := range agg.Aggs {
			values[spec.Alias] = g.accs[i].Result()
		}
		outRows = append(outRows, projectFromMap(values, columns))
	}
	return columns, outRows
}

// aggregateOutputColumns resolves the final column order: Star expands to
// every GROUP BY column followed by every aggregate alias, in declaration
// order; otherwise the Project stage's specs (already resolved to
// group-by columns and aggregate aliases by the planner) name it exactly.
func aggregateOutputColumns(agg *plan.AggregateStage, project plan.ProjectStage) []string {
	if len(project.Specs) == 1 && project.Specs[0].Star {
		cols := append([]string{}, agg.GroupBy...)
		for _, spec := range agg.Aggs {
			cols = append(cols, spec.Alias)
		}
		return cols
	}
	cols := make([]string, len(project.Specs))
	for i, spec := range project.Specs {
		cols[i] = spec.OutputName()
	}
	return cols
}

func projectFromMap(values map[string]Value, columns []string) []Value {
	out := make([]Value, len(columns))
	for i, col := range columns {
		out[i] = values[col]
	}
	return out
}

func runPlain(rows []event.Row, project plan.ProjectStage) ([]string, [][]Value) {
	columns := plainOutputColumns(project)
	specs := plainSpecs(project)
	out := make([][]Value, len(rows))
	for i, row := range rows {
		vals := make([]Value, len(specs))
		for j, spec := range specs {
			raw, _ := row.Get(spec.Column)
			vals[j] = FromRaw(raw)
		}
		out[i] = vals
	}
	return columns, out
}

func plainOutputColumns(project plan.ProjectStage) []string {
	if len(project.Specs) == 1 && project.Specs[0].Star {
		return append([]string{}, event.BaseColumns...)
	}
	cols := make([]string, len(project.Specs))
	for i, spec := range project.Specs {
		cols[i] = spec.OutputName()
	}
	return cols
}

func plainSpecs(project plan.ProjectStage) []plan.ProjectSpec {
	if len(project.Specs) == 1 && project.Specs[0].Star {
		specs := make([]plan.ProjectSpec, len(event.BaseColumns))
		for i, col := range event.BaseColumns {
			specs[i] = plan.ProjectSpec{Column: col}
		}
		return specs
	}
	return project.Specs
}

// applyOrderBy stably sorts out in place by comparing the Values at each
// ORDER BY item's column index. A column that isn't present in the
// projected output (should not occur for grammar this restricted) is
// treated as equal on that key, leaving prior keys to decide the order.
func applyOrderBy(columns []string, out [][]Value, ob *plan.OrderStage) {
	idx := make([]int, len(ob.Items))
	for i, item := range ob.Items {
		idx[i] = columnIndex(columns, item.Column)
	}
	sort.SliceStable(out, func(a, b int) bool {
		for i, item := range ob.Items {
			ci := idx[i]
			if ci < 0 {
				continue
			}
			cmp := CompareOrdered(out[a][ci], out[b][ci])
			if cmp == 0 {
				continue
			}
			if item.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}
