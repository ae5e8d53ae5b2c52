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

// Package plan converts a validated AST into the ordered physical pipeline
// Scan -> [Aggregate] -> Project -> [OrderBy] -> [Limit] described in spec
// §4.4, modeling each stage as a tagged struct rather than a class
// hierarchy (per the design notes' "polymorphism over operators" guidance).
package plan

import (
	"fmt"
	"math"
	"strings"

	"github.com/ekjotsingh/veloq/sql/ast"
)

// MinTS / MaxTS bound an unconstrained time range.
const (
	MinTS = math.MinInt64
	MaxTS = math.MaxInt64
)

// ScanStage scans one table in a time window, admitting rows for which the
// residual predicate (if any) evaluates true.
type ScanStage struct {
	Table    string
	From     int64
	To       int64
	Residual ast.Expr
}

// AggSpec is one aggregate accumulator requested by the select list.
type AggSpec struct {
	Func   ast.AggFunc
	Arg    string
	IsStar bool
	Alias  string
}

// DefaultAlias mirrors the FN(col|*) default naming rule.
func (a AggSpec) DefaultAlias() string {
	if a.Alias != "" {
		return a.Alias
	}
	if a.IsStar {
		return fmt.Sprintf("%s(*)", a.Func)
	}
	return fmt.Sprintf("%s(%s)", a.Func, a.Arg)
}

// AggregateStage partitions rows into groups and runs one accumulator per
// AggSpec in each group. Present iff the statement has both a GROUP BY and
// at least one aggregate in its select list.
type AggregateStage struct {
	GroupBy []string
	Aggs    []AggSpec
}

// ProjectSpec is one output column: either a named copy (possibly aliased)
// or the full current column list when Star is set.
type ProjectSpec struct {
	Column string
	Alias  string
	Star   bool
}

// OutputName is the column header this spec contributes (irrelevant when
// Star is set, since Star splices in the current column list verbatim).
func (p ProjectSpec) OutputName() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.Column
}

// ProjectStage is always present; it materializes the final column set.
type ProjectStage struct {
	Specs []ProjectSpec
}

// OrderStage stably sorts by its items in order; present iff ORDER BY is
// non-empty.
type OrderStage struct {
	Items []ast.OrderItem
}

// LimitStage truncates to the first N rows; present iff a limit applies.
type LimitStage struct {
	N int64
}

// Plan is the ordered physical pipeline produced by Planner.Build.
type Plan struct {
	Scan      ScanStage
	Aggregate *AggregateStage
	Project   ProjectStage
	OrderBy   *OrderStage
	Limit     *LimitStage
}

// String renders a human-readable, one-line-per-stage EXPLAIN form. It
// participates in no query semantics; it exists purely for
// QueryService.Explain callers.
func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scan(table=%s, range=[%s,%s], residual=%s)\n",
		p.Scan.Table, formatBound(p.Scan.From), formatBound(p.Scan.To), exprString(p.Scan.Residual))
	if p.Aggregate != nil {
		aggs := make([]string, len(p.Aggregate.Aggs))
		for i, a := range p.Aggregate.Aggs {
			call := AggSpec{Func: a.Func, Arg: a.Arg, IsStar: a.IsStar}.DefaultAlias()
			aggs[i] = fmt.Sprintf("%s AS %s", call, a.Alias)
		}
		fmt.Fprintf(&b, "Aggregate(group=%v, aggs=[%s])\n", p.Aggregate.GroupBy, strings.Join(aggs, ", "))
	}
	cols := make([]string, len(p.Project.Specs))
	for i, s := range p.Project.Specs {
		if s.Star {
			cols[i] = "*"
		} else {
			cols[i] = s.OutputName()
		}
	}
	fmt.Fprintf(&b, "Project(%s)\n", strings.Join(cols, ", "))
	if p.OrderBy != nil {
		fmt.Fprintf(&b, "OrderBy(%v)\n", p.OrderBy.Items)
	}
	if p.Limit != nil {
		fmt.Fprintf(&b, "Limit(%d)\n", p.Limit.N)
	}
	return b.String()
}

func formatBound(v int64) string {
	switch v {
	case MinTS:
		return "-inf"
	case MaxTS:
		return "+inf"
	default:
		return fmt.Sprintf("%d", v)
	}
}

func exprString(e ast.Expr) string {
	if e == nil {
		return "<none>"
	}
	return fmt.Sprintf("%+v", e)
}
