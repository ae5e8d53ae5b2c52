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

package plan

import (
	"strings"

	"github.com/ekjotsingh/veloq/internal/errs"
	"github.com/ekjotsingh/veloq/sql/ast"
)

// Observer receives predicates the planner sees while building a plan, so
// the adaptive indexing subsystem can learn from query workload without
// the planner importing the index package directly (index.Policy
// implements this).
type Observer interface {
	Observe(table, column string, isRange bool, selectivity float64)
}

// Planner converts a validated AST into a Plan. It is stateless except for
// the optional Observer it forwards predicate sightings to.
type Planner struct {
	Observer Observer
}

// New builds a Planner; obs may be nil (no observations recorded).
func New(obs Observer) *Planner {
	return &Planner{Observer: obs}
}

// Build validates stmt and converts it into a Plan, applying time-range
// pushdown and resolving the effective LIMIT against limitHint.
func (p *Planner) Build(stmt *ast.SelectStmt, limitHint *int64) (*Plan, error) {
	if err := validate(stmt); err != nil {
		return nil, err
	}

	if p.Observer != nil && stmt.Where != nil {
		observePredicates(stmt.Table, stmt.Where, p.Observer)
	}

	tr, residual := extractRange(stmt.Where)
	from, to := MinTS, MaxTS
	if tr.bounded {
		from, to = tr.From, tr.To
	}

	aggs := make([]AggSpec, 0, len(stmt.SelectList))
	for _, item := range stmt.SelectList {
		if item.IsAggregate() {
			aggs = append(aggs, AggSpec{
				Func: item.Agg.Func, Arg: item.Agg.Arg, IsStar: item.Agg.IsStar, Alias: resolveAlias(item),
			})
		}
	}

	projectSpecs := buildProjectSpecs(stmt)

	b := NewBuilder(ScanStage{Table: stmt.Table, From: from, To: to, Residual: residual}).
		SetAggregate(stmt.GroupBy, aggs).
		SetProject(projectSpecs).
		SetOrderBy(stmt.OrderBy).
		SetLimit(stmt.Limit, limitHint)

	return b.Build()
}

func resolveAlias(item ast.SelectItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	spec := AggSpec{Func: item.Agg.Func, Arg: item.Agg.Arg, IsStar: item.Agg.IsStar}
	return spec.DefaultAlias()
}

func buildProjectSpecs(stmt *ast.SelectStmt) []ProjectSpec {
	if stmt.Star {
		return []ProjectSpec{{Star: true}}
	}
	specs := make([]ProjectSpec, len(stmt.SelectList))
	for i, item := range stmt.SelectList {
		if item.IsAggregate() {
			specs[i] = ProjectSpec{Column: resolveAlias(item), Alias: resolveAlias(item)}
			continue
		}
		specs[i] = ProjectSpec{Column: item.Column, Alias: item.Alias}
	}
	return specs
}

// validate enforces the checked PlanFailure rules in spec §4.4: statement
// is a SELECT (guaranteed by the parser only accepting SELECT), non-empty
// select list, non-empty table, and the aggregate/group-by pairing
// invariant in both directions.
func validate(stmt *ast.SelectStmt) error {
	if strings.TrimSpace(stmt.Table) == "" {
		return errs.NewPlanFailure("missing table name")
	}
	if !stmt.Star && len(stmt.SelectList) == 0 {
		return errs.NewPlanFailure("empty select list")
	}

	hasAgg := false
	for _, item := range stmt.SelectList {
		if item.IsAggregate() {
			hasAgg = true
			break
		}
	}

	if hasAgg && len(stmt.GroupBy) == 0 {
		return errs.NewPlanFailure("aggregate in select list requires a non-empty GROUP BY")
	}
	if len(stmt.GroupBy) > 0 && !hasAgg {
		return errs.NewPlanFailure("GROUP BY requires at least one aggregate in the select list")
	}
	return nil
}

// observePredicates walks the full WHERE tree (not just the residual) for
// every comparison/IN/BETWEEN/LIKE predicate on a non-time column, and
// reports it to the Observer. The selectivity estimate here is a planning-
// time heuristic (no statistics are available yet): equality and LIKE
// narrow sharply, IN narrows proportionally to its list length, range
// comparisons admit roughly a third of rows. This is a separate, explicit
// decision from index.Manager.RecordQueryUsage's hard-coded 0.1 (see
// DESIGN.md Open Question 3): that call is an explicit per-column usage
// signal, this one records predicates seen before any index exists.
func observePredicates(table string, expr ast.Expr, obs Observer) {
	switch e := expr.(type) {
	case ast.BinaryExpr:
		if e.Op == ast.OpAnd || e.Op == ast.OpOr {
			observePredicates(table, e.Left, obs)
			observePredicates(table, e.Right, obs)
			return
		}
		col, _, _, ok := splitComparison(e)
		if !ok || isTimeColumn(col.Name) {
			return
		}
		isRange := e.Op == ast.OpLt || e.Op == ast.OpLte || e.Op == ast.OpGt || e.Op == ast.OpGte
		sel := 0.1
		if isRange {
			sel = 0.33
		}
		obs.Observe(table, col.Name, isRange, sel)

	case ast.InExpr:
		col, ok := e.Expr.(ast.ColumnRef)
		if !ok || isTimeColumn(col.Name) {
			return
		}
		n := len(e.List)
		if n == 0 {
			n = 1
		}
		obs.Observe(table, col.Name, false, 1.0/float64(n))

	case ast.BetweenExpr:
		col, ok := e.Expr.(ast.ColumnRef)
		if !ok || isTimeColumn(col.Name) {
			return
		}
		obs.Observe(table, col.Name, true, 0.33)

	case ast.LikeExpr:
		col, ok := e.Expr.(ast.ColumnRef)
		if !ok || isTimeColumn(col.Name) {
			return
		}
		obs.Observe(table, col.Name, false, 0.2)
	}
}

// Validate exposes the planner's checked validation rules to callers that
// only want to know whether a query is acceptable (QueryService.ValidateSQL).
func Validate(stmt *ast.SelectStmt) error {
	return validate(stmt)
}
