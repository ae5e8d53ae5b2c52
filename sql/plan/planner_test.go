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
	"testing"

	"github.com/ekjotsingh/veloq/internal/errs"
	"github.com/ekjotsingh/veloq/sql/ast"
	"github.com/ekjotsingh/veloq/sql/parser"
)

type recordedObservation struct {
	table, column string
	isRange       bool
	selectivity   float64
}

type fakeObserver struct {
	seen []recordedObservation
}

func (f *fakeObserver) Observe(table, column string, isRange bool, selectivity float64) {
	f.seen = append(f.seen, recordedObservation{table, column, isRange, selectivity})
}

func mustParse(t *testing.T, sql string) *ast.SelectStmt {
	t.Helper()
	stmt, err := parser.Parse(sql)
	if err != nil {
		t.Fatalf("unexpected parse error for %q: %v", sql, err)
	}
	return stmt
}

func TestPlannerSimpleEqualityPushesNoRangeButKeepsResidual(t *testing.T) {
	stmt := mustParse(t, "SELECT userId, event FROM events WHERE userId = 'u1'")
	p := New(nil)
	plan, err := p.Build(stmt, nil)
	if err != nil {
		t.Fatalf("unexpected plan error: %v", err)
	}
	if plan.Scan.From != MinTS || plan.Scan.To != MaxTS {
		t.Fatalf("expected unbounded range, got [%d,%d]", plan.Scan.From, plan.Scan.To)
	}
	if plan.Scan.Residual == nil {
		t.Fatal("expected userId predicate to survive as residual")
	}
}

func TestPlannerBetweenPushesDownRange(t *testing.T) {
	stmt := mustParse(t, "SELECT * FROM events WHERE ts BETWEEN 1500 AND 3500")
	plan, err := New(nil).Build(stmt, nil)
	if err != nil {
		t.Fatalf("unexpected plan error: %v", err)
	}
	if plan.Scan.From != 1500 || plan.Scan.To != 3500 {
		t.Fatalf("expected range [1500,3500], got [%d,%d]", plan.Scan.From, plan.Scan.To)
	}
	if plan.Scan.Residual != nil {
		t.Fatalf("expected no residual, got %#v", plan.Scan.Residual)
	}
}

func TestPlannerAggregateWithoutGroupByIsPlanFailure(t *testing.T) {
	stmt := mustParse(t, "SELECT COUNT(*) FROM events")
	_, err := New(nil).Build(stmt, nil)
	if err == nil || !errs.IsKind(err, errs.KindPlan) {
		t.Fatalf("expected PlanFailure, got %v", err)
	}
}

func TestPlannerGroupByWithoutAggregateIsPlanFailure(t *testing.T) {
	stmt := mustParse(t, "SELECT userId FROM events GROUP BY userId")
	_, err := New(nil).Build(stmt, nil)
	if err == nil || !errs.IsKind(err, errs.KindPlan) {
		t.Fatalf("expected PlanFailure, got %v", err)
	}
}

func TestPlannerGroupByWithAggregateBuildsAggregateStage(t *testing.T) {
	stmt := mustParse(t, "SELECT region, COUNT(*) AS c FROM events GROUP BY region ORDER BY c DESC")
	plan, err := New(nil).Build(stmt, nil)
	if err != nil {
		t.Fatalf("unexpected plan error: %v", err)
	}
	if plan.Aggregate == nil || len(plan.Aggregate.Aggs) != 1 {
		t.Fatalf("expected one aggregate, got %+v", plan.Aggregate)
	}
	if plan.Aggregate.Aggs[0].Alias != "c" {
		t.Fatalf("expected alias c, got %q", plan.Aggregate.Aggs[0].Alias)
	}
	if plan.OrderBy == nil || !plan.OrderBy.Items[0].Desc {
		t.Fatalf("expected descending order by c, got %+v", plan.OrderBy)
	}
}

func TestPlannerLimitResolvesAgainstHint(t *testing.T) {
	stmt := mustParse(t, "SELECT * FROM events LIMIT 100")
	hint := int64(10)
	plan, err := New(nil).Build(stmt, &hint)
	if err != nil {
		t.Fatalf("unexpected plan error: %v", err)
	}
	if plan.Limit == nil || plan.Limit.N != 10 {
		t.Fatalf("expected effective limit 10, got %v", plan.Limit)
	}
}

func TestPlannerObserverSeesNonTimePredicatesAcrossAnd(t *testing.T) {
	stmt := mustParse(t, "SELECT userId FROM events WHERE region IN ('us','eu') AND event = 'click' AND ts >= 1000")
	obs := &fakeObserver{}
	_, err := New(obs).Build(stmt, nil)
	if err != nil {
		t.Fatalf("unexpected plan error: %v", err)
	}
	if len(obs.seen) != 2 {
		t.Fatalf("expected 2 non-time observations, got %+v", obs.seen)
	}
	cols := map[string]bool{}
	for _, o := range obs.seen {
		cols[o.column] = true
		if o.table != "events" {
			t.Fatalf("expected table events, got %q", o.table)
		}
	}
	if !cols["region"] || !cols["event"] {
		t.Fatalf("expected observations for region and event, got %+v", obs.seen)
	}
}

func TestPlannerMissingTableIsPlanFailure(t *testing.T) {
	stmt := mustParse(t, "SELECT * FROM events")
	stmt.Table = ""
	_, err := New(nil).Build(stmt, nil)
	if err == nil || !errs.IsKind(err, errs.KindPlan) {
		t.Fatalf("expected PlanFailure for missing table, got %v", err)
	}
}
