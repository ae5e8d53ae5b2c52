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

package parser

import (
	"testing"

	"github.com/ekjotsingh/veloq/internal/errs"
	"github.com/ekjotsingh/veloq/sql/ast"
)

func TestParseSimpleSelect(t *testing.T) {
	stmt, err := Parse("SELECT userId, event FROM events WHERE userId = 'u1'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stmt.Table != "events" || len(stmt.SelectList) != 2 {
		t.Fatalf("unexpected stmt: %+v", stmt)
	}
	bin, ok := stmt.Where.(ast.BinaryExpr)
	if !ok || bin.Op != ast.OpEq {
		t.Fatalf("expected equality predicate, got %#v", stmt.Where)
	}
}

func TestParseStarSelectWithBetween(t *testing.T) {
	stmt, err := Parse("SELECT * FROM events WHERE ts BETWEEN 1500 AND 3500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stmt.Star {
		t.Fatalf("expected Star = true")
	}
	if _, ok := stmt.Where.(ast.BetweenExpr); !ok {
		t.Fatalf("expected BetweenExpr, got %#v", stmt.Where)
	}
}

func TestParseInAndAnd(t *testing.T) {
	stmt, err := Parse("SELECT userId FROM events WHERE region IN ('us','eu') AND event = 'click'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bin, ok := stmt.Where.(ast.BinaryExpr)
	if !ok || bin.Op != ast.OpAnd {
		t.Fatalf("expected top-level AND, got %#v", stmt.Where)
	}
	if _, ok := bin.Left.(ast.InExpr); !ok {
		t.Fatalf("expected left side to be IN expr, got %#v", bin.Left)
	}
}

func TestParseLikePrefix(t *testing.T) {
	stmt, err := Parse("SELECT userId FROM events WHERE event LIKE 'pur%'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	like, ok := stmt.Where.(ast.LikeExpr)
	if !ok || like.Pattern != "pur" {
		t.Fatalf("expected LikeExpr prefix 'pur', got %#v", stmt.Where)
	}
}

func TestParseLikeNonPrefixIsUnsupported(t *testing.T) {
	_, err := Parse("SELECT userId FROM events WHERE event LIKE '%pur%'")
	if err == nil {
		t.Fatal("expected parse failure for non-prefix LIKE")
	}
	if !errs.IsKind(err, errs.KindParse) {
		t.Fatalf("expected ParseFailure, got %v (%T)", err, err)
	}
}

func TestParseGroupByAggregate(t *testing.T) {
	stmt, err := Parse("SELECT region, COUNT(*) AS c FROM events GROUP BY region ORDER BY c DESC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmt.GroupBy) != 1 || stmt.GroupBy[0] != "region" {
		t.Fatalf("unexpected group by: %+v", stmt.GroupBy)
	}
	if len(stmt.OrderBy) != 1 || !stmt.OrderBy[0].Desc {
		t.Fatalf("unexpected order by: %+v", stmt.OrderBy)
	}
	agg := stmt.SelectList[1]
	if agg.Agg == nil || agg.Agg.Func != ast.AggCount || !agg.Agg.IsStar || agg.Alias != "c" {
		t.Fatalf("unexpected aggregate item: %+v", agg)
	}
}

func TestParseLimit(t *testing.T) {
	stmt, err := Parse("SELECT * FROM events ORDER BY ts ASC LIMIT 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stmt.Limit == nil || *stmt.Limit != 2 {
		t.Fatalf("expected limit 2, got %v", stmt.Limit)
	}
}

func TestParseMissingSelectListIsParseFailure(t *testing.T) {
	_, err := Parse("SELECT FROM events")
	if err == nil {
		t.Fatal("expected parse failure for empty select list")
	}
	if !errs.IsKind(err, errs.KindParse) {
		t.Fatalf("expected ParseFailure, got %v (%T)", err, err)
	}
}

func TestParseCaseInsensitiveKeywords(t *testing.T) {
	_, err := Parse("select userId from events where userId = 'u1'")
	if err != nil {
		t.Fatalf("expected lowercase keywords to parse, got %v", err)
	}
}

func TestParseLineComment(t *testing.T) {
	sql := "SELECT userId -- trailing comment\nFROM events"
	_, err := Parse(sql)
	if err != nil {
		t.Fatalf("expected comment to be skipped, got %v", err)
	}
}

func TestParseStringEscaping(t *testing.T) {
	stmt, err := Parse("SELECT userId FROM events WHERE event = 'it''s'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bin := stmt.Where.(ast.BinaryExpr)
	lit := bin.Right.(ast.Literal)
	if lit.Str != "it's" {
		t.Fatalf("expected unescaped string \"it's\", got %q", lit.Str)
	}
}

func TestParseErrorCarriesPosition(t *testing.T) {
	_, err := Parse("SELECT userId FROM")
	f, ok := err.(*errs.Failure)
	if !ok {
		t.Fatalf("expected *errs.Failure, got %T", err)
	}
	if f.Pos.Line == 0 {
		t.Fatalf("expected a non-zero line position, got %+v", f.Pos)
	}
}
