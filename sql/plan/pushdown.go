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

	"github.com/ekjotsingh/veloq/sql/ast"
)

// timeRange is a closed interval [From, To]; the zero value is unbounded.
type timeRange struct {
	From, To int64
	bounded  bool
}

func unbounded() timeRange { return timeRange{From: MinTS, To: MaxTS} }

func isTimeColumn(name string) bool {
	lower := strings.ToLower(name)
	return lower == "ts" || lower == "timestamp"
}

func literalInt(l ast.Literal) (int64, bool) {
	switch l.Kind {
	case ast.LiteralInt:
		return l.Int, true
	case ast.LiteralFloat:
		return int64(l.Flt), true
	}
	return 0, false
}

// extractRange walks expr for constraints on ts/timestamp and returns the
// pushed-down range plus the residual expression with every time-touching
// predicate removed, per spec §4.4: BETWEEN maps to [a,b]; a comparison
// maps to a half-range (flipping when the literal is on the left); AND
// intersects ranges; OR abandons pushdown entirely for the whole subtree it
// governs.
func extractRange(expr ast.Expr) (timeRange, ast.Expr) {
	if expr == nil {
		return unbounded(), nil
	}

	switch e := expr.(type) {
	case ast.BetweenExpr:
		col, ok := e.Expr.(ast.ColumnRef)
		if !ok || !isTimeColumn(col.Name) {
			return unbounded(), e
		}
		lo, okLo := literalBound(e.Low)
		hi, okHi := literalBound(e.High)
		if !okLo || !okHi {
			return unbounded(), e
		}
		return timeRange{From: lo, To: hi, bounded: true}, nil

	case ast.BinaryExpr:
		switch e.Op {
		case ast.OpAnd:
			lr, lres := extractRange(e.Left)
			rr, rres := extractRange(e.Right)
			merged := intersect(lr, rr)
			return merged, mergeResidual(lres, rres, ast.OpAnd)
		case ast.OpOr:
			// Pushdown abandons under OR: no range extraction, residual is
			// the original (unmodified) subtree.
			return unbounded(), e
		default:
			return extractComparisonRange(e)
		}
	}
	return unbounded(), expr
}

func literalBound(e ast.Expr) (int64, bool) {
	lit, ok := e.(ast.Literal)
	if !ok {
		return 0, false
	}
	return literalInt(lit)
}

// extractComparisonRange handles `ts op literal` or `literal op ts`.
func extractComparisonRange(e ast.BinaryExpr) (timeRange, ast.Expr) {
	col, lit, flipped, ok := splitComparison(e)
	if !ok || !isTimeColumn(col.Name) {
		return unbounded(), e
	}
	v, ok := literalInt(lit)
	if !ok {
		return unbounded(), e
	}
	op := e.Op
	if flipped {
		op = flipOp(op)
	}
	switch op {
	case ast.OpGte:
		return timeRange{From: v, To: MaxTS, bounded: true}, nil
	case ast.OpGt:
		return timeRange{From: v + 1, To: MaxTS, bounded: true}, nil
	case ast.OpLte:
		return timeRange{From: MinTS, To: v, bounded: true}, nil
	case ast.OpLt:
		return timeRange{From: MinTS, To: v - 1, bounded: true}, nil
	case ast.OpEq:
		return timeRange{From: v, To: v, bounded: true}, nil
	}
	return unbounded(), e
}

func splitComparison(e ast.BinaryExpr) (ast.ColumnRef, ast.Literal, bool, bool) {
	if col, ok := e.Left.(ast.ColumnRef); ok {
		if lit, ok := e.Right.(ast.Literal); ok {
			return col, lit, false, true
		}
	}
	if col, ok := e.Right.(ast.ColumnRef); ok {
		if lit, ok := e.Left.(ast.Literal); ok {
			return col, lit, true, true
		}
	}
	return ast.ColumnRef{}, ast.Literal{}, false, false
}

func flipOp(op ast.BinOp) ast.BinOp {
	switch op {
	case ast.OpGt:
		return ast.OpLt
	case ast.OpGte:
		return ast.OpLte
	case ast.OpLt:
		return ast.OpGt
	case ast.OpLte:
		return ast.OpGte
	default:
		return op
	}
}

func intersect(a, b timeRange) timeRange {
	if !a.bounded && !b.bounded {
		return unbounded()
	}
	if !a.bounded {
		return b
	}
	if !b.bounded {
		return a
	}
	from := a.From
	if b.From > from {
		from = b.From
	}
	to := a.To
	if b.To < to {
		to = b.To
	}
	return timeRange{From: from, To: to, bounded: true}
}

// mergeResidual recombines two subtrees' residuals under op, collapsing to
// whichever side survived when the other emptied out.
func mergeResidual(left, right ast.Expr, op ast.BinOp) ast.Expr {
	if left == nil && right == nil {
		return nil
	}
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	return ast.BinaryExpr{Op: op, Left: left, Right: right}
}
