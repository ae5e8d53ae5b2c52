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
	"strings"

	"github.com/ekjotsingh/veloq/event"
	"github.com/ekjotsingh/veloq/sql/ast"
)

// Eval evaluates expr against row, admitting the row iff it returns true.
// A nil expr always admits. Comparisons against a null operand never
// match, per Compare's contract.
func Eval(expr ast.Expr, row event.Row) bool {
	if expr == nil {
		return true
	}
	switch e := expr.(type) {
	case ast.BinaryExpr:
		return evalBinary(e, row)
	case ast.InExpr:
		return evalIn(e, row)
	case ast.BetweenExpr:
		return evalBetween(e, row)
	case ast.LikeExpr:
		return evalLike(e, row)
	default:
		return false
	}
}

func resolve(expr ast.Expr, row event.Row) Value {
	switch e := expr.(type) {
	case ast.ColumnRef:
		raw, _ := row.Get(e.Name)
		return FromRaw(raw)
	case ast.Literal:
		return FromLiteral(e)
	default:
		return Null
	}
}

func evalBinary(e ast.BinaryExpr, row event.Row) bool {
	switch e.Op {
	case ast.OpAnd:
		return Eval(e.Left, row) && Eval(e.Right, row)
	case ast.OpOr:
		return Eval(e.Left, row) || Eval(e.Right, row)
	}

	left := resolve(e.Left, row)
	right := resolve(e.Right, row)
	cmp, ok := Compare(left, right)
	if !ok {
		return false
	}
	switch e.Op {
	case ast.OpEq:
		return cmp == 0
	case ast.OpNeq:
		return cmp != 0
	case ast.OpLt:
		return cmp < 0
	case ast.OpLte:
		return cmp <= 0
	case ast.OpGt:
		return cmp > 0
	case ast.OpGte:
		return cmp >= 0
	default:
		return false
	}
}

func evalIn(e ast.InExpr, row event.Row) bool {
	left := resolve(e.Expr, row)
	if left.IsNull() {
		return false
	}
	for _, lit := range e.List {
		cmp, ok := Compare(left, FromLiteral(lit))
		if ok && cmp == 0 {
			return true
		}
	}
	return false
}

func evalBetween(e ast.BetweenExpr, row event.Row) bool {
	v := resolve(e.Expr, row)
	if v.IsNull() {
		return false
	}
	lo := resolve(e.Low, row)
	hi := resolve(e.High, row)
	loCmp, ok := Compare(v, lo)
	if !ok || loCmp < 0 {
		return false
	}
	hiCmp, ok := Compare(v, hi)
	if !ok || hiCmp > 0 {
		return false
	}
	return true
}

// evalLike implements the restricted 'prefix%' form only; the parser
// already rejects any other LIKE pattern before this code ever runs. The
// match is case-insensitive, per spec §4.5.
func evalLike(e ast.LikeExpr, row event.Row) bool {
	v := resolve(e.Expr, row)
	if v.IsNull() {
		return false
	}
	return strings.HasPrefix(strings.ToLower(v.AsString()), strings.ToLower(e.Pattern))
}
