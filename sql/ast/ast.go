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

// Package ast defines the typed AST produced by sql/parser for the
// restricted SELECT grammar in spec §4.3: SELECT select_list FROM table
// [WHERE expr] [GROUP BY ...] [ORDER BY ...] [LIMIT n].
package ast

// SelectStmt is the single statement shape this grammar accepts.
type SelectStmt struct {
	SelectList []SelectItem
	Star       bool // true when the select list was exactly "*"
	Table      string
	Where      Expr // nil if no WHERE clause
	GroupBy    []string
	OrderBy    []OrderItem
	Limit      *int64
}

// SelectItem is one entry of the select list: either a bare column
// reference or an aggregate call, each with an optional alias.
type SelectItem struct {
	Column string   // set when this is a bare column reference
	Agg    *AggCall // set when this is an aggregate call
	Alias  string
}

// IsAggregate reports whether this select item is an aggregate call.
func (s SelectItem) IsAggregate() bool { return s.Agg != nil }

// AggFunc enumerates the exactly six aggregate calls the grammar accepts.
type AggFunc string

// The aggregate functions named in spec §4.3.
const (
	AggCount AggFunc = "COUNT"
	AggSum   AggFunc = "SUM"
	AggAvg   AggFunc = "AVG"
	AggMin   AggFunc = "MIN"
	AggMax   AggFunc = "MAX"
)

// AggCall is one aggregate call, e.g. COUNT(*), SUM(price).
type AggCall struct {
	Func   AggFunc
	Arg    string // column name, or "*" for COUNT(*)
	IsStar bool
}

// OrderItem is one ORDER BY entry.
type OrderItem struct {
	Column string
	Desc   bool
}

// Expr is any node that can appear in a WHERE clause.
type Expr interface {
	exprNode()
}

// LiteralKind distinguishes the three literal types the grammar accepts.
type LiteralKind int

// Literal kinds.
const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
)

// Literal is an integer, float, or single-quoted string constant.
type Literal struct {
	Kind LiteralKind
	Int  int64
	Flt  float64
	Str  string
}

func (Literal) exprNode() {}

// ColumnRef is a bare column reference used inside expressions.
type ColumnRef struct {
	Name string
}

func (ColumnRef) exprNode() {}

// BinOp enumerates every binary operator the grammar accepts.
type BinOp string

// Binary operators.
const (
	OpEq    BinOp = "="
	OpNeq   BinOp = "!="
	OpLt    BinOp = "<"
	OpLte   BinOp = "<="
	OpGt    BinOp = ">"
	OpGte   BinOp = ">="
	OpAnd   BinOp = "AND"
	OpOr    BinOp = "OR"
)

// BinaryExpr is a comparison or boolean connective.
type BinaryExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

func (BinaryExpr) exprNode() {}

// InExpr is `expr IN (literal_list)`.
type InExpr struct {
	Expr Expr
	List []Literal
}

func (InExpr) exprNode() {}

// BetweenExpr is `expr BETWEEN low AND high`, inclusive on both ends.
type BetweenExpr struct {
	Expr Expr
	Low  Expr
	High Expr
}

func (BetweenExpr) exprNode() {}

// LikeExpr is `expr LIKE 'prefix%'`; Pattern excludes the trailing '%'.
type LikeExpr struct {
	Expr    Expr
	Pattern string
}

func (LikeExpr) exprNode() {}
