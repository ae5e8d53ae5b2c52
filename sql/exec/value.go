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

// Package exec runs a Plan against a Row source: Scan, then optionally
// Aggregate, then Project, then optionally OrderBy and Limit.
package exec

import (
	"strconv"
	"strings"

	"github.com/ekjotsingh/veloq/sql/ast"
)

// Kind tags a Value's payload. Event properties are stored as strings
// (event.Event.Props is map[string]string); numeric comparisons and
// aggregates coerce those strings to numbers on demand rather than at
// ingest time, since a property is only ever typed by how a query uses it.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
)

// Value is the tagged union predicate evaluation and aggregation operate
// over, mirroring the row-at-a-time design notes' "no arithmetic, no
// expression trees beyond predicates" restriction: a Value is either
// missing, a number, or a string.
type Value struct {
	Kind Kind
	Int  int64
	Flt  float64
	Str  string
}

// Null is the missing-value sentinel returned for a property that is not
// present on a given row, per event.Row.Get's `(nil, true)` contract.
var Null = Value{Kind: KindNull}

// FromRaw converts a Row.Get result into a Value. Base columns surface as
// int64 (ts) or string (table/userId/event); properties always surface as
// string or nil.
func FromRaw(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Null
	case int64:
		return Value{Kind: KindInt, Int: v}
	case int:
		return Value{Kind: KindInt, Int: int64(v)}
	case float64:
		return Value{Kind: KindFloat, Flt: v}
	case string:
		return Value{Kind: KindString, Str: v}
	default:
		return Null
	}
}

// FromLiteral converts a parsed AST literal into a Value.
func FromLiteral(l ast.Literal) Value {
	switch l.Kind {
	case ast.LiteralInt:
		return Value{Kind: KindInt, Int: l.Int}
	case ast.LiteralFloat:
		return Value{Kind: KindFloat, Flt: l.Flt}
	default:
		return Value{Kind: KindString, Str: l.Str}
	}
}

// AsFloat coerces v to a float64, parsing numeric-looking strings (event
// property values are always strings on the wire). Returns false for null,
// non-numeric strings, or an unrecognized kind.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Flt, true
	case KindString:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsString renders v for string-typed comparisons (LIKE, IN against string
// literals, equality against a bare column). Null renders as "".
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Flt, 'f', -1, 64)
	default:
		return ""
	}
}

// IsNull reports whether v carries no value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Compare orders two values: numbers compare numerically (coercing
// strings that parse as numbers), otherwise both sides compare
// case-insensitively as strings, per spec §4.5 (so a non-numeric string
// against a number compares as two strings). Returns (0, false) only when
// a side is null: a null on either side is never equal or ordered relative to
// anything, matching SQL's null semantics: comparisons against null are
// simply non-matching.
func Compare(a, b Value) (int, bool) {
	if a.IsNull() || b.IsNull() {
		return 0, false
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, bs := strings.ToLower(a.AsString()), strings.ToLower(b.AsString())
	switch {
	case as < bs:
		return -1, true
	case as > bs:
		return 1, true
	default:
		return 0, true
	}
}

// CompareOrdered orders two values for sort purposes, where Compare's
// "never equal or ordered" null handling would leave ORDER BY with nothing
// to sort on. Per spec §4.5, nulls sort below every non-null value and
// compare equal to each other. Non-null sides fall back to Compare; a pair
// Compare can't relate (e.g. mismatched types) sorts equal, leaving earlier
// ORDER BY keys to decide.
func CompareOrdered(a, b Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return 1
	}
	cmp, ok := Compare(a, b)
	if !ok {
		return 0
	}
	return cmp
}
