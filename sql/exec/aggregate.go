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
	"github.com/ekjotsingh/veloq/event"
	"github.com/ekjotsingh/veloq/sql/plan"
)

// accumulator is the per-group, per-aggregate running state. Each kind
// keeps only the state it needs, the same "Update/GetResult" shape the
// aggregation functions this is grounded on use, trimmed to this engine's
// five supported functions and its flat Value type instead of a Datum.
type accumulator interface {
	Update(row event.Row)
	Result() Value
}

func newAccumulator(spec plan.AggSpec) accumulator {
	switch spec.Func {
	case "COUNT":
		return &countAcc{arg: spec.Arg, isStar: spec.IsStar}
	case "SUM":
		return &sumAcc{arg: spec.Arg}
	case "AVG":
		return &avgAcc{arg: spec.Arg}
	case "MIN":
		return &minMaxAcc{arg: spec.Arg, wantMax: false}
	case "MAX":
		return &minMaxAcc{arg: spec.Arg, wantMax: true}
	default:
		return &countAcc{isStar: true}
	}
}

type countAcc struct {
	arg    string
	isStar bool
	n      int64
}

func (a *countAcc) Update(row event.Row) {
	if a.isStar {
		a.n++
		return
	}
	raw, _ := row.Get(a.arg)
	if FromRaw(raw).IsNull() {
		return
	}
	a.n++
}

func (a *countAcc) Result() Value { return Value{Kind: KindInt, Int: a.n} }

type sumAcc struct {
	arg string
	sum float64
}

func (a *sumAcc) Update(row event.Row) {
	raw, _ := row.Get(a.arg)
	f, ok := FromRaw(raw).AsFloat()
	if !ok {
		return
	}
	a.sum += f
}

// Result is 0.0 for a group with no numeric values, per spec §4.5 — unlike
// avgAcc, SUM never returns null.
func (a *sumAcc) Result() Value {
	return Value{Kind: KindFloat, Flt: a.sum}
}

type avgAcc struct {
	arg string
	sum float64
	n   int64
}

func (a *avgAcc) Update(row event.Row) {
	raw, _ := row.Get(a.arg)
	f, ok := FromRaw(raw).AsFloat()
	if !ok {
		return
	}
	a.sum += f
	a.n++
}

func (a *avgAcc) Result() Value {
	if a.n == 0 {
		return Null
	}
	return Value{Kind: KindFloat, Flt: a.sum / float64(a.n)}
}

type minMaxAcc struct {
	arg     string
	wantMax bool
	cur     Value
	seen    bool
}

func (a *minMaxAcc) Update(row event.Row) {
	raw, _ := row.Get(a.arg)
	v := FromRaw(raw)
	if v.IsNull() {
		return
	}
	if !a.seen {
		a.cur, a.seen = v, true
		return
	}
	cmp, ok := Compare(v, a.cur)
	if !ok {
		return
	}
	if (a.wantMax && cmp > 0) || (!a.wantMax && cmp < 0) {
		a.cur = v
	}
}

func (a *minMaxAcc) Result() Value {
	if !a.seen {
		return Null
	}
	return a.cur
}
