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

import "github.com/ekjotsingh/veloq/sql/ast"

// Builder assembles a Plan stage by stage, deferring any construction
// error to Build() rather than threading it through every setter: a
// "builder.err" short-circuit, the same shape a request builder over
// physical-plan stages would take.
type Builder struct {
	plan Plan
	err  error
}

// NewBuilder starts a Builder for the given scan stage.
func NewBuilder(scan ScanStage) *Builder {
	return &Builder{plan: Plan{Scan: scan}}
}

// SetAggregate installs the Aggregate stage. A no-op once b.err is set.
func (b *Builder) SetAggregate(groupBy []string, aggs []AggSpec) *Builder {
	if b.err != nil {
		return b
	}
	if len(aggs) == 0 {
		return b
	}
	b.plan.Aggregate = &AggregateStage{GroupBy: groupBy, Aggs: aggs}
	return b
}

// SetProject installs the Project stage, always present in the final plan.
func (b *Builder) SetProject(specs []ProjectSpec) *Builder {
	if b.err != nil {
		return b
	}
	b.plan.Project = ProjectStage{Specs: specs}
	return b
}

// SetOrderBy installs the OrderBy stage when items is non-empty.
func (b *Builder) SetOrderBy(items []ast.OrderItem) *Builder {
	if b.err != nil {
		return b
	}
	if len(items) == 0 {
		return b
	}
	b.plan.OrderBy = &OrderStage{Items: items}
	return b
}

// SetLimit installs the Limit stage, resolving the SQL limit against an
// optional caller-supplied hint: effective = min(sqlLimit, hint) when both
// are present, otherwise whichever is present.
func (b *Builder) SetLimit(sqlLimit *int64, hint *int64) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case sqlLimit != nil && hint != nil:
		n := *sqlLimit
		if *hint < n {
			n = *hint
		}
		b.plan.Limit = &LimitStage{N: n}
	case sqlLimit != nil:
		b.plan.Limit = &LimitStage{N: *sqlLimit}
	case hint != nil:
		b.plan.Limit = &LimitStage{N: *hint}
	}
	return b
}

// Build returns the assembled Plan, or the first error recorded by any
// setter.
func (b *Builder) Build() (*Plan, error) {
	if b.err != nil {
		return nil, b.err
	}
	plan := b.plan
	return &plan, nil
}
