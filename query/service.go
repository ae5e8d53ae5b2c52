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

// Package query is the embeddable QueryService named in spec.md §6: the
// single entry point external collaborators call to run SQL, explain it,
// validate it without running it, or read back table/storage metadata. It
// is the composition point where sql/parser, sql/plan, sql/exec and the
// plan.Observer fed to the index policy meet.
package query

import (
	"time"

	"github.com/ekjotsingh/veloq/internal/logutil"
	"github.com/ekjotsingh/veloq/sql/exec"
	"github.com/ekjotsingh/veloq/sql/parser"
	"github.com/ekjotsingh/veloq/sql/plan"
	"github.com/ekjotsingh/veloq/store"
)

// Request is the execute(request) shape from spec.md §6: Vectorized is
// accepted and ignored (the executor has one, scalar, execution mode).
type Request struct {
	SQL        string
	LimitHint  *int64
	Vectorized bool
}

// Result is the QueryResult external collaborators see: the typed rows
// rendered as plain Go values (not sql/exec.Value, which is an
// implementation detail of the executor), plus the scanned/matched
// counters spec.md §8's worked examples check.
type Result struct {
	Columns     []string
	Rows        [][]interface{}
	ScannedRows int
	MatchedRows int
	ElapsedMS   int64
}

// Service is the QueryService of spec.md §6.
type Service struct {
	store           *store.ColumnStore
	planner         *plan.Planner
	slowQueryMillis int64
}

// New builds a Service over st, recording predicate observations through
// obs (normally the *index.Policy owned by an *index.Manager, which
// satisfies plan.Observer) and logging any query whose wall-clock time
// reaches slowQueryMillis (0 disables the log).
func New(st *store.ColumnStore, obs plan.Observer, slowQueryMillis int64) *Service {
	return &Service{
		store:           st,
		planner:         plan.New(obs),
		slowQueryMillis: slowQueryMillis,
	}
}

// Execute parses, plans and runs req.SQL, logging a slow-query record if
// elapsed time crosses the configured threshold.
func (s *Service) Execute(req Request) (*Result, error) {
	start := time.Now()
	stmt, err := parser.Parse(req.SQL)
	if err != nil {
		return nil, err
	}
	p, err := s.planner.Build(stmt, req.LimitHint)
	if err != nil {
		return nil, err
	}

	qr := exec.Run(s.store, p)
	elapsed := time.Since(start)

	if s.slowQueryMillis > 0 && elapsed.Milliseconds() >= s.slowQueryMillis {
		logutil.LogSlowQuery(logutil.SlowQueryEntry{
			SQL:          req.SQL,
			ScannedRows:  int64(qr.ScannedRows),
			MatchedRows:  int64(qr.MatchedRows),
			ElapsedNanos: elapsed,
		})
	}

	return &Result{
		Columns:     qr.Columns,
		Rows:        toPlainRows(qr.Rows),
		ScannedRows: qr.ScannedRows,
		MatchedRows: qr.MatchedRows,
		ElapsedMS:   elapsed.Milliseconds(),
	}, nil
}

func toPlainRows(rows [][]exec.Value) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = plainValue(v)
		}
		out[i] = vals
	}
	return out
}

func plainValue(v exec.Value) interface{} {
	switch v.Kind {
	case exec.KindNull:
		return nil
	case exec.KindInt:
		return v.Int
	case exec.KindFloat:
		return v.Flt
	default:
		return v.Str
	}
}

// Explain parses and plans req.SQL without running it, returning the
// human-readable PhysicalPlan form spec.md §6 names.
func (s *Service) Explain(req Request) (string, error) {
	stmt, err := parser.Parse(req.SQL)
	if err != nil {
		return "", err
	}
	p, err := s.planner.Build(stmt, req.LimitHint)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// ValidateSQL reports whether sql parses and plans successfully, without
// executing it or recording any predicate observation.
func (s *Service) ValidateSQL(sql string) error {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return err
	}
	return plan.Validate(stmt)
}

// GetTableNames lists every table the store has ever received events for.
func (s *Service) GetTableNames() []string {
	return s.store.TableNames()
}

// GetTotalEventCount reports the store-wide row count.
func (s *Service) GetTotalEventCount() int {
	return s.store.Size()
}

// GetStorageStats reports the store's totals and per-table breakdown.
func (s *Service) GetStorageStats() map[string]interface{} {
	stats := s.store.Stats()
	return map[string]interface{}{
		"totalEvents":  stats.TotalEvents,
		"totalBatches": stats.TotalBatches,
		"perTable":     stats.PerTable,
	}
}
