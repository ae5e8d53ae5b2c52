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

// Package errs defines the typed failure taxonomy used across the query
// engine: ParseFailure, PlanFailure and ExecutionFailure. Each wraps a
// traced github.com/pingcap/errors cause so callers can both distinguish
// the taxonomy and recover the root condition with errors.Cause.
package errs

import (
	"fmt"

	"github.com/pingcap/errors"
)

// Kind classifies a typed failure raised by the SQL front end or executor.
type Kind int

// The three checked failure kinds named in the error handling design.
const (
	KindParse Kind = iota
	KindPlan
	KindExecution
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseFailure"
	case KindPlan:
		return "PlanFailure"
	case KindExecution:
		return "ExecutionFailure"
	default:
		return "UnknownFailure"
	}
}

// Position is a 1-based line/column into the original SQL text, filled in
// when available (parse-time only; plan and execution failures leave it
// zero).
type Position struct {
	Line   int
	Column int
}

// Failure is the single error type returned across the parse/plan/execute
// boundary. Operation names the pipeline stage or operator that raised it,
// matching the executor's rule that execution failures name the offending
// operation.
type Failure struct {
	Kind      Kind
	Operation string
	Pos       Position
	cause     error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Pos.Line > 0 {
		return fmt.Sprintf("%s at line %d, column %d: %s", f.Kind, f.Pos.Line, f.Pos.Column, f.cause.Error())
	}
	if f.Operation != "" {
		return fmt.Sprintf("%s in %s: %s", f.Kind, f.Operation, f.cause.Error())
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.cause.Error())
}

// Cause returns the traced root error, compatible with errors.Cause.
func (f *Failure) Cause() error {
	return f.cause
}

// NewParseFailure builds a ParseFailure positioned at line/col.
func NewParseFailure(line, col int, format string, args ...interface{}) *Failure {
	return &Failure{
		Kind:  KindParse,
		Pos:   Position{Line: line, Column: col},
		cause: errors.Errorf(format, args...),
	}
}

// NewPlanFailure builds a PlanFailure; plan failures have no source position
// because they are raised after the AST has already been fully parsed.
func NewPlanFailure(format string, args ...interface{}) *Failure {
	return &Failure{
		Kind:  KindPlan,
		cause: errors.Errorf(format, args...),
	}
}

// NewExecutionFailure builds an ExecutionFailure naming the operator that
// could not complete.
func NewExecutionFailure(operation string, format string, args ...interface{}) *Failure {
	return &Failure{
		Kind:      KindExecution,
		Operation: operation,
		cause:     errors.Errorf(format, args...),
	}
}

// Wrap traces an existing error into an ExecutionFailure, preserving its
// message and attaching a stack via errors.Trace.
func Wrap(operation string, err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{
		Kind:      KindExecution,
		Operation: operation,
		cause:     errors.Trace(err),
	}
}

// IsKind reports whether err is a *Failure of the given kind.
func IsKind(err error, k Kind) bool {
	f, ok := err.(*Failure)
	return ok && f.Kind == k
}

// ErrOverloaded is the soft, non-error signal described in the error
// handling design: IngestBuffer.Submit returns it (as a negative accepted
// count, per the external API) rather than propagating it as a Go error to
// every caller. It is kept here as a sentinel so internal callers that do
// want an error value (e.g. tests) have one to compare against.
var ErrOverloaded = errors.New("ingest buffer overloaded")
