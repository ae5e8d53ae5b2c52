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

package event

import "strings"

// Row is a lightweight, read-only façade over a stored Event: it resolves
// base columns case-insensitively and properties by bare name or
// "props.<name>", and keeps a reference back to the source Event for
// operators (Aggregate) that need raw column evaluation per row.
type Row struct {
	Source *Event
}

// NewRow wraps ev in a Row view.
func NewRow(ev *Event) Row {
	return Row{Source: ev}
}

// Get resolves column by the same rule the executor's predicate evaluator
// uses: base columns first (case-insensitive, with the userId/user_id and
// ts/timestamp aliases), then props.<name> or a bare property name.
// A missing property resolves to (nil, true): the lookup is not itself a
// failure, just a null result.
func (r Row) Get(column string) (interface{}, bool) {
	lower := strings.ToLower(column)
	switch lower {
	case "ts", "timestamp":
		return r.Source.TS, true
	case "table":
		return r.Source.Table, true
	case "userid", "user_id":
		return r.Source.UserID, true
	case "event":
		return r.Source.Event, true
	}
	name := column
	if strings.HasPrefix(lower, "props.") {
		name = column[len("props."):]
	}
	if r.Source.Props == nil {
		return nil, true
	}
	v, ok := r.Source.Props[name]
	if !ok {
		return nil, true
	}
	return v, true
}

// Prop returns a single property by its original (case-sensitive) name.
func (r Row) Prop(name string) (string, bool) {
	if r.Source.Props == nil {
		return "", false
	}
	v, ok := r.Source.Props[name]
	return v, ok
}

// Props returns the raw property map of the underlying event.
func (r Row) Props() map[string]string {
	return r.Source.Props
}

// BaseColumns are the four columns contractually present in SELECT *.
var BaseColumns = []string{"ts", "table", "userId", "event"}
