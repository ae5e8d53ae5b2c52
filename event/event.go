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

// Package event defines the atomic record ingested by the engine and the
// read-only row view projected over it during query execution.
package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTable is substituted for events submitted without a table.
const DefaultTable = "events"

// Event is the ingested record: a timestamp, a logical table, an optional
// user id, an event name, and a free-form property bag.
type Event struct {
	// ID is a UUID assigned at construction, carried only for log
	// correlation; it plays no role in query semantics or comparisons.
	ID string

	TS     int64
	Table  string
	UserID string
	Event  string
	Props  map[string]string
}

// New builds an Event, applying the ts-defaults-to-wall-clock and
// table-defaults-to-"events" rules. It does not validate Event (the event
// name); callers that need validity should use Valid().
func New(table, userID, name string, props map[string]string) Event {
	return Event{
		ID:     uuid.New().String(),
		TS:     time.Now().UnixNano() / int64(time.Millisecond),
		Table:  normalizeTable(table),
		UserID: userID,
		Event:  name,
		Props:  props,
	}
}

// NewWithTS is New with an explicit timestamp, used by tests and by
// producers that carry their own event-time clock.
func NewWithTS(ts int64, table, userID, name string, props map[string]string) Event {
	e := New(table, userID, name, props)
	e.TS = ts
	return e
}

func normalizeTable(table string) string {
	if strings.TrimSpace(table) == "" {
		return DefaultTable
	}
	return table
}

// Normalize substitutes the default table in place; the ColumnStore calls
// this at append time so table is never empty once stored.
func (e *Event) Normalize() {
	e.Table = normalizeTable(e.Table)
}

// Valid reports whether Event.Event (the event name) is non-empty and
// non-whitespace, per the data model invariant.
func (e Event) Valid() bool {
	return strings.TrimSpace(e.Event) != ""
}
