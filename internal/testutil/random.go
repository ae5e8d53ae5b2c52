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

// Package testutil generates reproducible pseudo-random events for
// benchmarks and property-style tests of the ingest/store/query pipeline.
package testutil

import (
	"fmt"
	"math/rand"
)

// Args
// 0 -> min
// 1 -> max
// randomNum(1,10) -> [1,10)
// randomNum(n) -> [0,n)
// randomNum() -> random
func randomNum(r *rand.Rand, args ...int) int {
	if len(args) > 1 {
		return args[0] + r.Intn(args[1]-args[0])
	} else if len(args) == 1 {
		return r.Intn(args[0])
	}
	return r.Int()
}

func randomString(r *rand.Rand, n int) string {
	const alphanum = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	bytes := make([]byte, n)
	for i := range bytes {
		bytes[i] = alphanum[r.Intn(len(alphanum))]
	}
	return string(bytes)
}

// EventSeed is the raw material handed back by RandomEvents; callers convert
// it into event.Event to avoid this package importing the event package
// (keeping it a leaf dependency usable from every other package's tests).
type EventSeed struct {
	TS     int64
	Table  string
	UserID string
	Event  string
	Props  map[string]string
}

// Generator produces deterministic pseudo-random event seeds from a fixed
// seed, so repeated test runs see identical data.
type Generator struct {
	r       *rand.Rand
	tables  []string
	events  []string
	regions []string
}

// NewGenerator builds a Generator seeded deterministically.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		r:       rand.New(rand.NewSource(seed)),
		tables:  []string{"events", "pageviews", "purchases"},
		events:  []string{"click", "purchase", "view", "signup"},
		regions: []string{"us", "eu", "apac"},
	}
}

// Next returns one random event seed with ts in [startMillis, startMillis+spanMillis).
func (g *Generator) Next(startMillis, spanMillis int64) EventSeed {
	ts := startMillis + int64(randomNum(g.r, int(spanMillis)))
	return EventSeed{
		TS:     ts,
		Table:  g.tables[randomNum(g.r, len(g.tables))],
		UserID: fmt.Sprintf("u%d", randomNum(g.r, 1, 50)),
		Event:  g.events[randomNum(g.r, len(g.events))],
		Props: map[string]string{
			"region": g.regions[randomNum(g.r, len(g.regions))],
			"price":  fmt.Sprintf("%d", randomNum(g.r, 1, 500)),
			"tag":    randomString(g.r, 6),
		},
	}
}

// NextN returns n random event seeds spread across the given window.
func (g *Generator) NextN(n int, startMillis, spanMillis int64) []EventSeed {
	out := make([]EventSeed, n)
	for i := range out {
		out[i] = g.Next(startMillis, spanMillis)
	}
	return out
}
