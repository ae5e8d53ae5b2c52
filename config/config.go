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

// Package config holds every tunable named in the engine's external
// interface: ingest batching, index memory/adaptive-tick knobs, and the
// log/slow-query threshold. It is the single place defaults live.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
)

// IngestConfig controls ingest/buffer.go.
type IngestConfig struct {
	BatchSize          int `toml:"batch_size"`
	FlushIntervalMillis int `toml:"flush_interval_millis"`
}

// IndexConfig controls index/manager.go and index/policy.go.
type IndexConfig struct {
	MemoryBudgetMB      int `toml:"memory_budget_mb"`
	MaxNewPerTick       int `toml:"max_new_per_tick"`
	StaleDropMS         int `toml:"stale_drop_ms"`
	AdaptiveTickSeconds int `toml:"adaptive_tick_seconds"`
}

// LogConfig controls internal/logutil.
type LogConfig struct {
	Level           string `toml:"level"`
	SlowQueryMillis int    `toml:"slow_query_millis"`
}

// Config is the root configuration document, loadable from TOML.
type Config struct {
	Ingest IngestConfig `toml:"ingest"`
	Index  IndexConfig  `toml:"index"`
	Log    LogConfig    `toml:"log"`
}

// Default returns the configuration defaults named in the engine's external
// interface (spec §6): ingest.batchSize=10000, ingest.flushMillis=500,
// index.memoryBudgetMb=64, index.maxNewPerTick=3, index.staleDropMs=300000,
// index.adaptiveTickSeconds=60.
func Default() *Config {
	return &Config{
		Ingest: IngestConfig{
			BatchSize:           10000,
			FlushIntervalMillis: 500,
		},
		Index: IndexConfig{
			MemoryBudgetMB:      64,
			MaxNewPerTick:       3,
			StaleDropMS:         300000,
			AdaptiveTickSeconds: 60,
		},
		Log: LogConfig{
			Level:           "info",
			SlowQueryMillis: 200,
		},
	}
}

// Load reads a TOML document at path and overlays it onto Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Annotatef(err, "loading config from %s", path)
	}
	return cfg, nil
}
