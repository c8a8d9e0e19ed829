// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// benchConfig controls the shape of a wordtable-bench run.
type benchConfig struct {
	// SampleSize is the total number of distinct keys generated across all
	// shards.
	SampleSize uint64 `yaml:"sample_size"`
	// InitialCapacity seeds each shard's table, letting a run skip the
	// early grows when the final size is known ahead of time.
	InitialCapacity uint64 `yaml:"initial_capacity"`
	// ShardCount is the number of independent tables, and worker
	// goroutines, the key population is split across.
	ShardCount int `yaml:"shard_count"`
	// MaxConcurrency bounds how many shard workers may run at once,
	// independent of ShardCount, via a weighted semaphore.
	MaxConcurrency int64 `yaml:"max_concurrency"`
	// InsertRatePerSecond paces the insert phase through one token-bucket
	// limiter shared by all shards, so it caps the combined insert rate.
	// Zero means unlimited.
	InsertRatePerSecond float64 `yaml:"insert_rate_per_second"`
}

func defaultConfig() benchConfig {
	return benchConfig{
		SampleSize:          1_000_000,
		InitialCapacity:     500_000,
		ShardCount:          4,
		MaxConcurrency:      4,
		InsertRatePerSecond: 0,
	}
}

// loadConfig reads a YAML bench configuration from path. An empty path
// returns defaultConfig() unchanged.
func loadConfig(path string) (benchConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading bench config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing bench config: %w", err)
	}
	if cfg.ShardCount <= 0 {
		return cfg, fmt.Errorf("shard_count must be positive, got %d", cfg.ShardCount)
	}
	if cfg.MaxConcurrency <= 0 {
		return cfg, fmt.Errorf("max_concurrency must be positive, got %d", cfg.MaxConcurrency)
	}
	return cfg, nil
}
