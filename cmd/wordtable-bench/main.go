// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Command wordtable-bench drives a configurable insert/get/delete workload
// against sharded wordtable.Table instances and reports throughput.
package main

import (
	"context"
	"flag"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	wtglog "github.com/coalesced/wordtable/glog"
	"github.com/coalesced/wordtable/logger"
	"github.com/coalesced/wordtable/monitor"
	"github.com/coalesced/wordtable/sliceutils"
	"github.com/coalesced/wordtable/sync/semaphore"
	"github.com/coalesced/wordtable/wordtable"
)

var (
	configPath  = flag.String("config", "", "path to a YAML bench config; defaults built in if unset")
	monitorAddr = flag.String("monitor-addr", "", "if set, serve /debug and /metrics on this address for the run's duration")
	log2        logger.Logger = &wtglog.Glog{}
)

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log2.Fatalf("loading bench config: %s", err)
	}

	shards := make([]*wordtable.Table[uint64], cfg.ShardCount)
	for i := range shards {
		shards[i] = wordtable.New[uint64](uint(cfg.InitialCapacity) / uint(cfg.ShardCount))
	}

	if *monitorAddr != "" {
		mon := monitor.NewMonitorServer(*monitorAddr, shards[0])
		go mon.Run()
	}

	keys := generateKeys(cfg.SampleSize)
	shardKeys := shardByIndex(keys, cfg.ShardCount)

	sem := semaphore.NewWeighted(cfg.MaxConcurrency)
	var limiter *rate.Limiter
	if cfg.InsertRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.InsertRatePerSecond), int(cfg.InsertRatePerSecond))
	}

	log2.Infof("starting run: %d keys across %d shards (capacity %d each)",
		cfg.SampleSize, cfg.ShardCount, shards[0].Capacity())

	insertElapsed := runPhase(sem, shards, shardKeys, func(t *wordtable.Table[uint64], k uint) error {
		if limiter != nil {
			if err := limiter.Wait(context.Background()); err != nil {
				return err
			}
		}
		t.Insert(k, uint64(k))
		return nil
	})
	log2.Infof("insert phase: %s", insertElapsed)

	var misses int64
	getElapsed := runPhase(sem, shards, shardKeys, func(t *wordtable.Table[uint64], k uint) error {
		if _, ok := t.Get(k); !ok {
			atomic.AddInt64(&misses, 1)
		}
		return nil
	})
	log2.Infof("get phase: %s (%d misses)", getElapsed, misses)

	deleteElapsed := runPhase(sem, shards, shardKeys, func(t *wordtable.Table[uint64], k uint) error {
		t.Delete(k)
		return nil
	})
	log2.Infof("delete phase: %s", deleteElapsed)

	summaries := make([]string, len(shards))
	for i, t := range shards {
		summaries[i] = fmt.Sprintf("shard %d: count=%d capacity=%d load_factor=%.4f",
			i, t.Count(), t.Capacity(), t.LoadFactor())
		fmt.Println(summaries[i])
	}
	log2.Info(sliceutils.ToAnySlice(summaries)...)
}

// generateKeys returns n pseudo-random machine-word keys using the faster,
// non-cryptographic x/exp/rand generator rather than math/rand's default
// source.
func generateKeys(n uint64) []uint {
	rng := rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	keys := make([]uint, n)
	for i := range keys {
		keys[i] = uint(rng.Uint64())
	}
	return keys
}

func shardByIndex(keys []uint, shardCount int) [][]uint {
	shards := make([][]uint, shardCount)
	for i, k := range keys {
		shards[i%shardCount] = append(shards[i%shardCount], k)
	}
	return shards
}

// runPhase applies op to every key in its shard's slice, one goroutine per
// shard, bounded by sem so a run with more shards than available CPU
// budget doesn't oversubscribe the machine.
func runPhase(sem *semaphore.Weighted, shards []*wordtable.Table[uint64], shardKeys [][]uint,
	op func(*wordtable.Table[uint64], uint) error) time.Duration {
	start := time.Now()
	var g errgroup.Group
	for i := range shards {
		i := i
		g.Go(func() error {
			ctx := context.Background()
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			for _, k := range shardKeys[i] {
				if err := op(shards[i], k); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log2.Fatalf("phase failed: %s", err)
	}
	return time.Since(start)
}
