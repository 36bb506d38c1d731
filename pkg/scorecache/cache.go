// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scorecache memoizes guild scores behind a TTL'd LRU. Scoring
// is deterministic for a fixed snapshot, so a cached entry is exactly
// as good as a fresh computation until the snapshot is replaced.
package scorecache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/verdanta/guildcore/pkg/scoring"
)

const (
	// DefaultCapacity bounds the number of cached guilds.
	DefaultCapacity = 4096

	// DefaultTTL expires entries that outlive operator expectations of
	// reference-data freshness.
	DefaultTTL = 15 * time.Minute
)

// Metrics counts cache traffic. Register once per process; tests use an
// isolated registry.
type Metrics struct {
	Hits      prometheus.Counter
	Misses    prometheus.Counter
	Evictions prometheus.Counter
	Purges    prometheus.Counter
}

// NewMetrics registers the cache counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Hits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "guildcore", Subsystem: "scorecache", Name: "hits_total",
			Help: "Guild score cache hits.",
		}),
		Misses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "guildcore", Subsystem: "scorecache", Name: "misses_total",
			Help: "Guild score cache misses.",
		}),
		Evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "guildcore", Subsystem: "scorecache", Name: "evictions_total",
			Help: "Entries evicted by capacity or TTL.",
		}),
		Purges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "guildcore", Subsystem: "scorecache", Name: "purges_total",
			Help: "Wholesale cache invalidations.",
		}),
	}
}

// ComputeFunc produces a guild score on a cache miss.
type ComputeFunc func(ctx context.Context) (*scoring.GuildScore, error)

// Cache is a TTL'd LRU over canonical guild keys.
//
// # Thread Safety
//
// Safe for concurrent use. Concurrent misses for the same key may
// compute twice; scoring is idempotent and read-only, so the duplicate
// work is accepted instead of a stampede lock.
type Cache struct {
	lru     *expirable.LRU[string, *scoring.GuildScore]
	metrics *Metrics
	log     *slog.Logger
}

// Options configures a Cache.
type Options struct {
	// Capacity is the maximum entry count. Default: DefaultCapacity.
	Capacity int

	// TTL is the per-entry lifetime. Default: DefaultTTL.
	TTL time.Duration

	// Metrics receives hit/miss counters. Nil disables instrumentation.
	Metrics *Metrics
}

// New creates a Cache.
func New(opts Options) *Cache {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	c := &Cache{
		metrics: opts.Metrics,
		log:     slog.Default().With("component", "scorecache"),
	}
	onEvict := func(string, *scoring.GuildScore) {
		if c.metrics != nil {
			c.metrics.Evictions.Inc()
		}
	}
	c.lru = expirable.NewLRU[string, *scoring.GuildScore](opts.Capacity, onEvict, opts.TTL)
	return c
}

// Key hashes a canonical guild key into the stored cache key.
func Key(canonical string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(canonical))
}

// GetOrCompute returns the cached score for a canonical key, computing
// and storing it on a miss. A compute failure is returned without
// caching: errors are never memoized.
func (c *Cache) GetOrCompute(ctx context.Context, canonical string, compute ComputeFunc) (*scoring.GuildScore, error) {
	key := Key(canonical)
	if score, ok := c.lru.Get(key); ok {
		if c.metrics != nil {
			c.metrics.Hits.Inc()
		}
		return score, nil
	}
	if c.metrics != nil {
		c.metrics.Misses.Inc()
	}

	score, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, score)
	return score, nil
}

// Get returns a cached score without computing.
func (c *Cache) Get(canonical string) (*scoring.GuildScore, bool) {
	score, ok := c.lru.Get(Key(canonical))
	if c.metrics != nil {
		if ok {
			c.metrics.Hits.Inc()
		} else {
			c.metrics.Misses.Inc()
		}
	}
	return score, ok
}

// Len reports the current entry count.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge drops every entry. Called when the snapshot or reference data
// is replaced: stale scores must not outlive their inputs.
func (c *Cache) Purge() {
	c.lru.Purge()
	if c.metrics != nil {
		c.metrics.Purges.Inc()
	}
	c.log.Info("score cache purged")
}
