// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache memoizes derivation graphs by the records they were built
// from.
//
// Lookups go through two tiers before building:
//
//	Hot  - decoded *graph.Graph values in an in-process LRU
//	Warm - encoded snapshots in a WarmStore (BadgerDB on disk)
//
// A build writes through to both tiers. Concurrent misses for the same
// key share one build.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
)

// GraphCache memoizes frozen derivation graphs.
//
// Thread Safety:
//
//	GraphCache is safe for concurrent use. Cached graphs are frozen and
//	shared between callers; they must not be modified.
type GraphCache struct {
	hot    *lru.Cache[string, *graph.Graph]
	warm   WarmStore
	flight singleflight.Group
	logger *slog.Logger
	opts   CacheOptions

	failedMu     sync.Mutex
	failedBuilds map[string]*failedBuild

	closed atomic.Bool

	hotHits   atomic.Int64
	warmHits  atomic.Int64
	misses    atomic.Int64
	builds    atomic.Int64
	buildErrs atomic.Int64
	warmErrs  atomic.Int64
}

// NewGraphCache creates a cache.
//
// Inputs:
//
//	warm - Optional snapshot store. Nil keeps the cache memory-only.
//	       The cache takes ownership and closes it on Close().
//	opts - Functional options.
//
// Outputs:
//
//	*GraphCache - The cache.
//	error - Non-nil if HotEntries is not positive.
func NewGraphCache(warm WarmStore, opts ...CacheOption) (*GraphCache, error) {
	options := DefaultCacheOptions()
	for _, opt := range opts {
		opt(&options)
	}

	hot, err := lru.New[string, *graph.Graph](options.HotEntries)
	if err != nil {
		return nil, fmt.Errorf("create hot tier: %w", err)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GraphCache{
		hot:          hot,
		warm:         warm,
		logger:       logger.With("component", "graph_cache"),
		opts:         options,
		failedBuilds: make(map[string]*failedBuild),
	}, nil
}

// Get returns a cached graph without building.
func (c *GraphCache) Get(ctx context.Context, key string) (*graph.Graph, Tier, bool, error) {
	if c.closed.Load() {
		return nil, "", false, ErrCacheClosed
	}

	if g, ok := c.hot.Get(key); ok {
		c.hotHits.Add(1)
		lookupsTotal.WithLabelValues(string(TierHot)).Inc()
		return g, TierHot, true, nil
	}

	g, ok := c.loadWarm(ctx, key)
	if ok {
		c.warmHits.Add(1)
		lookupsTotal.WithLabelValues(string(TierWarm)).Inc()
		c.hot.Add(key, g)
		return g, TierWarm, true, nil
	}
	return nil, "", false, nil
}

// GetOrBuild returns the graph for key, building it on a miss.
//
// Description:
//
//	Checks the hot tier, then the warm tier, then calls build. Concurrent
//	callers for the same key wait for a single build. A successful build
//	is written through to both tiers; a warm write failure is logged and
//	does not fail the call. A failed build is remembered for
//	ErrorCacheTTL and reported as *ErrBuildFailed until then.
//
// Outputs:
//
//	*graph.Graph - The frozen graph.
//	Tier - Where the graph came from.
//	error - ErrCacheClosed, *ErrBuildFailed, or the build's error.
func (c *GraphCache) GetOrBuild(ctx context.Context, key string, build BuildFunc) (*graph.Graph, Tier, error) {
	if g, tier, ok, err := c.Get(ctx, key); err != nil {
		return nil, "", err
	} else if ok {
		return g, tier, nil
	}

	if fb := c.cachedError(key); fb != nil {
		return nil, "", &ErrBuildFailed{Key: key, Err: fb.err, FailedAt: fb.failedAt, RetryAt: fb.retryAt}
	}

	c.misses.Add(1)
	lookupsTotal.WithLabelValues(string(TierBuild)).Inc()

	result, err, shared := c.flight.Do(key, func() (interface{}, error) {
		start := time.Now()
		g, err := build(ctx)
		buildDuration.Observe(time.Since(start).Seconds())
		switch {
		case err != nil:
		case g == nil:
			err = graph.ErrNilGraph
		case !g.IsFrozen():
			err = ErrNotFrozen
		}
		if err != nil {
			c.buildErrs.Add(1)
			buildErrorsTotal.Inc()
			c.cacheError(key, err)
			return nil, err
		}
		c.builds.Add(1)

		if err := c.Put(ctx, key, g); err != nil {
			c.logger.Warn("write-through failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return g, nil
	})
	if err != nil {
		return nil, "", err
	}
	if shared {
		c.logger.Debug("shared in-flight build", slog.String("key", key))
	}
	return result.(*graph.Graph), TierBuild, nil
}

// Put stores a frozen graph in both tiers.
//
// The hot tier is always updated; an error means the warm write failed.
func (c *GraphCache) Put(ctx context.Context, key string, g *graph.Graph) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if g == nil {
		return graph.ErrNilGraph
	}
	if !g.IsFrozen() {
		return ErrNotFrozen
	}

	c.hot.Add(key, g)
	c.clearCachedError(key)

	if c.warm == nil {
		return nil
	}
	data, err := graph.EncodeSnapshot(g)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.warm.Put(ctx, key, data); err != nil {
		c.warmErrs.Add(1)
		warmErrorsTotal.WithLabelValues("put").Inc()
		return err
	}
	snapshotBytes.Observe(float64(len(data)))
	return nil
}

// Invalidate drops key from both tiers and forgets any cached error.
func (c *GraphCache) Invalidate(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	c.hot.Remove(key)
	c.clearCachedError(key)
	if c.warm == nil {
		return nil
	}
	if err := c.warm.Delete(ctx, key); err != nil {
		c.warmErrs.Add(1)
		warmErrorsTotal.WithLabelValues("delete").Inc()
		return err
	}
	return nil
}

// Stats returns a snapshot of the cache counters.
func (c *GraphCache) Stats() CacheStats {
	return CacheStats{
		HotHits:    c.hotHits.Load(),
		WarmHits:   c.warmHits.Load(),
		Misses:     c.misses.Load(),
		Builds:     c.builds.Load(),
		BuildErrs:  c.buildErrs.Load(),
		WarmErrs:   c.warmErrs.Load(),
		HotEntries: c.hot.Len(),
	}
}

// Close purges the hot tier and closes the warm store.
// Safe to call multiple times.
func (c *GraphCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.hot.Purge()
	if c.warm != nil {
		return c.warm.Close()
	}
	return nil
}

// loadWarm restores a graph from the warm tier. Unreadable or corrupt
// snapshots count as misses; corrupt ones are deleted.
func (c *GraphCache) loadWarm(ctx context.Context, key string) (*graph.Graph, bool) {
	if c.warm == nil {
		return nil, false
	}

	data, ok, err := c.warm.Get(ctx, key)
	if err != nil {
		c.warmErrs.Add(1)
		warmErrorsTotal.WithLabelValues("get").Inc()
		c.logger.Warn("warm tier read failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	g, err := graph.DecodeSnapshot(data)
	if err != nil {
		c.warmErrs.Add(1)
		warmErrorsTotal.WithLabelValues("decode").Inc()
		c.logger.Warn("discarding corrupt snapshot", slog.String("key", key), slog.String("error", err.Error()))
		_ = c.warm.Delete(ctx, key)
		return nil, false
	}
	return g, true
}

func (c *GraphCache) cachedError(key string) *failedBuild {
	c.failedMu.Lock()
	defer c.failedMu.Unlock()

	fb, ok := c.failedBuilds[key]
	if !ok {
		return nil
	}
	if time.Now().After(fb.retryAt) {
		delete(c.failedBuilds, key)
		return nil
	}
	return fb
}

func (c *GraphCache) cacheError(key string, err error) {
	if c.opts.ErrorCacheTTL <= 0 {
		return
	}
	now := time.Now()

	c.failedMu.Lock()
	defer c.failedMu.Unlock()
	c.failedBuilds[key] = &failedBuild{
		err:      err,
		failedAt: now,
		retryAt:  now.Add(c.opts.ErrorCacheTTL),
	}
}

func (c *GraphCache) clearCachedError(key string) {
	c.failedMu.Lock()
	defer c.failedMu.Unlock()
	delete(c.failedBuilds, key)
}
