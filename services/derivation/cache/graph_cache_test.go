// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
	snapstore "github.com/AleutianAI/TheoremMap/services/derivation/storage/badger"
)

func testGraph(t *testing.T, from, to, name string) *graph.Graph {
	t.Helper()
	g := graph.NewGraph()
	_, err := g.AddEdge(graph.Edge{From: from, To: to, ObjectName: name, Location: "L"})
	require.NoError(t, err)
	g.Freeze()
	return g
}

func newWarm(t *testing.T) *snapstore.Store {
	t.Helper()
	s, err := snapstore.Open(snapstore.InMemoryConfig())
	require.NoError(t, err)
	return s
}

func newCache(t *testing.T, warm WarmStore, opts ...CacheOption) *GraphCache {
	t.Helper()
	c, err := NewGraphCache(warm, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestKey(t *testing.T) {
	assert.Equal(t, "abc:base", Key("abc", false))
	assert.Equal(t, "abc:augmented", Key("abc", true))
	assert.NotEqual(t, Key("abc", false), Key("abc", true))
}

func TestNewGraphCache_InvalidSize(t *testing.T) {
	_, err := NewGraphCache(nil, WithHotEntries(0))
	assert.Error(t, err)
}

func TestGraphCache_GetOrBuild_Tiers(t *testing.T) {
	c := newCache(t, newWarm(t))
	ctx := context.Background()

	var calls int
	build := func(context.Context) (*graph.Graph, error) {
		calls++
		return testGraph(t, "p", "q", "a"), nil
	}

	g, tier, err := c.GetOrBuild(ctx, "k", build)
	require.NoError(t, err)
	assert.Equal(t, TierBuild, tier)
	assert.True(t, g.HasNode("p"))

	g2, tier, err := c.GetOrBuild(ctx, "k", build)
	require.NoError(t, err)
	assert.Equal(t, TierHot, tier)
	assert.Same(t, g, g2)

	// Dropping the hot entry forces a warm restore.
	c.hot.Remove("k")
	g3, tier, err := c.GetOrBuild(ctx, "k", build)
	require.NoError(t, err)
	assert.Equal(t, TierWarm, tier)
	assert.True(t, g3.Equal(g))
	assert.True(t, g3.IsFrozen())

	assert.Equal(t, 1, calls)
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Builds)
	assert.Equal(t, int64(1), stats.HotHits)
	assert.Equal(t, int64(1), stats.WarmHits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestGraphCache_WarmSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	cfg := snapstore.DefaultConfig(dir)
	cfg.GCInterval = 0

	warm, err := snapstore.Open(cfg)
	require.NoError(t, err)
	c1, err := NewGraphCache(warm)
	require.NoError(t, err)
	require.NoError(t, c1.Put(ctx, "k", testGraph(t, "p", "q", "a")))
	require.NoError(t, c1.Close())

	warm2, err := snapstore.Open(cfg)
	require.NoError(t, err)
	c2 := newCache(t, warm2)

	g, tier, err := c2.GetOrBuild(ctx, "k", func(context.Context) (*graph.Graph, error) {
		t.Fatal("build must not run")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, TierWarm, tier)
	e, ok := g.Edge("p", "q")
	require.True(t, ok)
	assert.Equal(t, "a", e.ObjectName)
}

func TestGraphCache_MemoryOnly(t *testing.T) {
	c := newCache(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", testGraph(t, "p", "q", "a")))
	_, tier, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, TierHot, tier)

	require.NoError(t, c.Invalidate(ctx, "k"))
	_, _, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGraphCache_Invalidate(t *testing.T) {
	warm := newWarm(t)
	c := newCache(t, warm)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", testGraph(t, "p", "q", "a")))
	require.NoError(t, c.Invalidate(ctx, "k"))

	_, ok, err := warm.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGraphCache_Put_RejectsUnfrozen(t *testing.T) {
	c := newCache(t, nil)

	err := c.Put(context.Background(), "k", graph.NewGraph())
	assert.ErrorIs(t, err, ErrNotFrozen)
	assert.ErrorIs(t, c.Put(context.Background(), "k", nil), graph.ErrNilGraph)
}

func TestGraphCache_BuildErrorCached(t *testing.T) {
	c := newCache(t, nil, WithErrorCacheTTL(time.Minute))
	ctx := context.Background()
	boom := errors.New("boom")

	var calls int
	build := func(context.Context) (*graph.Graph, error) {
		calls++
		return nil, boom
	}

	_, _, err := c.GetOrBuild(ctx, "k", build)
	assert.ErrorIs(t, err, boom)

	_, _, err = c.GetOrBuild(ctx, "k", build)
	var bf *ErrBuildFailed
	require.True(t, errors.As(err, &bf))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "k", bf.Key)
	assert.Equal(t, 1, calls)

	// A successful Put clears the remembered failure.
	require.NoError(t, c.Put(ctx, "k", testGraph(t, "p", "q", "a")))
	_, tier, err := c.GetOrBuild(ctx, "k", build)
	require.NoError(t, err)
	assert.Equal(t, TierHot, tier)
}

func TestGraphCache_BuildErrorNotCachedWhenDisabled(t *testing.T) {
	c := newCache(t, nil, WithErrorCacheTTL(0))
	boom := errors.New("boom")

	var calls int
	build := func(context.Context) (*graph.Graph, error) {
		calls++
		return nil, boom
	}
	_, _, _ = c.GetOrBuild(context.Background(), "k", build)
	_, _, _ = c.GetOrBuild(context.Background(), "k", build)
	assert.Equal(t, 2, calls)
}

func TestGraphCache_BuildReturnsUnfrozen(t *testing.T) {
	c := newCache(t, nil)

	_, _, err := c.GetOrBuild(context.Background(), "k", func(context.Context) (*graph.Graph, error) {
		return graph.NewGraph(), nil
	})
	assert.ErrorIs(t, err, ErrNotFrozen)
}

func TestGraphCache_ConcurrentBuildsShared(t *testing.T) {
	c := newCache(t, newWarm(t))
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	build := func(context.Context) (*graph.Graph, error) {
		calls.Add(1)
		<-release
		return testGraph(t, "p", "q", "a"), nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*graph.Graph, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, _, err := c.GetOrBuild(ctx, "k", build)
			assert.NoError(t, err)
			results[i] = g
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, g := range results {
		assert.Same(t, results[0], g)
	}
}

func TestGraphCache_CorruptWarmEntry(t *testing.T) {
	warm := newWarm(t)
	c := newCache(t, warm)
	ctx := context.Background()

	require.NoError(t, warm.Put(ctx, "k", []byte("not a snapshot")))

	g, tier, err := c.GetOrBuild(ctx, "k", func(context.Context) (*graph.Graph, error) {
		return testGraph(t, "x", "y", "b"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, TierBuild, tier)
	assert.True(t, g.HasNode("x"))
	assert.Equal(t, int64(1), c.Stats().WarmErrs)
}

func TestGraphCache_HotEviction(t *testing.T) {
	c := newCache(t, nil, WithHotEntries(1))
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a", testGraph(t, "p", "q", "a")))
	require.NoError(t, c.Put(ctx, "b", testGraph(t, "p", "q", "b")))

	_, _, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Stats().HotEntries)
}

func TestGraphCache_Closed(t *testing.T) {
	c, err := NewGraphCache(newWarm(t))
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, _, err = c.GetOrBuild(context.Background(), "k", nil)
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.ErrorIs(t, c.Put(context.Background(), "k", nil), ErrCacheClosed)
	assert.ErrorIs(t, c.Invalidate(context.Background(), "k"), ErrCacheClosed)
}
