// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/TheoremMap/services/derivation/cache"
	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
	"github.com/AleutianAI/TheoremMap/services/derivation/records"
)

var library = []records.Record{
	{Name: "f", Signature: "p → q → r", Location: "Lib.F"},
	{Name: "g", Signature: "r → s", Location: "Lib.G"},
	{Name: "broken", Signature: "(p", Location: "Lib.Bad"},
}

func TestPipeline_Graph_Augmented(t *testing.T) {
	p := New()
	assert.True(t, p.Augmenting())

	g, err := p.Graph(context.Background(), library)
	require.NoError(t, err)
	assert.True(t, g.IsFrozen())
	assert.True(t, g.HasNode("p ∧ q"))
}

func TestPipeline_Graph_BaseOnly(t *testing.T) {
	p := New(WithAugment(false))

	g, err := p.Graph(context.Background(), library)
	require.NoError(t, err)
	assert.False(t, g.HasNode("p ∧ q"))
	assert.Equal(t, 2, g.EdgeCount())
}

func TestPipeline_Search(t *testing.T) {
	p := New()

	d, err := p.Search(context.Background(), library, "p ∧ q", "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lib.F", "Lib.G"}, d.Locations())

	_, err = p.Search(context.Background(), library, "s", "p")
	assert.ErrorIs(t, err, graph.ErrNoPath)

	_, err = p.Search(context.Background(), library, "unknown", "s")
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestPipeline_Graph_Cached(t *testing.T) {
	c, err := cache.NewGraphCache(nil)
	require.NoError(t, err)
	defer c.Close()

	p := New(WithCache(c))
	ctx := context.Background()

	first, err := p.Graph(ctx, library)
	require.NoError(t, err)
	second, err := p.Graph(ctx, library)
	require.NoError(t, err)

	assert.Same(t, first, second)
	stats := c.Stats()
	// Base and augmented graphs were each built once.
	assert.Equal(t, int64(2), stats.Builds)
	assert.Equal(t, int64(1), stats.HotHits)

	// The base graph is reusable by a pipeline that does not augment.
	base, err := New(WithCache(c), WithAugment(false)).Graph(ctx, library)
	require.NoError(t, err)
	assert.False(t, base.HasNode("p ∧ q"))
	assert.Equal(t, int64(2), c.Stats().Builds)
}

func TestPipeline_Graph_CapacityError(t *testing.T) {
	p := New(WithBuilderOptions(graph.WithBuilderMaxEdges(1)))

	_, err := p.Graph(context.Background(), library)
	assert.ErrorIs(t, err, graph.ErrMaxEdgesExceeded)
}
