// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline wires records, the builder, the augmenter and the
// cache into the flow used by the CLI and the server:
//
//	records → Build → (Augment) → FindPath
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/TheoremMap/services/derivation/cache"
	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
	"github.com/AleutianAI/TheoremMap/services/derivation/records"
)

// Options configures a Pipeline.
type Options struct {
	// Augment extends built graphs with conjunction edges.
	// Default: true
	Augment bool

	// Cache memoizes graphs by record hash. Nil disables caching.
	Cache *cache.GraphCache

	// BuilderOptions are passed to every graph.Builder.
	BuilderOptions []graph.BuilderOption

	// Logger is the base logger. Default: slog.Default()
	Logger *slog.Logger
}

// Option is a functional option for configuring Pipeline.
type Option func(*Options)

// WithAugment enables or disables augmentation.
func WithAugment(enabled bool) Option {
	return func(o *Options) {
		o.Augment = enabled
	}
}

// WithCache sets the graph cache.
func WithCache(c *cache.GraphCache) Option {
	return func(o *Options) {
		o.Cache = c
	}
}

// WithBuilderOptions appends options for the graph builder.
func WithBuilderOptions(opts ...graph.BuilderOption) Option {
	return func(o *Options) {
		o.BuilderOptions = append(o.BuilderOptions, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Pipeline produces derivation graphs and answers path queries.
//
// Thread Safety: Safe for concurrent use.
type Pipeline struct {
	builder   *graph.Builder
	augmenter *graph.Augmenter
	cache     *cache.GraphCache
	augment   bool
	logger    *slog.Logger
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	options := Options{Augment: true}
	for _, opt := range opts {
		opt(&options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	builderOpts := append([]graph.BuilderOption{graph.WithBuilderLogger(logger)}, options.BuilderOptions...)
	return &Pipeline{
		builder:   graph.NewBuilder(builderOpts...),
		augmenter: graph.NewAugmenter(logger),
		cache:     options.Cache,
		augment:   options.Augment,
		logger:    logger.With("component", "derivation_pipeline"),
	}
}

// Augmenting reports whether graphs are augmented.
func (p *Pipeline) Augmenting() bool {
	return p.augment
}

// Graph returns the derivation graph for recs.
//
// Description:
//
//	Builds the base graph and, when augmentation is enabled, its
//	augmentation. With a cache, both stages are memoized under
//	cache.Key(records.Hash(recs), augmented), so an augmented miss can
//	still reuse a cached base graph.
//
//	Malformed records are skipped and logged; they do not fail the call.
//
// Outputs:
//
//	*graph.Graph - The frozen graph.
//	error - A capacity error from the builder, or a cache error.
func (p *Pipeline) Graph(ctx context.Context, recs []records.Record) (*graph.Graph, error) {
	hash := records.Hash(recs)
	if !p.augment {
		return p.base(ctx, hash, recs)
	}

	augment := func(ctx context.Context) (*graph.Graph, error) {
		base, err := p.base(ctx, hash, recs)
		if err != nil {
			return nil, err
		}
		result, err := p.augmenter.Augment(ctx, base)
		if err != nil {
			return nil, fmt.Errorf("augment graph: %w", err)
		}
		for _, ee := range result.EdgeErrors {
			p.logger.Warn("edge not augmented", slog.String("error", ee.Error()))
		}
		return result.Graph, nil
	}

	if p.cache == nil {
		return augment(ctx)
	}
	g, tier, err := p.cache.GetOrBuild(ctx, cache.Key(hash, true), augment)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("augmented graph ready", slog.String("tier", string(tier)), slog.String("records_hash", hash))
	return g, nil
}

// base returns the unaugmented graph, through the cache when present.
func (p *Pipeline) base(ctx context.Context, hash string, recs []records.Record) (*graph.Graph, error) {
	build := func(ctx context.Context) (*graph.Graph, error) {
		result, err := p.builder.Build(ctx, recs)
		if err != nil {
			return nil, fmt.Errorf("build graph: %w", err)
		}
		for _, re := range result.RecordErrors {
			p.logger.Warn("record skipped", slog.String("error", re.Error()))
		}
		return result.Graph, nil
	}

	if p.cache == nil {
		return build(ctx)
	}
	g, tier, err := p.cache.GetOrBuild(ctx, cache.Key(hash, false), build)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("base graph ready", slog.String("tier", string(tier)), slog.String("records_hash", hash))
	return g, nil
}

// Search returns a shortest derivation from source to target over the
// graph for recs.
//
// Outputs:
//
//	*graph.Derivation - The chain.
//	error - graph.ErrNodeNotFound, graph.ErrNoPath (test with errors.Is),
//	        or a Graph error.
func (p *Pipeline) Search(ctx context.Context, recs []records.Record, source, target string) (*graph.Derivation, error) {
	g, err := p.Graph(ctx, recs)
	if err != nil {
		return nil, err
	}
	return graph.FindPath(ctx, g, source, target)
}
