// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/TheoremMap/services/derivation/cache"
	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
	"github.com/AleutianAI/TheoremMap/services/derivation/pipeline"
	"github.com/AleutianAI/TheoremMap/services/derivation/records"
)

// ErrNotReady is returned before the first successful load.
var ErrNotReady = errors.New("derivation graph not loaded")

// Loader returns the records to serve.
type Loader func(ctx context.Context) ([]records.Record, error)

// FileLoader loads object-list files with records.LoadAll.
func FileLoader(paths []string) Loader {
	return func(ctx context.Context) ([]records.Record, error) {
		return records.LoadAll(ctx, paths)
	}
}

// loaded is one immutable generation of served state.
type loaded struct {
	graph         *graph.Graph
	records       int
	recordsHash   string
	loadedAtMilli int64
}

// Service holds the graph currently being served.
//
// Thread Safety:
//
//	Readers take the current generation with a single atomic load and
//	never block. Reload builds the next generation off to the side and
//	swaps it in; concurrent reloads are serialized.
type Service struct {
	pipeline *pipeline.Pipeline
	cache    *cache.GraphCache
	load     Loader
	logger   *slog.Logger

	current  atomic.Pointer[loaded]
	reloadMu sync.Mutex
}

// NewService creates a Service. c may be nil when caching is disabled; it
// is only used for statistics, the pipeline owns cache lookups.
func NewService(p *pipeline.Pipeline, c *cache.GraphCache, load Loader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pipeline: p,
		cache:    c,
		load:     load,
		logger:   logger.With("component", "derivation_service"),
	}
}

// Reload loads records and swaps in the resulting graph.
//
// On failure the previous graph stays in service.
func (s *Service) Reload(ctx context.Context) (*graph.Graph, int, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	recs, err := s.load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load records: %w", err)
	}
	g, err := s.pipeline.Graph(ctx, recs)
	if err != nil {
		return nil, 0, err
	}

	next := &loaded{
		graph:         g,
		records:       len(recs),
		recordsHash:   records.Hash(recs),
		loadedAtMilli: time.Now().UnixMilli(),
	}
	s.current.Store(next)

	s.logger.Info("derivation graph loaded",
		slog.Int("records", len(recs)),
		slog.Int("nodes", g.NodeCount()),
		slog.Int("edges", g.EdgeCount()),
		slog.Duration("duration", time.Since(start)),
	)
	return g, len(recs), nil
}

// Graph returns the graph in service.
func (s *Service) Graph() (*graph.Graph, error) {
	cur := s.current.Load()
	if cur == nil {
		return nil, ErrNotReady
	}
	return cur.graph, nil
}

// Ready reports whether a graph has been loaded.
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

// Path finds a derivation over the graph in service.
func (s *Service) Path(ctx context.Context, source, target string) (*graph.Derivation, error) {
	g, err := s.Graph()
	if err != nil {
		return nil, err
	}
	return graph.FindPath(ctx, g, source, target)
}

// Stats describes the graph in service.
func (s *Service) Stats() (*StatsResponse, error) {
	cur := s.current.Load()
	if cur == nil {
		return nil, ErrNotReady
	}
	resp := &StatsResponse{
		Graph:         cur.graph.Stats(),
		Records:       cur.records,
		RecordsHash:   cur.recordsHash,
		Augmented:     s.pipeline.Augmenting(),
		LoadedAtMilli: cur.loadedAtMilli,
	}
	if s.cache != nil {
		cs := s.cache.Stats()
		resp.Cache = &cs
	}
	return resp, nil
}
