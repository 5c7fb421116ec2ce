// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/AleutianAI/TheoremMap/pkg/logging"
	"github.com/AleutianAI/TheoremMap/services/derivation/cache"
	"github.com/AleutianAI/TheoremMap/services/derivation/config"
	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
	"github.com/AleutianAI/TheoremMap/services/derivation/pipeline"
	"github.com/AleutianAI/TheoremMap/services/derivation/records"
	snapstore "github.com/AleutianAI/TheoremMap/services/derivation/storage/badger"
)

// errNoObjects is returned when no object-list files are configured.
var errNoObjects = errors.New("no object lists configured (use --objects or THEOREMMAP_OBJECTS)")

// app is the per-invocation wiring shared by the subcommands.
type app struct {
	cfg    *config.Config
	log    *logging.Logger
	logger *slog.Logger

	store *snapstore.Store
	cache *cache.GraphCache
}

func newApp(cfg *config.Config, stderr io.Writer, quiet bool) (*app, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, withExitCode(ExitBadArgs, err)
	}
	log := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "theoremmap",
		JSON:    cfg.Logging.JSON,
		Quiet:   quiet,
		Output:  stderr,
	})
	return &app{cfg: cfg, log: log, logger: log.Slog()}, nil
}

// openCache opens the snapshot store and graph cache when enabled.
func (a *app) openCache() error {
	if !a.cfg.Cache.Enabled || a.cache != nil {
		return nil
	}

	storeCfg := snapstore.DefaultConfig(a.cfg.Cache.Dir)
	if a.cfg.Cache.InMemory {
		storeCfg = snapstore.InMemoryConfig()
	}
	storeCfg.SyncWrites = a.cfg.Cache.SyncWrites
	storeCfg.TTL = a.cfg.Cache.TTL
	storeCfg.Logger = a.logger

	store, err := snapstore.Open(storeCfg)
	if err != nil {
		return fmt.Errorf("open graph cache: %w", err)
	}
	c, err := cache.NewGraphCache(store,
		cache.WithHotEntries(a.cfg.Cache.HotEntries),
		cache.WithLogger(a.logger),
	)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create graph cache: %w", err)
	}
	a.store = store
	a.cache = c
	return nil
}

func (a *app) pipeline() *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithAugment(a.cfg.Augment),
		pipeline.WithLogger(a.logger),
		pipeline.WithBuilderOptions(
			graph.WithBuilderMaxNodes(a.cfg.Builder.MaxNodes),
			graph.WithBuilderMaxEdges(a.cfg.Builder.MaxEdges),
		),
	}
	if a.cache != nil {
		opts = append(opts, pipeline.WithCache(a.cache))
	}
	return pipeline.New(opts...)
}

func (a *app) loadRecords(ctx context.Context) ([]records.Record, error) {
	if len(a.cfg.Objects) == 0 {
		return nil, withExitCode(ExitBadArgs, errNoObjects)
	}
	return records.LoadAll(ctx, a.cfg.Objects)
}

// graph loads the configured records and returns their graph.
func (a *app) graph(ctx context.Context) (*graph.Graph, []records.Record, error) {
	recs, err := a.loadRecords(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := a.openCache(); err != nil {
		return nil, nil, err
	}
	g, err := a.pipeline().Graph(ctx, recs)
	if err != nil {
		return nil, nil, err
	}
	return g, recs, nil
}

// Close releases the cache (which closes the store) and the log file.
func (a *app) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	errs = append(errs, a.log.Close())
	return errors.Join(errs...)
}
