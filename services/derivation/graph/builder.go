// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/TheoremMap/services/derivation/expr"
	"github.com/AleutianAI/TheoremMap/services/derivation/records"
)

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// MaxNodes is the maximum number of nodes (passed to Graph).
	MaxNodes int

	// MaxEdges is the maximum number of edges (passed to Graph).
	MaxEdges int

	// Logger receives build summaries and replaced-edge diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultBuilderOptions returns sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithBuilderMaxNodes sets the maximum number of nodes.
func WithBuilderMaxNodes(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxNodes = n
	}
}

// WithBuilderMaxEdges sets the maximum number of edges.
func WithBuilderMaxEdges(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxEdges = n
	}
}

// WithBuilderLogger sets the logger.
func WithBuilderLogger(l *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		o.Logger = l
	}
}

// Builder constructs derivation graphs from typed-object records.
//
// The builder is stateless and can be reused. Each Build() call creates a
// new graph, so concurrent builds over independent inputs never interfere.
type Builder struct {
	options BuilderOptions
	logger  *slog.Logger
}

// NewBuilder creates a new Builder with the given options.
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		options: options,
		logger:  logger.With("component", "derivation_builder"),
	}
}

// Build constructs a derivation graph.
//
// Description:
//
//	For each record, in input order, the signature is canonicalized and
//	split on the arrow. A single term becomes an isolated node: a nullary
//	fact, not a transformation. Otherwise the first term is the domain and
//	the remaining terms, re-joined with the arrow, are the codomain; one
//	edge domain → codomain is labelled with the record's name and location.
//
//	Only the first argument is peeled off. "A → B → C" gives the single
//	edge A → (B → C); multi-argument consumption is the Augmenter's job.
//
// Inputs:
//
//	ctx - Used for tracing and metrics only. Builds are not cancellable.
//	recs - The records. An empty slice yields an empty graph.
//
// Outputs:
//
//	*BuildResult - The frozen graph, skipped records and statistics.
//	               Never nil.
//	error - Non-nil only when a capacity limit stopped the build; the
//	        result then holds the partial graph with Incomplete set.
func (b *Builder) Build(ctx context.Context, recs []records.Record) (*BuildResult, error) {
	ctx, span := startSpan(ctx, "DerivationBuilder.Build", attribute.Int("graph.record_count", len(recs)))
	defer span.End()

	start := time.Now()
	g := NewGraph(WithMaxNodes(b.options.MaxNodes), WithMaxEdges(b.options.MaxEdges))
	result := &BuildResult{
		Graph:        g,
		RecordErrors: make([]RecordError, 0),
	}

	var fatal error
	for i, rec := range recs {
		if err := b.addRecord(g, rec, &result.Stats); err != nil {
			if errors.Is(err, ErrMaxNodesExceeded) || errors.Is(err, ErrMaxEdgesExceeded) {
				fatal = fmt.Errorf("record %d (%s): %w", i, rec.Name, err)
				result.Incomplete = true
				break
			}
			result.RecordErrors = append(result.RecordErrors, RecordError{Index: i, Name: rec.Name, Err: err})
			result.Stats.RecordsFailed++
			b.logger.Warn("skipping record", slog.Int("index", i), slog.String("name", rec.Name), slog.String("error", err.Error()))
			continue
		}
		result.Stats.RecordsProcessed++
	}

	g.Freeze()
	duration := time.Since(start)
	result.Stats.NodesCreated = g.NodeCount()
	result.Stats.EdgesCreated = g.EdgeCount()
	result.Stats.DurationMicro = duration.Microseconds()

	span.SetAttributes(
		attribute.Int("graph.node_count", g.NodeCount()),
		attribute.Int("graph.edge_count", g.EdgeCount()),
		attribute.Bool("graph.incomplete", result.Incomplete),
	)
	if fatal != nil {
		span.RecordError(fatal)
		span.SetStatus(codes.Error, fatal.Error())
	}
	recordBuildMetrics(ctx, duration, g.EdgeCount(), result.Stats.RecordsFailed, fatal == nil)

	b.logger.Info("derivation graph built",
		slog.Int("records", len(recs)),
		slog.Int("nodes", result.Stats.NodesCreated),
		slog.Int("edges", result.Stats.EdgesCreated),
		slog.Int("skipped", result.Stats.RecordsFailed),
		slog.Int("replaced", result.Stats.EdgesReplaced),
		slog.Int64("duration_us", result.Stats.DurationMicro),
	)

	return result, fatal
}

// addRecord adds the node or edge contributed by one record.
func (b *Builder) addRecord(g *Graph, rec records.Record, stats *BuildStats) error {
	terms, err := expr.Terms(rec.Signature)
	if err != nil {
		return err
	}

	if len(terms) == 1 {
		stats.NullaryRecords++
		_, err := g.AddNode(terms[0])
		return err
	}

	edge := Edge{
		From:       terms[0],
		To:         expr.JoinArrow(terms[1:]),
		ObjectName: rec.Name,
		Location:   rec.Location,
	}
	if prev, ok := g.Edge(edge.From, edge.To); ok {
		b.logger.Debug("replacing edge",
			slog.String("from", edge.From),
			slog.String("to", edge.To),
			slog.String("previous", prev.ObjectName),
			slog.String("object", edge.ObjectName),
		)
	}

	replaced, err := g.AddEdge(edge)
	if err != nil {
		return err
	}
	if replaced {
		stats.EdgesReplaced++
	}
	return nil
}
