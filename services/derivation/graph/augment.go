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
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/TheoremMap/services/derivation/expr"
)

// tupleName is the bound variable of synthesized lambdas.
const tupleName = "args"

// Augmenter extends a graph with edges that consume several leading
// arguments of a curried object at once, packaged as a conjunction.
//
// Thread Safety:
//
//	Augmenter is stateless and safe for concurrent use.
type Augmenter struct {
	logger *slog.Logger
}

// NewAugmenter creates an Augmenter. A nil logger uses slog.Default().
func NewAugmenter(logger *slog.Logger) *Augmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Augmenter{logger: logger.With("component", "derivation_augmenter")}
}

// Augment returns a new frozen graph: the base plus synthesized edges.
//
// Description:
//
//	For every base edge A → T whose target splits on the arrow into
//	[B, ..., Z], the terms [A, B, ..., Z] (N of them) yield one edge per
//	prefix length i in 2..N-1:
//
//	  (t1 ∧ ... ∧ ti) → (t(i+1) → ... → Z)
//
//	labelled with a lambda that projects the i tuple components and
//	applies the original object to them. The location is kept.
//
//	Base edges are never overwritten. A synthesized edge whose endpoints
//	already carry a base edge is dropped and counted as a collision.
//
// Inputs:
//
//	ctx - Used for tracing and metrics only.
//	base - The graph to extend. It is read, never modified.
//
// Outputs:
//
//	*AugmentResult - The augmented graph and statistics.
//	error - ErrNilGraph, or a capacity error from the clone's limits.
func (a *Augmenter) Augment(ctx context.Context, base *Graph) (*AugmentResult, error) {
	if base == nil {
		return nil, ErrNilGraph
	}

	ctx, span := startSpan(ctx, "DerivationAugmenter.Augment", attribute.Int("graph.edge_count", base.EdgeCount()))
	defer span.End()

	start := time.Now()
	out := base.Clone()
	result := &AugmentResult{
		Graph:      out,
		EdgeErrors: make([]EdgeError, 0),
	}

	for _, e := range base.Edges() {
		result.Stats.EdgesExamined++

		rest, err := expr.Split(e.To, expr.Arrow)
		if err != nil {
			result.EdgeErrors = append(result.EdgeErrors, EdgeError{From: e.From, To: e.To, ObjectName: e.ObjectName, Err: err})
			continue
		}
		if len(rest) < 2 {
			continue
		}
		result.Stats.MultiArgumentEdges++

		terms := append([]string{e.From}, rest...)
		for i := 2; i < len(terms); i++ {
			domain, err := expr.JoinConjunction(terms[:i])
			if err != nil {
				result.EdgeErrors = append(result.EdgeErrors, EdgeError{From: e.From, To: e.To, ObjectName: e.ObjectName, Err: err})
				break
			}
			edge := Edge{
				From:       domain,
				To:         expr.JoinArrow(terms[i:]),
				ObjectName: SynthesizeName(e.ObjectName, domain, i),
				Location:   e.Location,
			}

			key := edgeKey{from: edge.From, to: edge.To}
			if _, isBase := base.edges[key]; isBase {
				result.Stats.Collisions++
				a.logger.Debug("synthesized edge collides with base edge",
					slog.String("from", edge.From),
					slog.String("to", edge.To),
					slog.String("object", e.ObjectName),
				)
				continue
			}

			replaced, err := out.AddEdge(edge)
			if err != nil {
				out.Freeze()
				return result, err
			}
			if replaced {
				result.Stats.EdgesReplaced++
			} else {
				result.Stats.EdgesSynthesized++
			}
		}
	}

	out.Freeze()
	duration := time.Since(start)
	result.Stats.DurationMicro = duration.Microseconds()

	span.SetAttributes(
		attribute.Int("augment.synthesized", result.Stats.EdgesSynthesized),
		attribute.Int("augment.collisions", result.Stats.Collisions),
	)
	recordAugmentMetrics(ctx, duration, result.Stats.EdgesSynthesized)

	a.logger.Info("derivation graph augmented",
		slog.Int("examined", result.Stats.EdgesExamined),
		slog.Int("multi_argument", result.Stats.MultiArgumentEdges),
		slog.Int("synthesized", result.Stats.EdgesSynthesized),
		slog.Int("collisions", result.Stats.Collisions),
		slog.Int64("duration_us", result.Stats.DurationMicro),
	)

	return result, nil
}

// SynthesizeName builds the identifier of a synthesized edge.
//
// The result is a lambda over one value of the conjunction type that
// applies object to the arity projected components, in order:
//
//	SynthesizeName("a", "p ∧ q ∧ j", 3)
//	  == "(fun (args : p ∧ q ∧ j) => a (args.left) (args.right.left) (args.right.right))"
func SynthesizeName(object, domain string, arity int) string {
	var sb strings.Builder
	sb.WriteString("(fun (")
	sb.WriteString(tupleName)
	sb.WriteString(" : ")
	sb.WriteString(domain)
	sb.WriteString(") => ")
	sb.WriteString(object)
	for k := 0; k < arity; k++ {
		sb.WriteString(" (")
		sb.WriteString(projection(k, arity))
		sb.WriteString(")")
	}
	sb.WriteString(")")
	return sb.String()
}

// projection returns the accessor for component k of a right-nested
// arity-tuple.
func projection(k, arity int) string {
	p := tupleName + strings.Repeat(".right", k)
	if k < arity-1 {
		p += ".left"
	}
	return p
}
