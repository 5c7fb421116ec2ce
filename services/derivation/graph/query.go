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
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/TheoremMap/services/derivation/expr"
)

// Step is one traversed edge of a derivation.
type Step struct {
	From       string `json:"from"`
	To         string `json:"to"`
	ObjectName string `json:"object_name"`
	Location   string `json:"location"`
}

// Derivation is a composition chain from Source to Target.
//
// Applying Steps[0].ObjectName to a value of type Source, then each
// following object to the previous result, yields a value of type Target.
type Derivation struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Steps  []Step `json:"steps"`
}

// Len returns the number of steps.
func (d *Derivation) Len() int {
	return len(d.Steps)
}

// ObjectNames returns the object identifiers in traversal order.
func (d *Derivation) ObjectNames() []string {
	out := make([]string, len(d.Steps))
	for i, s := range d.Steps {
		out[i] = s.ObjectName
	}
	return out
}

// Locations returns the import locations in traversal order.
func (d *Derivation) Locations() []string {
	out := make([]string, len(d.Steps))
	for i, s := range d.Steps {
		out[i] = s.Location
	}
	return out
}

// FindPath returns a shortest derivation from source to target.
//
// Description:
//
//	Both expressions are canonicalized. The search is breadth-first over
//	successors in insertion order, so among equally short paths the one
//	discovered first wins and results are deterministic.
//
// Inputs:
//
//	ctx - Used for tracing and metrics only.
//	g - The graph to search. Must not be nil.
//	source - The proposition held.
//	target - The proposition wanted.
//
// Outputs:
//
//	*Derivation - The chain. Empty when source equals target.
//	error - *NodeNotFoundError when an endpoint is absent (source checked
//	        first), *NoPathError when target is unreachable, ErrNilGraph.
//
// Example:
//
//	d, err := graph.FindPath(ctx, g, "p", "q")
//	if errors.Is(err, graph.ErrNoPath) {
//	    // routine: nothing derives q from p
//	}
func FindPath(ctx context.Context, g *Graph, source, target string) (*Derivation, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	source = expr.Canonical(source)
	target = expr.Canonical(target)

	ctx, span := startSpan(ctx, "DerivationGraph.FindPath",
		attribute.String("path.source", source),
		attribute.String("path.target", target),
	)
	defer span.End()
	start := time.Now()

	d, err := findPath(g, source, target)

	outcome := "found"
	switch {
	case err == nil:
		span.SetAttributes(attribute.Int("path.length", d.Len()))
	case errors.Is(err, ErrNoPath):
		outcome = "no_path"
	default:
		outcome = "not_found"
		span.RecordError(err)
	}
	recordQueryMetrics(ctx, outcome, time.Since(start))
	return d, err
}

func findPath(g *Graph, source, target string) (*Derivation, error) {
	if !g.HasNode(source) {
		return nil, &NodeNotFoundError{Node: source, Role: "source"}
	}
	if !g.HasNode(target) {
		return nil, &NodeNotFoundError{Node: target, Role: "target"}
	}

	d := &Derivation{Source: source, Target: target, Steps: make([]Step, 0)}
	if source == target {
		return d, nil
	}

	parent := map[string]string{source: source}
	queue := []string{source}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.nodes[current].out {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			if next == target {
				d.Steps = reconstruct(g, parent, source, target)
				return d, nil
			}
			queue = append(queue, next)
		}
	}

	return nil, &NoPathError{Source: source, Target: target}
}

// reconstruct walks the parent links back from target and returns the
// traversed edges in forward order.
func reconstruct(g *Graph, parent map[string]string, source, target string) []Step {
	var nodes []string
	for n := target; n != source; n = parent[n] {
		nodes = append(nodes, n)
	}
	nodes = append(nodes, source)

	steps := make([]Step, 0, len(nodes)-1)
	for i := len(nodes) - 1; i > 0; i-- {
		e := g.edges[edgeKey{from: nodes[i], to: nodes[i-1]}]
		steps = append(steps, Step{
			From:       e.From,
			To:         e.To,
			ObjectName: e.ObjectName,
			Location:   e.Location,
		})
	}
	return steps
}
