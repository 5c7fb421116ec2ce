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
	"encoding/json"
	"fmt"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// Snapshot is the serializable form of a Graph.
//
// Description:
//
//	Nodes and edges are listed in insertion order so that a restored graph
//	reproduces adjacency order, and therefore path tie-breaking, exactly.
//	Node identity and edge labels round-trip byte for byte.
type Snapshot struct {
	Version int      `json:"version"`
	Nodes   []string `json:"nodes"`
	Edges   []Edge   `json:"edges"`
}

// Snapshot captures the graph's nodes and edges.
func (g *Graph) Snapshot() *Snapshot {
	return &Snapshot{
		Version: SnapshotVersion,
		Nodes:   g.Nodes(),
		Edges:   g.Edges(),
	}
}

// FromSnapshot restores a frozen graph from a snapshot.
//
// Outputs:
//
//	*Graph - The restored graph, frozen.
//	error - Wraps ErrInvalidSnapshot for an unknown version, a duplicate
//	        node, or an edge whose endpoint is not listed as a node.
func FromSnapshot(s *Snapshot, opts ...GraphOption) (*Graph, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrInvalidSnapshot, s.Version, SnapshotVersion)
	}

	g := NewGraph(opts...)
	for _, id := range s.Nodes {
		added, err := g.AddNode(id)
		if err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrInvalidSnapshot, id, err)
		}
		if !added {
			return nil, fmt.Errorf("%w: duplicate node %q", ErrInvalidSnapshot, id)
		}
	}
	for _, e := range s.Edges {
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			return nil, fmt.Errorf("%w: edge %q -> %q references unknown node", ErrInvalidSnapshot, e.From, e.To)
		}
		if _, err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("%w: edge %q -> %q: %v", ErrInvalidSnapshot, e.From, e.To, err)
		}
	}

	g.Freeze()
	return g, nil
}

// EncodeSnapshot serializes a graph as JSON.
func EncodeSnapshot(g *Graph) ([]byte, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	return json.Marshal(g.Snapshot())
}

// DecodeSnapshot restores a frozen graph from JSON produced by EncodeSnapshot.
func DecodeSnapshot(data []byte, opts ...GraphOption) (*Graph, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return FromSnapshot(&s, opts...)
}
