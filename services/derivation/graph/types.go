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
	"time"
)

// Default configuration values.
const (
	// DefaultMaxNodes is the default maximum number of nodes a graph can hold.
	DefaultMaxNodes = 1_000_000

	// DefaultMaxEdges is the default maximum number of edges a graph can hold.
	DefaultMaxEdges = 10_000_000
)

// GraphState represents the lifecycle state of the graph.
type GraphState int

const (
	// GraphStateBuilding indicates the graph accepts AddNode/AddEdge calls.
	GraphStateBuilding GraphState = iota

	// GraphStateReadOnly indicates the graph is frozen and read-only.
	GraphStateReadOnly
)

// String returns the string representation of the GraphState.
func (s GraphState) String() string {
	switch s {
	case GraphStateBuilding:
		return "building"
	case GraphStateReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

// Edge is a typed object viewed as a transformation From → To.
type Edge struct {
	// From is the domain proposition.
	From string `json:"from"`

	// To is the codomain proposition.
	To string `json:"to"`

	// ObjectName identifies the function or theorem, or the synthesized
	// lambda for augmented edges.
	ObjectName string `json:"object_name"`

	// Location is the import path needed to reference the object.
	Location string `json:"location"`
}

type edgeKey struct {
	from string
	to   string
}

// node holds adjacency in first-insertion order.
type node struct {
	out []string
	in  []string
}

// GraphOptions configures Graph limits.
type GraphOptions struct {
	// MaxNodes is the maximum number of nodes the graph can hold.
	// Default: 1,000,000
	MaxNodes int

	// MaxEdges is the maximum number of edges the graph can hold.
	// Default: 10,000,000
	MaxEdges int
}

// DefaultGraphOptions returns sensible defaults for graph configuration.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// GraphOption is a functional option for configuring Graph.
type GraphOption func(*GraphOptions)

// WithMaxNodes sets the maximum number of nodes the graph can hold.
func WithMaxNodes(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxNodes = n
	}
}

// WithMaxEdges sets the maximum number of edges the graph can hold.
func WithMaxEdges(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxEdges = n
	}
}

// Graph is a simple directed derivation graph.
//
// Thread Safety:
//
//	Graph is NOT safe for concurrent use while building. After Freeze() the
//	graph is read-only and can be read from multiple goroutines.
//
// Invariants:
//
//   - At most one edge per ordered node pair. Adding a second edge between
//     the same pair replaces its labels and keeps its position.
//   - Every edge endpoint is a node.
//   - Nodes are never removed.
type Graph struct {
	nodes     map[string]*node
	nodeOrder []string

	edges     map[edgeKey]*Edge
	edgeOrder []edgeKey

	state   GraphState
	options GraphOptions

	// BuiltAtMilli is the Unix timestamp in milliseconds when Freeze() was called.
	// Zero if the graph has not been frozen.
	BuiltAtMilli int64
}

// NewGraph creates an empty graph in the Building state.
//
// Example:
//
//	g := NewGraph(WithMaxNodes(100_000))
func NewGraph(opts ...GraphOption) *Graph {
	options := DefaultGraphOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Graph{
		nodes:   make(map[string]*node),
		edges:   make(map[edgeKey]*Edge),
		state:   GraphStateBuilding,
		options: options,
	}
}

// State returns the current lifecycle state of the graph.
func (g *Graph) State() GraphState {
	return g.state
}

// IsFrozen returns true if the graph is in read-only mode.
func (g *Graph) IsFrozen() bool {
	return g.state == GraphStateReadOnly
}

// Freeze transitions the graph to read-only mode. Irreversible.
func (g *Graph) Freeze() {
	if g.state == GraphStateReadOnly {
		return
	}
	g.state = GraphStateReadOnly
	g.BuiltAtMilli = time.Now().UnixMilli()
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// AddNode adds a proposition as a node.
//
// Description:
//
//	Adding an existing node is a no-op. The ID is used verbatim; callers
//	pass canonical expressions.
//
// Outputs:
//
//	bool - True if the node was created by this call.
//	error - ErrGraphFrozen, ErrInvalidNode or ErrMaxNodesExceeded.
func (g *Graph) AddNode(id string) (bool, error) {
	if g.state == GraphStateReadOnly {
		return false, ErrGraphFrozen
	}
	if id == "" {
		return false, ErrInvalidNode
	}
	if _, exists := g.nodes[id]; exists {
		return false, nil
	}
	if len(g.nodes) >= g.options.MaxNodes {
		return false, ErrMaxNodesExceeded
	}

	g.nodes[id] = &node{}
	g.nodeOrder = append(g.nodeOrder, id)
	return true, nil
}

// AddEdge adds a directed edge, creating missing endpoint nodes.
//
// Description:
//
//	If an edge between the same ordered pair already exists, its
//	ObjectName and Location are overwritten (last write wins) and the
//	edge keeps its original position in adjacency and edge order.
//
// Outputs:
//
//	bool - True if an existing edge was replaced.
//	error - ErrGraphFrozen, ErrInvalidNode, ErrMaxNodesExceeded or
//	        ErrMaxEdgesExceeded. The graph is unchanged on error.
func (g *Graph) AddEdge(e Edge) (bool, error) {
	if g.state == GraphStateReadOnly {
		return false, ErrGraphFrozen
	}
	if e.From == "" || e.To == "" {
		return false, ErrInvalidNode
	}

	key := edgeKey{from: e.From, to: e.To}
	if existing, ok := g.edges[key]; ok {
		existing.ObjectName = e.ObjectName
		existing.Location = e.Location
		return true, nil
	}

	if len(g.edges) >= g.options.MaxEdges {
		return false, ErrMaxEdgesExceeded
	}
	newNodes := 0
	if _, ok := g.nodes[e.From]; !ok {
		newNodes++
	}
	if _, ok := g.nodes[e.To]; !ok && e.To != e.From {
		newNodes++
	}
	if len(g.nodes)+newNodes > g.options.MaxNodes {
		return false, ErrMaxNodesExceeded
	}

	// Capacity was checked above, so these cannot fail.
	_, _ = g.AddNode(e.From)
	_, _ = g.AddNode(e.To)

	edge := e
	g.edges[key] = &edge
	g.edgeOrder = append(g.edgeOrder, key)
	g.nodes[e.From].out = append(g.nodes[e.From].out, e.To)
	g.nodes[e.To].in = append(g.nodes[e.To].in, e.From)
	return false, nil
}

// HasNode reports whether the proposition is a node.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Edge returns the edge between an ordered pair of nodes.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	e, ok := g.edges[edgeKey{from: from, to: to}]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Nodes returns all node IDs in first-insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodeOrder))
	copy(out, g.nodeOrder)
	return out
}

// Edges returns all edges in first-insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edgeOrder))
	for i, key := range g.edgeOrder {
		out[i] = *g.edges[key]
	}
	return out
}

// Successors returns the targets of the node's outgoing edges, or nil if
// the node does not exist.
func (g *Graph) Successors(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, len(n.out))
	copy(out, n.out)
	return out
}

// Predecessors returns the sources of the node's incoming edges, or nil if
// the node does not exist.
func (g *Graph) Predecessors(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, len(n.in))
	copy(out, n.in)
	return out
}

// Clone returns an unfrozen deep copy with the same options.
//
// Node order, edge order and adjacency order are preserved.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:     make(map[string]*node, len(g.nodes)),
		nodeOrder: make([]string, len(g.nodeOrder)),
		edges:     make(map[edgeKey]*Edge, len(g.edges)),
		edgeOrder: make([]edgeKey, len(g.edgeOrder)),
		state:     GraphStateBuilding,
		options:   g.options,
	}
	copy(c.nodeOrder, g.nodeOrder)
	copy(c.edgeOrder, g.edgeOrder)

	for id, n := range g.nodes {
		c.nodes[id] = &node{
			out: append([]string(nil), n.out...),
			in:  append([]string(nil), n.in...),
		}
	}
	for key, e := range g.edges {
		edge := *e
		c.edges[key] = &edge
	}
	return c
}

// Equal reports whether two graphs have the same nodes and the same edges
// with the same labels. Insertion order is ignored.
func (g *Graph) Equal(other *Graph) bool {
	if g == nil || other == nil {
		return g == other
	}
	if len(g.nodes) != len(other.nodes) || len(g.edges) != len(other.edges) {
		return false
	}
	for id := range g.nodes {
		if _, ok := other.nodes[id]; !ok {
			return false
		}
	}
	for key, e := range g.edges {
		o, ok := other.edges[key]
		if !ok || *o != *e {
			return false
		}
	}
	return true
}

// GraphStats summarizes a graph's shape.
type GraphStats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`

	// IsolatedNodes have neither incoming nor outgoing edges.
	IsolatedNodes int `json:"isolated_nodes"`

	// Sources have outgoing but no incoming edges.
	Sources int `json:"sources"`

	// Sinks have incoming but no outgoing edges.
	Sinks int `json:"sinks"`

	State        string `json:"state"`
	BuiltAtMilli int64  `json:"built_at_milli,omitempty"`
}

// Stats computes summary statistics in O(V).
func (g *Graph) Stats() GraphStats {
	stats := GraphStats{
		Nodes:        len(g.nodes),
		Edges:        len(g.edges),
		State:        g.state.String(),
		BuiltAtMilli: g.BuiltAtMilli,
	}
	for _, n := range g.nodes {
		switch {
		case len(n.in) == 0 && len(n.out) == 0:
			stats.IsolatedNodes++
		case len(n.in) == 0:
			stats.Sources++
		case len(n.out) == 0:
			stats.Sinks++
		}
	}
	return stats
}
