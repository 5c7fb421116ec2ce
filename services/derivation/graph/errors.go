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
	"errors"
	"fmt"
)

// Sentinel errors for graph operations.
var (
	// ErrGraphFrozen is returned when attempting to modify a frozen graph.
	ErrGraphFrozen = errors.New("graph is frozen and cannot be modified")

	// ErrNodeNotFound is returned when a path query names a proposition
	// that is not a node of the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoPath is returned when both endpoints exist but no directed
	// derivation connects them. This is a routine outcome.
	ErrNoPath = errors.New("no derivation path")

	// ErrInvalidNode is returned for an empty node ID.
	ErrInvalidNode = errors.New("invalid node")

	// ErrNilGraph is returned when an operation is given a nil graph.
	ErrNilGraph = errors.New("graph must not be nil")

	// ErrMaxNodesExceeded is returned when the graph has reached its
	// configured maximum node capacity.
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")

	// ErrMaxEdgesExceeded is returned when the graph has reached its
	// configured maximum edge capacity.
	ErrMaxEdgesExceeded = errors.New("maximum edge count exceeded")

	// ErrInvalidSnapshot is returned when a snapshot cannot be restored.
	ErrInvalidSnapshot = errors.New("invalid graph snapshot")
)

// NodeNotFoundError names the missing endpoint of a path query.
type NodeNotFoundError struct {
	// Node is the canonical expression that was looked up.
	Node string

	// Role is "source" or "target".
	Role string
}

// Error implements the error interface.
func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("%s proposition %q not found in derivation graph", e.Role, e.Node)
}

// Unwrap returns the sentinel error.
func (e *NodeNotFoundError) Unwrap() error {
	return ErrNodeNotFound
}

// NoPathError reports that the target is unreachable from the source.
type NoPathError struct {
	Source string
	Target string
}

// Error implements the error interface.
func (e *NoPathError) Error() string {
	return fmt.Sprintf("no known derivation from %q to %q", e.Source, e.Target)
}

// Unwrap returns the sentinel error.
func (e *NoPathError) Unwrap() error {
	return ErrNoPath
}
