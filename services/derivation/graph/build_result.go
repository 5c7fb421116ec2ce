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

import "fmt"

// RecordError represents a record that could not be turned into graph
// elements. The record is skipped; the build continues.
type RecordError struct {
	// Index is the record's position in the input.
	Index int

	// Name is the record's object name.
	Name string

	// Err is the underlying error, typically an expr.MalformedExpressionError.
	Err error
}

// Error implements the error interface.
func (e RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.Name, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e RecordError) Unwrap() error {
	return e.Err
}

// EdgeError represents an edge the augmenter could not expand.
type EdgeError struct {
	From       string
	To         string
	ObjectName string
	Err        error
}

// Error implements the error interface.
func (e EdgeError) Error() string {
	return fmt.Sprintf("edge %q -[%s]-> %q: %v", e.From, e.ObjectName, e.To, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e EdgeError) Unwrap() error {
	return e.Err
}

// BuildStats contains statistics about a build operation.
type BuildStats struct {
	// RecordsProcessed is the number of records turned into graph elements.
	RecordsProcessed int

	// RecordsFailed is the number of records skipped with a RecordError.
	RecordsFailed int

	// NullaryRecords is the number of records whose signature had a single
	// term. They contribute a node and no edge.
	NullaryRecords int

	// NodesCreated is the number of nodes in the resulting graph.
	NodesCreated int

	// EdgesCreated is the number of edges in the resulting graph.
	EdgesCreated int

	// EdgesReplaced counts records whose edge overwrote an earlier edge
	// between the same pair of propositions.
	EdgesReplaced int

	// DurationMicro is the total build time in microseconds.
	DurationMicro int64
}

// BuildResult contains the result of a graph build operation.
//
// Builds are resilient: a malformed record does not fail the build. It is
// reported in RecordErrors and left out of the graph.
type BuildResult struct {
	// Graph is the constructed, frozen graph. Partial if Incomplete.
	Graph *Graph

	// RecordErrors contains records that were skipped.
	RecordErrors []RecordError

	// Stats contains build statistics.
	Stats BuildStats

	// Incomplete is true if the build stopped at a capacity limit.
	Incomplete bool
}

// HasErrors returns true if any record was skipped.
func (r *BuildResult) HasErrors() bool {
	return len(r.RecordErrors) > 0
}

// Success returns true if the build completed without errors.
func (r *BuildResult) Success() bool {
	return !r.Incomplete && !r.HasErrors()
}

// AugmentStats contains statistics about an augmentation.
type AugmentStats struct {
	// EdgesExamined is the number of base edges inspected.
	EdgesExamined int

	// MultiArgumentEdges is the number of base edges whose target is itself
	// a curried chain.
	MultiArgumentEdges int

	// EdgesSynthesized is the number of conjunction edges added.
	EdgesSynthesized int

	// Collisions counts synthesized edges dropped because the base graph
	// already had an edge between the same pair.
	Collisions int

	// EdgesReplaced counts synthesized edges that overwrote an earlier
	// synthesized edge.
	EdgesReplaced int

	// DurationMicro is the total augmentation time in microseconds.
	DurationMicro int64
}

// AugmentResult contains the augmented graph.
type AugmentResult struct {
	// Graph is a new frozen graph: the base plus synthesized edges.
	Graph *Graph

	// EdgeErrors contains base edges whose target could not be split.
	EdgeErrors []EdgeError

	// Stats contains augmentation statistics.
	Stats AugmentStats
}
