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
	"github.com/AleutianAI/TheoremMap/services/derivation/cache"
	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
)

// PathRequest is the body of POST /v1/derivation/path.
type PathRequest struct {
	// From is the proposition held.
	From string `json:"from" binding:"required"`

	// To is the proposition wanted.
	To string `json:"to" binding:"required"`
}

// PathResponse is returned for a path query whose endpoints both exist.
type PathResponse struct {
	// Found is false when no derivation connects the endpoints.
	Found bool `json:"found"`

	// Derivation is the chain, nil when not found.
	Derivation *graph.Derivation `json:"derivation,omitempty"`

	// Objects lists object names in application order.
	Objects []string `json:"objects"`

	// Imports lists the import locations in application order.
	Imports []string `json:"imports"`
}

// SplitRequest is the body of POST /v1/derivation/split.
type SplitRequest struct {
	Expression string `json:"expression" binding:"required"`

	// Delimiter defaults to the arrow.
	Delimiter string `json:"delimiter"`
}

// SplitResponse lists the top-level terms of an expression.
type SplitResponse struct {
	Terms []string `json:"terms"`
}

// HealthResponse is returned by GET /v1/derivation/health.
type HealthResponse struct {
	Status string `json:"status"`

	// Ready is true once a graph has been loaded.
	Ready bool `json:"ready"`
}

// StatsResponse is returned by GET /v1/derivation/stats.
type StatsResponse struct {
	Graph         graph.GraphStats  `json:"graph"`
	Records       int               `json:"records"`
	RecordsHash   string            `json:"records_hash"`
	Augmented     bool              `json:"augmented"`
	LoadedAtMilli int64             `json:"loaded_at_milli"`
	Cache         *cache.CacheStats `json:"cache,omitempty"`
}

// ReloadResponse is returned by POST /v1/derivation/reload.
type ReloadResponse struct {
	Records int              `json:"records"`
	Graph   graph.GraphStats `json:"graph"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}
