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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/TheoremMap/pkg/validation"
	"github.com/AleutianAI/TheoremMap/services/derivation/expr"
	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
	"github.com/AleutianAI/TheoremMap/services/derivation/invoke"
)

// Handlers contains the HTTP handlers for the derivation API.
//
// Thread Safety:
//
//	Safe for concurrent use. All mutable state lives in Service.
type Handlers struct {
	svc      *Service
	registry *invoke.Registry
}

// NewHandlers creates handlers over svc. The registry supplies the
// split_terms object; a nil registry gets the built-in one.
func NewHandlers(svc *Service, registry *invoke.Registry) *Handlers {
	if registry == nil {
		registry = invoke.NewRegistry()
	}
	return &Handlers{svc: svc, registry: registry}
}

// HandleHealth handles GET /v1/derivation/health.
//
// Description:
//
//	Reports liveness and whether a graph has been loaded. Always 200 so
//	that a process still loading its first graph is not restarted.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Ready: h.svc.Ready()})
}

// HandleStats handles GET /v1/derivation/stats.
func (h *Handlers) HandleStats(c *gin.Context) {
	stats, err := h.svc.Stats()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_READY",
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandlePath handles POST /v1/derivation/path.
//
// Description:
//
//	Finds a shortest derivation between two propositions.
//
// Request Body:
//
//	PathRequest
//
// Response:
//
//	200 OK: PathResponse (found may be false)
//	400 Bad Request: Invalid request body or expression
//	404 Not Found: Source or target is not a node
//	503 Service Unavailable: No graph loaded yet
func (h *Handlers) HandlePath(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandlePath")

	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	if err := validation.ValidateExpressions(map[string]string{"from": req.From, "to": req.To}); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid expression",
			Code:    "INVALID_EXPRESSION",
			Details: err.Error(),
		})
		return
	}

	d, err := h.svc.Path(c.Request.Context(), req.From, req.To)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, PathResponse{
			Found:      true,
			Derivation: d,
			Objects:    d.ObjectNames(),
			Imports:    d.Locations(),
		})
	case errors.Is(err, graph.ErrNoPath):
		c.JSON(http.StatusOK, PathResponse{Found: false, Objects: []string{}, Imports: []string{}})
	case errors.Is(err, graph.ErrNodeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NODE_NOT_FOUND",
		})
	case errors.Is(err, ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_READY",
		})
	default:
		logger.Error("path query failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Path query failed",
			Code:  "QUERY_FAILED",
		})
	}
}

// HandleSplit handles POST /v1/derivation/split.
//
// Description:
//
//	Splits an expression into its top-level terms through the
//	split_terms object.
func (h *Handlers) HandleSplit(c *gin.Context) {
	var req SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	if req.Delimiter == "" {
		req.Delimiter = expr.Arrow
	}
	if err := validation.ValidateExpression(req.Expression); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid expression",
			Code:    "INVALID_EXPRESSION",
			Details: err.Error(),
		})
		return
	}

	obj, ok := h.registry.Lookup(invoke.SplitTermsName)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "split_terms is not registered",
			Code:  "SPLIT_UNAVAILABLE",
		})
		return
	}

	out, err := obj.Call(c.Request.Context(), invoke.String(req.Expression), invoke.String(req.Delimiter))
	if err != nil {
		code := "SPLIT_FAILED"
		if errors.Is(err, expr.ErrMalformedExpression) || errors.Is(err, expr.ErrEmptyDelimiter) {
			code = "MALFORMED_EXPRESSION"
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	terms, _ := out.Data.([]string)
	c.JSON(http.StatusOK, SplitResponse{Terms: terms})
}

// HandleReload handles POST /v1/derivation/reload.
//
// Description:
//
//	Reloads the object lists and swaps in the new graph. The previous
//	graph keeps serving if the reload fails.
func (h *Handlers) HandleReload(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleReload")

	g, n, err := h.svc.Reload(c.Request.Context())
	if err != nil {
		logger.Error("reload failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Reload failed",
			Code:    "RELOAD_FAILED",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, ReloadResponse{Records: n, Graph: g.Stats()})
}

// getOrCreateRequestID echoes X-Request-ID or mints a new one.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
