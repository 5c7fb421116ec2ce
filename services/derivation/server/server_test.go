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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/TheoremMap/services/derivation/cache"
	"github.com/AleutianAI/TheoremMap/services/derivation/pipeline"
	"github.com/AleutianAI/TheoremMap/services/derivation/records"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var library = []records.Record{
	{Name: "f", Signature: "p → q → r", Location: "Lib.F"},
	{Name: "g", Signature: "r → s", Location: "Lib.G"},
}

func staticLoader(recs []records.Record) Loader {
	return func(context.Context) ([]records.Record, error) { return recs, nil }
}

func setupRouter(t *testing.T, load Loader, reload bool) (*gin.Engine, *Service) {
	t.Helper()
	c, err := cache.NewGraphCache(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	svc := NewService(pipeline.New(pipeline.WithCache(c)), c, load, nil)
	if reload {
		_, _, err := svc.Reload(context.Background())
		require.NoError(t, err)
	}
	return NewRouter(NewHandlers(svc, nil)), svc
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlePath_Found(t *testing.T) {
	router, _ := setupRouter(t, staticLoader(library), true)

	w := doJSON(t, router, http.MethodPost, "/v1/derivation/path", PathRequest{From: "p  ∧ q", To: "s"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp PathResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, []string{"Lib.F", "Lib.G"}, resp.Imports)
	require.Len(t, resp.Objects, 2)
	assert.Equal(t, "g", resp.Objects[1])
	assert.Equal(t, "p ∧ q", resp.Derivation.Source)
}

func TestHandlePath_NoPath(t *testing.T) {
	router, _ := setupRouter(t, staticLoader(library), true)

	w := doJSON(t, router, http.MethodPost, "/v1/derivation/path", PathRequest{From: "s", To: "p"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp PathResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Found)
	assert.Nil(t, resp.Derivation)
	assert.Empty(t, resp.Objects)
}

func TestHandlePath_Errors(t *testing.T) {
	router, _ := setupRouter(t, staticLoader(library), true)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing target", map[string]string{"from": "p"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown source", PathRequest{From: "x", To: "s"}, http.StatusNotFound, "NODE_NOT_FOUND"},
		{"unknown target", PathRequest{From: "p", To: "x"}, http.StatusNotFound, "NODE_NOT_FOUND"},
		{"unbalanced source", PathRequest{From: "(p", To: "s"}, http.StatusNotFound, "NODE_NOT_FOUND"},
		{"control character", PathRequest{From: "p\x00", To: "s"}, http.StatusBadRequest, "INVALID_EXPRESSION"},
		{"blank source", PathRequest{From: "   ", To: "s"}, http.StatusBadRequest, "INVALID_EXPRESSION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/v1/derivation/path", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestHandlePath_NotReady(t *testing.T) {
	router, _ := setupRouter(t, staticLoader(library), false)

	w := doJSON(t, router, http.MethodPost, "/v1/derivation/path", PathRequest{From: "p", To: "s"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandlePath_EchoesRequestID(t *testing.T) {
	router, _ := setupRouter(t, staticLoader(library), true)

	body, _ := json.Marshal(PathRequest{From: "r", To: "s"})
	req := httptest.NewRequest(http.MethodPost, "/v1/derivation/path", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestHandleSplit(t *testing.T) {
	router, _ := setupRouter(t, staticLoader(library), false)

	w := doJSON(t, router, http.MethodPost, "/v1/derivation/split", SplitRequest{Expression: "p → (q → r) → s"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp SplitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"p", "(q → r)", "s"}, resp.Terms)

	w = doJSON(t, router, http.MethodPost, "/v1/derivation/split", SplitRequest{Expression: "p ∧ (q ∧ r)", Delimiter: "∧"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"p", "(q ∧ r)"}, resp.Terms)

	w = doJSON(t, router, http.MethodPost, "/v1/derivation/split", SplitRequest{Expression: "p → (q"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleStats(t *testing.T) {
	router, _ := setupRouter(t, staticLoader(library), false)

	w := doJSON(t, router, http.MethodGet, "/v1/derivation/stats", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/derivation/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reload ReloadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reload))
	assert.Equal(t, 2, reload.Records)

	w = doJSON(t, router, http.MethodGet, "/v1/derivation/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Records)
	assert.True(t, stats.Augmented)
	assert.Equal(t, records.Hash(library), stats.RecordsHash)
	assert.True(t, stats.Graph.Edges >= 3)
	require.NotNil(t, stats.Cache)
	assert.Equal(t, int64(2), stats.Cache.Builds)
}

func TestHandleHealth(t *testing.T) {
	router, _ := setupRouter(t, staticLoader(library), false)

	w := doJSON(t, router, http.MethodGet, "/v1/derivation/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Ready)
}

func TestService_ReloadFailureKeepsGraph(t *testing.T) {
	var fail atomic.Bool
	load := func(context.Context) ([]records.Record, error) {
		if fail.Load() {
			return nil, errors.New("disk gone")
		}
		return library, nil
	}
	router, svc := setupRouter(t, load, true)
	before, err := svc.Graph()
	require.NoError(t, err)

	fail.Store(true)
	w := doJSON(t, router, http.MethodPost, "/v1/derivation/reload", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	after, err := svc.Graph()
	require.NoError(t, err)
	assert.Same(t, before, after)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupRouter(t, staticLoader(library), false)

	w := doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
