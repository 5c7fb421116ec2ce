// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"OBJECTS", "AUGMENT", "MAX_NODES", "MAX_EDGES", "CACHE_DIR", "CACHE_ENABLED", "ADDR", "LOG_LEVEL", "LOG_DIR"} {
		t.Setenv(EnvPrefix+name, "")
		require.NoError(t, os.Unsetenv(EnvPrefix+name))
	}
	t.Setenv("OTEL_TRACES_EXPORTER", "none")
	t.Setenv("OTEL_METRICS_EXPORTER", "none")
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "theoremmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Augment)
	assert.Equal(t, graph.DefaultMaxNodes, cfg.Builder.MaxNodes)
	assert.Equal(t, graph.DefaultMaxEdges, cfg.Builder.MaxEdges)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 8, cfg.Cache.HotEntries)
	assert.Equal(t, "127.0.0.1:8095", cfg.Server.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.Debounce)
	assert.Equal(t, "theoremmap", cfg.Telemetry.ServiceName)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
objects:
  - data/objectList.json
  - data/extra.json
augment: false
builder:
  max_nodes: 100
  max_edges: 200
cache:
  enabled: true
  in_memory: true
  hot_entries: 2
server:
  addr: "0.0.0.0:9000"
  watch: true
  debounce: 2s
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"data/objectList.json", "data/extra.json"}, cfg.Objects)
	assert.False(t, cfg.Augment)
	assert.Equal(t, 100, cfg.Builder.MaxNodes)
	assert.Equal(t, 200, cfg.Builder.MaxEdges)
	assert.True(t, cfg.Cache.InMemory)
	assert.Equal(t, 2, cfg.Cache.HotEntries)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, 2*time.Second, cfg.Server.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "augment: true\n")

	t.Setenv(EnvPrefix+"AUGMENT", "false")
	t.Setenv(EnvPrefix+"MAX_NODES", "42")
	t.Setenv(EnvPrefix+"OBJECTS", "a.json"+string(os.PathListSeparator)+" b.json ")
	t.Setenv(EnvPrefix+"ADDR", "localhost:7000")
	t.Setenv(EnvPrefix+"LOG_LEVEL", "WARN")
	t.Setenv(EnvPrefix+"CACHE_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Augment)
	assert.Equal(t, 42, cfg.Builder.MaxNodes)
	assert.Equal(t, []string{"a.json", "b.json"}, cfg.Objects)
	assert.Equal(t, "localhost:7000", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "zero max nodes", content: "builder:\n  max_nodes: 0\n"},
		{name: "bad log level", content: "logging:\n  level: loud\n"},
		{name: "bad addr", content: "server:\n  addr: nope\n"},
		{name: "empty object path", content: "objects:\n  - \"\"\n"},
		{name: "cache without dir", content: "cache:\n  enabled: true\n  dir: \"\"\n"},
		{name: "bad exporter", content: "telemetry:\n  trace_exporter: zipkin\n"},
		{name: "bad env bool", env: map[string]string{"AUGMENT": "maybe"}},
		{name: "bad env int", env: map[string]string{"MAX_EDGES": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(EnvPrefix+k, v)
			}
			path := ""
			if tt.content != "" {
				path = writeFile(t, tt.content)
			}

			_, err := Load(path)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_InMemoryCacheNeedsNoDir(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "cache:\n  enabled: true\n  in_memory: true\n  dir: \"\"\n")

	_, err := Load(path)
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "objects: [unterminated"))
	assert.Error(t, err)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Objects = []string{"objectList.json"}
	cfg.Server.Debounce = 3 * time.Second

	path := filepath.Join(t.TempDir(), "nested", "theoremmap.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Objects, loaded.Objects)
	assert.Equal(t, cfg.Server, loaded.Server)
	assert.Equal(t, cfg.Builder, loaded.Builder)
}
