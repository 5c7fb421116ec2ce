// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads theoremmap configuration.
//
// Values come from, in increasing precedence: built-in defaults, a YAML
// file, and THEOREMMAP_* environment variables. The result is validated
// before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
	"github.com/AleutianAI/TheoremMap/services/derivation/telemetry"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "THEOREMMAP_"

// Config is the full theoremmap configuration.
type Config struct {
	// Objects lists object-list files to load, in order.
	Objects []string `yaml:"objects" validate:"dive,required"`

	Builder   BuilderConfig    `yaml:"builder"`
	Augment   bool             `yaml:"augment"`
	Cache     CacheConfig      `yaml:"cache"`
	Server    ServerConfig     `yaml:"server"`
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// BuilderConfig bounds graph size.
type BuilderConfig struct {
	MaxNodes int `yaml:"max_nodes" validate:"gt=0"`
	MaxEdges int `yaml:"max_edges" validate:"gt=0"`
}

// CacheConfig configures the graph cache tiers.
type CacheConfig struct {
	// Enabled turns the cache on. Without it every request rebuilds.
	Enabled bool `yaml:"enabled"`

	// Dir holds the BadgerDB warm tier. Ignored when InMemory is set.
	Dir string `yaml:"dir" validate:"required_if=Enabled true InMemory false"`

	// InMemory keeps the warm tier in RAM.
	InMemory bool `yaml:"in_memory"`

	// HotEntries is the LRU capacity.
	HotEntries int `yaml:"hot_entries" validate:"gt=0"`

	// SyncWrites makes warm writes durable before returning.
	SyncWrites bool `yaml:"sync_writes"`

	// TTL expires warm snapshots. Zero keeps them.
	TTL time.Duration `yaml:"ttl" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`

	// Watch reloads the graph when an object-list file changes.
	Watch bool `yaml:"watch"`

	// Debounce groups bursts of file events into one reload.
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in defaults.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Builder: BuilderConfig{
			MaxNodes: graph.DefaultMaxNodes,
			MaxEdges: graph.DefaultMaxEdges,
		},
		Augment: true,
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        filepath.Join(home, ".theoremmap", "cache"),
			HotEntries: 8,
			SyncWrites: true,
		},
		Server: ServerConfig{
			Addr:     "127.0.0.1:8095",
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Load reads configuration from path, applies environment overrides and
// validates the result. An empty path uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnv overlays THEOREMMAP_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		return lookup(EnvPrefix + name)
	}

	if v, ok := get("OBJECTS"); ok {
		cfg.Objects = splitList(v)
	}
	if v, ok := get("AUGMENT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sAUGMENT: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.Augment = b
	}
	if v, ok := get("MAX_NODES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sMAX_NODES: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.Builder.MaxNodes = n
	}
	if v, ok := get("MAX_EDGES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sMAX_EDGES: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.Builder.MaxEdges = n
	}
	if v, ok := get("CACHE_DIR"); ok {
		cfg.Cache.Dir = v
	}
	if v, ok := get("CACHE_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sCACHE_ENABLED: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.Cache.Enabled = b
	}
	if v, ok := get("ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := get("LOG_DIR"); ok {
		cfg.Logging.Dir = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, string(os.PathListSeparator)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
