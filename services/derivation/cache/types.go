// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
)

// Default configuration values.
const (
	// DefaultHotEntries is the default number of decoded graphs kept in memory.
	DefaultHotEntries = 8

	// DefaultErrorCacheTTL is how long build errors are cached.
	DefaultErrorCacheTTL = 5 * time.Second
)

var (
	// ErrCacheClosed is returned by operations on a closed cache.
	ErrCacheClosed = errors.New("graph cache is closed")

	// ErrNotFrozen is returned when storing a graph that is still building.
	ErrNotFrozen = errors.New("only frozen graphs can be cached")
)

// ErrBuildFailed is returned while a recent build failure for the same key
// is still cached.
type ErrBuildFailed struct {
	Key      string
	Err      error
	FailedAt time.Time
	RetryAt  time.Time
}

// Error implements the error interface.
func (e *ErrBuildFailed) Error() string {
	return fmt.Sprintf("build for %s failed at %s, retry after %s: %v",
		e.Key, e.FailedAt.Format(time.RFC3339), e.RetryAt.Format(time.RFC3339), e.Err)
}

// Unwrap returns the original build error.
func (e *ErrBuildFailed) Unwrap() error {
	return e.Err
}

// Tier reports where a graph was served from.
type Tier string

const (
	// TierHot means the decoded graph was already in memory.
	TierHot Tier = "hot"

	// TierWarm means the graph was restored from a stored snapshot.
	TierWarm Tier = "warm"

	// TierBuild means the graph was built by the BuildFunc.
	TierBuild Tier = "build"
)

// BuildFunc produces a frozen graph on a cache miss.
type BuildFunc func(ctx context.Context) (*graph.Graph, error)

// WarmStore persists encoded snapshots across process restarts.
//
// *badger.Store from services/derivation/storage/badger implements it.
type WarmStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// CacheOptions configures a GraphCache.
type CacheOptions struct {
	// HotEntries is the LRU capacity for decoded graphs.
	// Default: 8
	HotEntries int

	// ErrorCacheTTL is how long a failed build blocks retries.
	// Default: 5s. Zero disables error caching.
	ErrorCacheTTL time.Duration

	// Logger receives cache diagnostics. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultCacheOptions returns sensible defaults.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		HotEntries:    DefaultHotEntries,
		ErrorCacheTTL: DefaultErrorCacheTTL,
	}
}

// CacheOption is a functional option for configuring GraphCache.
type CacheOption func(*CacheOptions)

// WithHotEntries sets the LRU capacity.
func WithHotEntries(n int) CacheOption {
	return func(o *CacheOptions) {
		o.HotEntries = n
	}
}

// WithErrorCacheTTL sets how long build errors are cached.
func WithErrorCacheTTL(d time.Duration) CacheOption {
	return func(o *CacheOptions) {
		o.ErrorCacheTTL = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) CacheOption {
	return func(o *CacheOptions) {
		o.Logger = l
	}
}

// CacheStats contains cache counters since creation.
type CacheStats struct {
	HotHits    int64 `json:"hot_hits"`
	WarmHits   int64 `json:"warm_hits"`
	Misses     int64 `json:"misses"`
	Builds     int64 `json:"builds"`
	BuildErrs  int64 `json:"build_errors"`
	WarmErrs   int64 `json:"warm_errors"`
	HotEntries int   `json:"hot_entries"`
}

// Key derives the cache key for a record set.
//
// recordsHash is records.Hash of the input; augmented distinguishes the
// base graph from its augmentation.
func Key(recordsHash string, augmented bool) string {
	if augmented {
		return recordsHash + ":augmented"
	}
	return recordsHash + ":base"
}

type failedBuild struct {
	err      error
	failedAt time.Time
	retryAt  time.Time
}
