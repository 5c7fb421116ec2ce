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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "derivation_cache_lookups_total",
		Help: "Graph cache lookups by serving tier",
	}, []string{"tier"})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "derivation_cache_build_duration_seconds",
		Help:    "Time spent building graphs on cache misses",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	buildErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "derivation_cache_build_errors_total",
		Help: "Failed graph builds",
	})

	warmErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "derivation_cache_warm_errors_total",
		Help: "Warm tier failures by operation",
	}, []string{"op"})

	snapshotBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "derivation_cache_snapshot_bytes",
		Help:    "Encoded snapshot size written to the warm tier",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})
)
