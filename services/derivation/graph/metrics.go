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
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for graph operations.
var (
	tracer = otel.Tracer("theoremmap.graph")
	meter  = otel.Meter("theoremmap.graph")
)

// Metrics for graph operations.
var (
	buildLatency   metric.Float64Histogram
	buildTotal     metric.Int64Counter
	recordsFailed  metric.Int64Counter
	augmentLatency metric.Float64Histogram
	edgesAdded     metric.Int64Histogram
	queryLatency   metric.Float64Histogram
	queryTotal     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		if buildLatency, err = meter.Float64Histogram(
			"derivation_graph_build_duration_seconds",
			metric.WithDescription("Duration of derivation graph builds"),
			metric.WithUnit("s"),
		); err != nil {
			metricsErr = err
			return
		}

		if buildTotal, err = meter.Int64Counter(
			"derivation_graph_build_total",
			metric.WithDescription("Total number of derivation graph builds"),
		); err != nil {
			metricsErr = err
			return
		}

		if recordsFailed, err = meter.Int64Counter(
			"derivation_graph_records_failed_total",
			metric.WithDescription("Records skipped because their signature was malformed"),
		); err != nil {
			metricsErr = err
			return
		}

		if augmentLatency, err = meter.Float64Histogram(
			"derivation_graph_augment_duration_seconds",
			metric.WithDescription("Duration of graph augmentation"),
			metric.WithUnit("s"),
		); err != nil {
			metricsErr = err
			return
		}

		if edgesAdded, err = meter.Int64Histogram(
			"derivation_graph_edges_added",
			metric.WithDescription("Edges added per build or augmentation"),
		); err != nil {
			metricsErr = err
			return
		}

		if queryLatency, err = meter.Float64Histogram(
			"derivation_graph_path_duration_seconds",
			metric.WithDescription("Duration of path queries"),
			metric.WithUnit("s"),
		); err != nil {
			metricsErr = err
			return
		}

		if queryTotal, err = meter.Int64Counter(
			"derivation_graph_path_total",
			metric.WithDescription("Path queries by outcome"),
		); err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordBuildMetrics(ctx context.Context, duration time.Duration, edgeCount, failed int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)
	recordsFailed.Add(ctx, int64(failed))
	if success {
		edgesAdded.Record(ctx, int64(edgeCount), metric.WithAttributes(attribute.String("phase", "build")))
	}
}

func recordAugmentMetrics(ctx context.Context, duration time.Duration, synthesized int) {
	if err := initMetrics(); err != nil {
		return
	}

	augmentLatency.Record(ctx, duration.Seconds())
	edgesAdded.Record(ctx, int64(synthesized), metric.WithAttributes(attribute.String("phase", "augment")))
}

func recordQueryMetrics(ctx context.Context, outcome string, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	queryLatency.Record(ctx, duration.Seconds(), attrs)
	queryTotal.Add(ctx, 1, attrs)
}

// startSpan creates a span for a graph operation.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
