// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package project

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("tsboundary.project")
	meter  = otel.Meter("tsboundary.project")
)

var (
	loadLatency  metric.Float64Histogram
	filesLoaded  metric.Int64Counter
	filesSkipped metric.Int64Counter
	watchBatches metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		loadLatency, err = meter.Float64Histogram(
			"tsboundary_project_load_duration_seconds",
			metric.WithDescription("Duration of project loads"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesLoaded, err = meter.Int64Counter(
			"tsboundary_project_files_loaded_total",
			metric.WithDescription("Files parsed into a program"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesSkipped, err = meter.Int64Counter(
			"tsboundary_project_files_skipped_total",
			metric.WithDescription("Files left out of a program because they could not be parsed"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		watchBatches, err = meter.Int64Counter(
			"tsboundary_watch_batches_total",
			metric.WithDescription("Debounced change batches delivered by the watcher"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordLoad(ctx context.Context, duration time.Duration, loaded, skipped int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	loadLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
	if success {
		filesLoaded.Add(ctx, int64(loaded))
		filesSkipped.Add(ctx, int64(skipped))
	}
}

func recordWatchBatch(ctx context.Context, changes int) {
	if err := initMetrics(); err != nil {
		return
	}
	watchBatches.Add(ctx, 1, metric.WithAttributes(attribute.Bool("multiple", changes > 1)))
}

func startLoadSpan(ctx context.Context, root string, files int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Loader.Load",
		trace.WithAttributes(
			attribute.String("project.root", root),
			attribute.Int("project.files", files),
		),
	)
}

func setLoadSpanResult(span trace.Span, loaded, skipped int) {
	span.SetAttributes(
		attribute.Int("project.loaded", loaded),
		attribute.Int("project.skipped", skipped),
	)
}
