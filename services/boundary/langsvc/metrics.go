// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package langsvc

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
	tracer = otel.Tracer("tsboundary.langsvc")
	meter  = otel.Meter("tsboundary.langsvc")
)

var (
	requestLatency      metric.Float64Histogram
	fallbacksTotal      metric.Int64Counter
	completionsAdjusted metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		requestLatency, err = meter.Float64Histogram(
			"tsboundary_plugin_request_duration_seconds",
			metric.WithDescription("Duration of plugin overrides, by method"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fallbacksTotal, err = meter.Int64Counter(
			"tsboundary_plugin_fallbacks_total",
			metric.WithDescription("Overrides that failed and fell back to the host, by method"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		completionsAdjusted, err = meter.Int64Counter(
			"tsboundary_completions_adjusted_total",
			metric.WithDescription("Completion entries renamed or removed, by action"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordRequest(ctx context.Context, method string, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	requestLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("method", method)))
}

func recordFallback(ctx context.Context, method string) {
	if err := initMetrics(); err != nil {
		return
	}
	fallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

func recordCompletionAdjustments(ctx context.Context, renamed, removed int) {
	if renamed+removed == 0 {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}
	completionsAdjusted.Add(ctx, int64(renamed), metric.WithAttributes(attribute.String("action", "prefix")))
	completionsAdjusted.Add(ctx, int64(removed), metric.WithAttributes(attribute.String("action", "remove")))
}

func startRequestSpan(ctx context.Context, method, fileName string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Plugin."+method,
		trace.WithAttributes(attribute.String("langsvc.file", fileName)),
	)
}
