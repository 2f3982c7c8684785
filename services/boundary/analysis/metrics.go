// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

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
	tracer = otel.Tracer("tsboundary.analysis")
	meter  = otel.Meter("tsboundary.analysis")
)

var (
	diagnoseLatency  metric.Float64Histogram
	diagnosticsTotal metric.Int64Counter
	resolverDepth    metric.Int64Histogram
	fixesTotal       metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		diagnoseLatency, err = meter.Float64Histogram(
			"tsboundary_diagnose_duration_seconds",
			metric.WithDescription("Duration of boundary analysis per file"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		diagnosticsTotal, err = meter.Int64Counter(
			"tsboundary_diagnostics_total",
			metric.WithDescription("Boundary diagnostics emitted, by code"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		resolverDepth, err = meter.Int64Histogram(
			"tsboundary_resolver_depth",
			metric.WithDescription("Deepest ancestor walk of a boundary resolution per file"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fixesTotal, err = meter.Int64Counter(
			"tsboundary_fixes_total",
			metric.WithDescription("Code fixes synthesized, by diagnostic code"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordDiagnoseMetrics(ctx context.Context, duration time.Duration, depth int, diags []Diagnostic) {
	if err := initMetrics(); err != nil {
		return
	}
	diagnoseLatency.Record(ctx, duration.Seconds())
	resolverDepth.Record(ctx, int64(depth))
	for _, d := range diags {
		diagnosticsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Int("code", d.Code)))
	}
}

func recordFixMetrics(ctx context.Context, code, count int) {
	if count == 0 {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}
	fixesTotal.Add(ctx, int64(count), metric.WithAttributes(attribute.Int("code", code)))
}

func startDiagnoseSpan(ctx context.Context, filePath string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Analyzer.Diagnose",
		trace.WithAttributes(attribute.String("analysis.file", filePath)),
	)
}

func setDiagnoseSpanResult(span trace.Span, count int) {
	span.SetAttributes(attribute.Int("analysis.diagnostic_count", count))
}
