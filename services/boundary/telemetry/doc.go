// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry initializes OpenTelemetry for tsboundary commands.
//
// The boundary packages record spans and metrics through the global otel
// API. Without Init those calls are no-ops; Init installs real providers
// so that a check run can print its spans and a watch session can be
// scraped by Prometheus.
//
// # Usage
//
//	tel, err := telemetry.Init(ctx, telemetry.Config{
//	    ServiceName:    "tsboundary",
//	    TraceExporter:  telemetry.ExporterStdout,
//	    MetricExporter: telemetry.ExporterPrometheus,
//	})
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	http.Handle("/metrics", tel.MetricsHandler())
//
// # Environment Variables
//
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
package telemetry
