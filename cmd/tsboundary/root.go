// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsboundary/pkg/logging"
	"github.com/AleutianAI/tsboundary/services/boundary/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds global flags and the per-run logger and telemetry.
type app struct {
	configPath  string
	logLevel    string
	logDir      string
	logJSON     bool
	telemetry   string
	jsonOut     bool
	force       bool
	metricsAddr string

	runID  string
	logger *logging.Logger
	log    *slog.Logger
	tel    *telemetry.Telemetry
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tsboundary",
		Short: "Network boundary analysis for Airship TypeScript projects",
		Long: `tsboundary finds calls that cross the Server/Client network boundary
of an Airship project without a $SERVER or $CLIENT guard, and proposes fixes.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "plugin configuration file (default <project>/tsboundary.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&a.logDir, "log-dir", "", "also write JSON logs to this directory")
	flags.BoolVar(&a.logJSON, "log-json", false, "write console logs as JSON")
	flags.StringVar(&a.telemetry, "telemetry", telemetry.ExporterNone, "trace exporter: none, stdout, otlp")
	flags.BoolVar(&a.jsonOut, "json", false, "print machine-readable JSON")
	flags.BoolVar(&a.force, "force", false, "analyze even when package.json does not depend on the compiler")

	root.AddCommand(
		a.newCheckCmd(),
		a.newFixCmd(),
		a.newWatchCmd(),
		a.newCompleteCmd(),
		a.newInfoCmd(),
	)
	return root
}

// setup creates the logger and telemetry for this run.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level, err := logging.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.logger, err = logging.New(logging.Config{
		Level:   level,
		LogDir:  a.logDir,
		Service: "tsboundary",
		JSON:    a.logJSON,
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.runID = uuid.NewString()
	a.log = a.logger.Slog().With(slog.String("run_id", a.runID), slog.String("command", cmd.Name()))

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceVersion = version
	tcfg.Output = cmd.ErrOrStderr()
	switch a.telemetry {
	case telemetry.ExporterNone, "":
		tcfg.TraceExporter = telemetry.ExporterNone
		tcfg.MetricExporter = telemetry.ExporterNone
	case telemetry.ExporterStdout:
		tcfg.TraceExporter = telemetry.ExporterStdout
		tcfg.MetricExporter = telemetry.ExporterStdout
	case telemetry.ExporterOTLP:
		tcfg.TraceExporter = telemetry.ExporterOTLP
		tcfg.MetricExporter = telemetry.ExporterNone
	default:
		return fmt.Errorf("%w: %s", telemetry.ErrUnknownExporter, a.telemetry)
	}
	if a.metricsAddr != "" {
		tcfg.MetricExporter = telemetry.ExporterPrometheus
	}
	a.tel, err = telemetry.Init(cmd.Context(), tcfg)
	if err != nil {
		return err
	}
	a.log.Debug("run started", slog.String("version", version))
	return nil
}

// close flushes telemetry and closes the log file.
func (a *app) close() {
	if a.tel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.tel.Shutdown(ctx); err != nil && a.log != nil {
			a.log.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
		cancel()
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}
