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
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsboundary/services/boundary/langsvc"
	"github.com/AleutianAI/tsboundary/services/boundary/project"
)

func (a *app) newWatchCmd() *cobra.Command {
	opts := project.DefaultWatcherOptions()
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-check the project whenever a source or setting changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := a.openWorkspace(ctx, dirArg(args))
			if err != nil {
				return err
			}
			out := &syncWriter{w: cmd.OutOrStdout()}
			handler := a.watchHandler(ws, out)
			handler(ctx, nil)

			if a.metricsAddr != "" {
				stop := a.serveMetrics(a.metricsAddr)
				defer stop()
			}

			w, err := project.NewWatcher(ws.root, handler, &opts, a.log)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()
			a.log.Info("watching", slog.String("root", ws.root))

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", opts.Debounce, "quiet period before re-checking")
	cmd.Flags().DurationVar(&opts.MinInterval, "min-interval", opts.MinInterval, "minimum time between re-checks")
	return cmd
}

// watchHandler re-checks the workspace for a batch of changes. A change
// to a settings file rebuilds the plugin from the current configuration
// first. A nil batch runs the initial check.
func (a *app) watchHandler(ws *workspace, out io.Writer) project.ChangeHandler {
	return func(ctx context.Context, changes []project.Change) {
		for _, c := range changes {
			if c.Settings {
				ws.plugin = langsvc.NewPlugin(a.loadConfig(ws.root), langsvc.WithPluginLogger(a.log))
				a.log.Info("configuration reloaded", slog.String("file", c.Path))
				break
			}
		}
		if len(changes) > 0 {
			if err := ws.reload(ctx); err != nil {
				a.log.Error("reload failed", slog.Any("error", err))
				return
			}
		}
		diags, err := ws.diagnostics(ctx)
		if err != nil {
			a.log.Error("check failed", slog.Any("error", err))
			return
		}
		if err := a.printDiagnostics(out, ws, diags); err != nil {
			a.log.Error("write report failed", slog.Any("error", err))
		}
	}
}

// serveMetrics serves the Prometheus handler until the returned function
// is called.
func (a *app) serveMetrics(addr string) func() {
	handler := a.tel.MetricsHandler()
	if handler == nil {
		a.log.Warn("metrics exporter is not prometheus, not serving metrics")
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server failed", slog.String("addr", addr), slog.Any("error", err))
		}
	}()
	a.log.Info("serving metrics", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// syncWriter serializes writes from the watcher goroutine and the
// initial check.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
