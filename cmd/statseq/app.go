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
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/statseq/pkg/logging"
	"github.com/AleutianAI/statseq/pkg/statseq"
	"github.com/AleutianAI/statseq/services/statseq/config"
	"github.com/AleutianAI/statseq/services/statseq/script"
	"github.com/AleutianAI/statseq/services/statseq/store"
	"github.com/AleutianAI/statseq/services/statseq/telemetry"
)

// globalFlags holds the persistent flag values.
type globalFlags struct {
	configPath    string
	logLevel      string
	seed          uint64
	metricsAddr   string
	traceExporter string
}

// app is the per-invocation runtime: config, logger and telemetry.
type app struct {
	cfg      config.Config
	logger   *logging.Logger
	shutdown func(context.Context) error
}

// newApp loads configuration, applies flag overrides and starts telemetry.
func newApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if cmd.Flags().Changed("seed") {
		seed := flags.seed
		cfg.Sequence.Seed = &seed
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Telemetry.MetricsAddr = flags.metricsAddr
	}
	if cmd.Flags().Changed("trace-exporter") {
		cfg.Telemetry.TraceExporter = flags.traceExporter
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	logger := logging.New(lc)

	tc := cfg.TelemetryInit()
	tc.ServiceVersion = version
	tc.Output = cmd.ErrOrStderr()
	shutdown, err := telemetry.Init(cmd.Context(), tc)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	logger.Debug("configuration loaded",
		"config", flags.configPath,
		"trace_exporter", cfg.Telemetry.TraceExporter,
		"metric_exporter", cfg.Telemetry.MetricExporter,
		"metrics_addr", cfg.Telemetry.MetricsAddr,
	)
	return &app{cfg: cfg, logger: logger, shutdown: shutdown}, nil
}

// interpreter builds a script interpreter wired to the app's settings.
func (a *app) interpreter(opts ...script.Option) *script.Interpreter {
	var seqOpts []statseq.Option
	if a.cfg.Sequence.Seed != nil {
		seqOpts = append(seqOpts, statseq.WithSeed(*a.cfg.Sequence.Seed))
	}
	base := []script.Option{
		script.WithLogger(a.logger),
		script.WithStoreOptions(
			store.WithCheckInvariants(a.cfg.Sequence.CheckInvariants),
			store.WithSequenceOptions(seqOpts...),
		),
	}
	return script.New(append(base, opts...)...)
}

// serve runs job while optionally exposing /metrics. The metrics server
// stops when job returns.
func (a *app) serve(ctx context.Context, job func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if addr := a.cfg.Telemetry.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.MetricsHandler())
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			a.logger.Info("serving metrics", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return job(gctx)
	})
	return g.Wait()
}

// close flushes telemetry and the logger.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(a.shutdown(ctx), a.logger.Close())
}
