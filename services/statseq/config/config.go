// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads statseq runtime configuration.
//
// Priority is env > file > defaults. Files are parsed as YAML first and
// JSON second; a missing file is not an error.
//
// Environment variables:
//
//   - STATSEQ_SEED: uint64 seed for Random
//   - STATSEQ_CHECK_INVARIANTS: verify every index after each mutation
//   - STATSEQ_LOG_LEVEL, STATSEQ_LOG_JSON, STATSEQ_LOG_DIR, STATSEQ_LOG_COUNT
//   - STATSEQ_TRACE_EXPORTER, STATSEQ_METRIC_EXPORTER
//   - STATSEQ_OTLP_ENDPOINT, STATSEQ_METRICS_ADDR, STATSEQ_SERVICE_NAME
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/statseq/pkg/logging"
	"github.com/AleutianAI/statseq/services/statseq/telemetry"
)

// Config is the full runtime configuration.
type Config struct {
	Sequence  SequenceConfig  `json:"sequence" yaml:"sequence"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// SequenceConfig controls how stores build their sequences.
type SequenceConfig struct {
	// Seed makes Random reproducible. Nil seeds from the clock.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// CheckInvariants verifies every index after each mutation. O(n log n)
	// per mutation; for debugging only.
	CheckInvariants bool `json:"check_invariants" yaml:"check_invariants"`
}

// LoggingConfig mirrors logging.Config in config-file form.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	JSON   bool   `json:"json" yaml:"json"`
	LogDir string `json:"log_dir" yaml:"log_dir"`

	// CountEntries exports per-level entry counts as
	// statseq_log_entries_total on /metrics.
	CountEntries bool `json:"count_entries" yaml:"count_entries"`
}

// TelemetryConfig selects exporters and the /metrics listener.
type TelemetryConfig struct {
	ServiceName    string `json:"service_name" yaml:"service_name"`
	TraceExporter  string `json:"trace_exporter" yaml:"trace_exporter"`
	MetricExporter string `json:"metric_exporter" yaml:"metric_exporter"`
	OTLPEndpoint   string `json:"otlp_endpoint" yaml:"otlp_endpoint"`

	// MetricsAddr serves /metrics when non-empty, e.g. ":9464".
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
}

// Default returns the built-in configuration: Info logging, no exporters,
// no metrics listener, clock-seeded Random.
func Default() Config {
	tc := telemetry.DefaultConfig()
	return Config{
		Logging: LoggingConfig{Level: "info", CountEntries: true},
		Telemetry: TelemetryConfig{
			ServiceName:    tc.ServiceName,
			TraceExporter:  tc.TraceExporter,
			MetricExporter: tc.MetricExporter,
			OTLPEndpoint:   tc.OTLPEndpoint,
		},
	}
}

// Load builds a Config from defaults, the optional file at path and the
// environment, then validates it.
//
// Inputs:
//   - path: YAML or JSON file. Empty or missing means defaults.
//
// Outputs:
//   - Config: The merged configuration, returned even on validation error.
//   - error: Non-nil if the file is unreadable, unparsable or the result
//     is invalid.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("STATSEQ_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("STATSEQ_SEED: %w", err)
		}
		cfg.Sequence.Seed = &seed
	}
	if v := os.Getenv("STATSEQ_CHECK_INVARIANTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STATSEQ_CHECK_INVARIANTS: %w", err)
		}
		cfg.Sequence.CheckInvariants = b
	}
	if v := os.Getenv("STATSEQ_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STATSEQ_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STATSEQ_LOG_JSON: %w", err)
		}
		cfg.Logging.JSON = b
	}
	if v := os.Getenv("STATSEQ_LOG_COUNT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STATSEQ_LOG_COUNT: %w", err)
		}
		cfg.Logging.CountEntries = b
	}
	if v := os.Getenv("STATSEQ_LOG_DIR"); v != "" {
		cfg.Logging.LogDir = v
	}
	if v := os.Getenv("STATSEQ_TRACE_EXPORTER"); v != "" {
		cfg.Telemetry.TraceExporter = v
	}
	if v := os.Getenv("STATSEQ_METRIC_EXPORTER"); v != "" {
		cfg.Telemetry.MetricExporter = v
	}
	if v := os.Getenv("STATSEQ_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := os.Getenv("STATSEQ_METRICS_ADDR"); v != "" {
		cfg.Telemetry.MetricsAddr = v
	}
	if v := os.Getenv("STATSEQ_SERVICE_NAME"); v != "" {
		cfg.Telemetry.ServiceName = v
	}
	return nil
}

// Validate checks value ranges and exporter names.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Telemetry.TraceExporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("telemetry.trace_exporter must be none, stdout or otlp, got %q", c.Telemetry.TraceExporter)
	}
	switch c.Telemetry.MetricExporter {
	case "none", "stdout", "prometheus":
	default:
		return fmt.Errorf("telemetry.metric_exporter must be none, stdout or prometheus, got %q", c.Telemetry.MetricExporter)
	}
	if c.Telemetry.TraceExporter == "otlp" && c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry.otlp_endpoint is required for the otlp exporter")
	}
	if c.Telemetry.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.Telemetry.MetricsAddr); err != nil {
			return fmt.Errorf("telemetry.metrics_addr: %w", err)
		}
	}
	if c.Telemetry.ServiceName == "" {
		return fmt.Errorf("telemetry.service_name must not be empty")
	}
	return nil
}

// LoggerConfig converts the logging section into a logging.Config.
func (c Config) LoggerConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	lc := logging.Config{
		Level:   level,
		JSON:    c.Logging.JSON,
		LogDir:  c.Logging.LogDir,
		Service: c.Telemetry.ServiceName,
	}
	if c.Logging.CountEntries {
		lc.Exporter = telemetry.NewLogCounter()
	}
	return lc
}

// TelemetryInit converts the telemetry section into a telemetry.Config.
func (c Config) TelemetryInit() telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceName = c.Telemetry.ServiceName
	tc.TraceExporter = c.Telemetry.TraceExporter
	tc.MetricExporter = c.Telemetry.MetricExporter
	tc.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	return tc
}
