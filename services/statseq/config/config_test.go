// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/statseq/pkg/logging"
	"github.com/AleutianAI/statseq/services/statseq/telemetry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Nil(t, cfg.Sequence.Seed)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "statseq", cfg.Telemetry.ServiceName)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "statseq.yaml", `
sequence:
  seed: 42
  check_invariants: true
logging:
  level: debug
  json: true
telemetry:
  service_name: seqd
  trace_exporter: stdout
  metric_exporter: prometheus
  metrics_addr: ":9464"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Sequence.Seed)
	assert.Equal(t, uint64(42), *cfg.Sequence.Seed)
	assert.True(t, cfg.Sequence.CheckInvariants)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "seqd", cfg.Telemetry.ServiceName)
	assert.Equal(t, ":9464", cfg.Telemetry.MetricsAddr)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint, "unset keys keep defaults")
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "statseq.json", `{"logging": {"level": "warn"}, "sequence": {"seed": 7}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, uint64(7), *cfg.Sequence.Seed)
}

func TestLoad_Unparsable(t *testing.T) {
	path := writeFile(t, "bad.yaml", "sequence: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "statseq.yaml", "logging:\n  level: debug\nsequence:\n  seed: 1\n")
	t.Setenv("STATSEQ_LOG_LEVEL", "error")
	t.Setenv("STATSEQ_SEED", "99")
	t.Setenv("STATSEQ_CHECK_INVARIANTS", "true")
	t.Setenv("STATSEQ_METRICS_ADDR", "127.0.0.1:9000")
	t.Setenv("STATSEQ_LOG_COUNT", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, uint64(99), *cfg.Sequence.Seed)
	assert.True(t, cfg.Sequence.CheckInvariants)
	assert.Equal(t, "127.0.0.1:9000", cfg.Telemetry.MetricsAddr)
	assert.False(t, cfg.Logging.CountEntries)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("STATSEQ_SEED", "-3")
	_, err := Load("")
	assert.ErrorContains(t, err, "STATSEQ_SEED")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"trace exporter", func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }, "trace_exporter"},
		{"metric exporter", func(c *Config) { c.Telemetry.MetricExporter = "otlp" }, "metric_exporter"},
		{"otlp endpoint", func(c *Config) {
			c.Telemetry.TraceExporter = "otlp"
			c.Telemetry.OTLPEndpoint = ""
		}, "otlp_endpoint"},
		{"metrics addr", func(c *Config) { c.Telemetry.MetricsAddr = "9464" }, "metrics_addr"},
		{"service name", func(c *Config) { c.Telemetry.ServiceName = "" }, "service_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "warn"
	cfg.Logging.JSON = true
	cfg.Telemetry.TraceExporter = "stdout"

	lc := cfg.LoggerConfig()
	assert.Equal(t, logging.LevelWarn, lc.Level)
	assert.True(t, lc.JSON)
	assert.Equal(t, "statseq", lc.Service)
	assert.IsType(t, &telemetry.LogCounter{}, lc.Exporter)

	cfg.Logging.CountEntries = false
	assert.Nil(t, cfg.LoggerConfig().Exporter)

	tc := cfg.TelemetryInit()
	assert.Equal(t, "stdout", tc.TraceExporter)
	assert.Equal(t, "none", tc.MetricExporter)
}
