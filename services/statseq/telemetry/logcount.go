// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/statseq/pkg/logging"
)

// logEntries counts exported log entries.
// Labels: level (DEBUG, INFO, WARN, ERROR)
var logEntries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "statseq",
	Subsystem: "log",
	Name:      "entries_total",
	Help:      "Log entries at or above the configured level",
}, []string{"level"})

// LogCounter is a logging.LogExporter that counts entries per level in
// Prometheus, so warning and error rates show up on /metrics.
//
// Thread Safety: Safe for concurrent use.
type LogCounter struct{}

// NewLogCounter returns a LogCounter. All instances share one counter.
func NewLogCounter() *LogCounter {
	return &LogCounter{}
}

// Export increments the counter for entry.Level.
func (c *LogCounter) Export(_ context.Context, entry logging.LogEntry) error {
	logEntries.WithLabelValues(entry.Level.String()).Inc()
	return nil
}

// Flush is a no-op; counts are recorded synchronously.
func (c *LogCounter) Flush(context.Context) error { return nil }

// Close is a no-op.
func (c *LogCounter) Close() error { return nil }

var _ logging.LogExporter = (*LogCounter)(nil)
