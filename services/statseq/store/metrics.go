// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/statseq/services/statseq/telemetry"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	// opsTotal counts store operations.
	// Labels: op (snake_case operation name), status (ok, absent, error, canceled)
	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "statseq",
		Subsystem: "store",
		Name:      "ops_total",
		Help:      "Total sequence store operations by outcome",
	}, []string{"op", "status"})

	// opDuration measures time spent holding the store lock per operation.
	// Labels: op
	opDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "statseq",
		Subsystem: "store",
		Name:      "op_duration_seconds",
		Help:      "Sequence store operation latency in seconds",
		Buckets:   []float64{0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"op"})

	// elements is the number of elements across all live stores.
	elements = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "statseq",
		Subsystem: "store",
		Name:      "elements",
		Help:      "Elements held across all stores",
	})

	// modeRescans counts full mode recomputations.
	modeRescans = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "statseq",
		Subsystem: "store",
		Name:      "mode_rescans_total",
		Help:      "Mode recomputations caused by decrementing the current mode",
	})

	// invariantViolations counts failed post-mutation invariant checks.
	invariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "statseq",
		Subsystem: "store",
		Name:      "invariant_violations_total",
		Help:      "Failed index consistency checks",
	})
)

// =============================================================================
// OpenTelemetry
// =============================================================================

var (
	storeTracer trace.Tracer
	tracerOnce  sync.Once

	storeMetrics *telemetry.Metrics
	metricsOnce  sync.Once
)

// getTracer returns the OTel tracer, initializing it lazily.
//
// Thread Safety: Safe for concurrent use (sync.Once).
func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		storeTracer = otel.Tracer("statseq.store")
	})
	return storeTracer
}

// getMetrics returns the OTel instruments, or nil if they could not be
// created. Recording on nil is a no-op.
func getMetrics() *telemetry.Metrics {
	metricsOnce.Do(func() {
		m, err := telemetry.NewMetrics(otel.Meter("statseq.store"))
		if err == nil {
			storeMetrics = m
		}
	})
	return storeMetrics
}
