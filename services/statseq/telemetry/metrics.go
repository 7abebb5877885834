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
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the OTel instruments recorded by the store layer.
//
// Description:
//
//	Complements the store's Prometheus collectors with OTel instruments
//	so that the same operations reach OTLP or stdout backends. All names
//	use the "statseq_" prefix.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// OpsTotal counts store operations by op and status.
	OpsTotal metric.Int64Counter

	// OpDuration records store operation latency in seconds by op.
	OpDuration metric.Float64Histogram

	// ElementsMoved counts elements copied by merge and split.
	ElementsMoved metric.Int64Counter
}

// NewMetrics registers every instrument with meter.
//
// Inputs:
//
//	meter - Typically otel.Meter("statseq.store").
//
// Outputs:
//
//	*Metrics - Ready to record.
//	error - Non-nil if any instrument could not be created.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.OpsTotal, err = meter.Int64Counter(
		"statseq_ops_total",
		metric.WithDescription("Total sequence store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ops_total: %w", err)
	}

	m.OpDuration, err = meter.Float64Histogram(
		"statseq_op_duration_seconds",
		metric.WithDescription("Sequence store operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("create op_duration: %w", err)
	}

	m.ElementsMoved, err = meter.Int64Counter(
		"statseq_elements_moved_total",
		metric.WithDescription("Elements copied between sequences by merge and split"),
		metric.WithUnit("{element}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create elements_moved_total: %w", err)
	}

	return m, nil
}

// RecordOp records one operation outcome. status is "ok", "absent" or
// "error".
func (m *Metrics) RecordOp(ctx context.Context, op, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.OpsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	))
	m.OpDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("op", op),
	))
}

// RecordMoved adds n to ElementsMoved for op.
func (m *Metrics) RecordMoved(ctx context.Context, op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ElementsMoved.Add(ctx, int64(n), metric.WithAttributes(attribute.String("op", op)))
}
