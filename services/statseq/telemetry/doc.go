// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires OpenTelemetry tracing and metrics for statseq.
//
// Code in the store layer uses the OTel API directly (otel.Tracer,
// otel.Meter). This package only decides where that data goes by installing
// global providers with the configured exporters.
//
// # Trace Exporters
//
//   - "otlp": OTLP over gRPC to OTLPEndpoint
//   - "stdout": pretty-printed spans on Config.Output (stdout by default)
//   - "none": no provider installed; spans are no-ops
//
// # Metric Exporters
//
//   - "prometheus": OTel instruments are exposed through MetricsHandler,
//     together with everything registered on the default Prometheus
//     registry (the store's promauto collectors)
//   - "stdout": periodic pretty-printed dumps on Config.Output
//   - "none": no provider installed
//
// # Usage
//
//	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
//
// # Thread Safety
//
// Init should be called once at startup. Everything else is safe for
// concurrent use.
package telemetry
