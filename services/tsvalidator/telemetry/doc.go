// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires OpenTelemetry tracing and metrics for tsvalidator.
//
// The validation packages only use the OTel API (otel.Tracer, otel.Meter).
// Until Init runs those calls are no-ops, so the library costs nothing when
// embedded without telemetry. The CLI calls Init once at startup.
//
// # Trace exporters
//
//   - otlp: OTLP over gRPC to OTLPEndpoint, TLS unless OTLPInsecure
//   - stdout: pretty-printed spans on stdout
//   - none: no tracer provider is installed (default)
//
// # Metric exporters
//
//   - prometheus: a private registry with Go and process collectors, served
//     by MetricsHandler until shutdown
//   - stdout: periodic pretty-printed export
//   - none: no meter provider is installed (default)
//
// # Environment Variables
//
// ApplyEnv overlays the standard OTEL_* variables (service name, exporters,
// OTLP endpoint and insecure flag, sampler argument) and TSVALIDATOR_ENV.
// The CLI applies them after reading its config file.
//
// # Logging
//
// LoggerWithTrace adds trace_id and span_id to a slog.Logger so request logs
// can be joined with traces.
package telemetry
