// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validate

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("tsvalidator.validate")
	meter  = otel.Meter("tsvalidator.validate")
)

var (
	validateLatency  metric.Float64Histogram
	validateTotal    metric.Int64Counter
	faultTotal       metric.Int64Counter
	artifactsDropped metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		validateLatency, err = meter.Float64Histogram(
			"tsvalidator_validate_duration_seconds",
			metric.WithDescription("Duration of snippet validations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		validateTotal, err = meter.Int64Counter(
			"tsvalidator_validate_total",
			metric.WithDescription("Total validations by outcome kind"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		faultTotal, err = meter.Int64Counter(
			"tsvalidator_engine_faults_total",
			metric.WithDescription("Engine panics recovered at a fault barrier"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		artifactsDropped, err = meter.Int64Counter(
			"tsvalidator_context_artifacts_total",
			metric.WithDescription("Semantic diagnostics discarded as context artifacts"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordValidateMetrics(ctx context.Context, duration time.Duration, kind Kind) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", string(kind)))
	validateLatency.Record(ctx, duration.Seconds(), attrs)
	validateTotal.Add(ctx, 1, attrs)
}

func recordFault(ctx context.Context, stage string) {
	if err := initMetrics(); err != nil {
		return
	}
	faultTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func recordArtifact(ctx context.Context, pattern string) {
	if err := initMetrics(); err != nil {
		return
	}
	artifactsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("pattern", pattern)))
}

func startValidateSpan(ctx context.Context, inputLen int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Validator.Validate",
		trace.WithAttributes(attribute.Int("validate.input_len", inputLen)),
	)
}

func setValidateSpanResult(span trace.Span, result Result) {
	span.SetAttributes(
		attribute.String("validate.kind", string(result.Kind)),
		attribute.Bool("validate.accepted", result.Accepted),
	)
	if !result.Accepted {
		span.SetStatus(codes.Error, string(result.Kind))
	}
}

func startStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Validator."+stage)
}
