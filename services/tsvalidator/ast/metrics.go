// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/normalize"
)

var (
	tracer = otel.Tracer("tsvalidator.ast")
	meter  = otel.Meter("tsvalidator.ast")
)

// parseStatus labels a finished parse in spans and metrics.
type parseStatus string

const (
	statusClean   parseStatus = "clean"
	statusSyntax  parseStatus = "syntax_error"
	statusFailure parseStatus = "engine_failure"
)

func (o *ParseOutcome) status() parseStatus {
	switch {
	case o.Panicked:
		return statusFailure
	case len(o.Diagnostics) > 0:
		return statusSyntax
	default:
		return statusClean
	}
}

type parseInstruments struct {
	duration    metric.Float64Histogram
	parses      metric.Int64Counter
	diagnostics metric.Int64Counter
}

// instruments are created on first use so that a MeterProvider installed
// after package init is picked up.
var instruments = sync.OnceValues(func() (*parseInstruments, error) {
	duration, err := meter.Float64Histogram(
		"tsvalidator_parse_duration_seconds",
		metric.WithDescription("Wall time of one structural parse"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	parses, err := meter.Int64Counter(
		"tsvalidator_parse_total",
		metric.WithDescription("Structural parses by status and input form"),
	)
	if err != nil {
		return nil, err
	}
	diagnostics, err := meter.Int64Counter(
		"tsvalidator_parse_diagnostics_total",
		metric.WithDescription("Syntax diagnostics reported, by kind"),
	)
	if err != nil {
		return nil, err
	}
	return &parseInstruments{duration: duration, parses: parses, diagnostics: diagnostics}, nil
})

func startParseSpan(ctx context.Context, src normalize.Source) (context.Context, trace.Span) {
	return tracer.Start(ctx, "TypeScriptParser.Parse",
		trace.WithAttributes(
			attribute.Int("ast.input_len", len(src.Original)),
			attribute.Bool("ast.wrapped", src.Wrapped),
		),
	)
}

// finishParse annotates span and records metrics for a completed parse.
// Metric failures never affect the parse.
func finishParse(ctx context.Context, span trace.Span, started time.Time, o *ParseOutcome) {
	status := o.status()
	span.SetAttributes(
		attribute.String("ast.status", string(status)),
		attribute.Int("ast.diagnostics", len(o.Diagnostics)),
	)

	inst, err := instruments()
	if err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("status", string(status)),
		attribute.Bool("wrapped", o.Source.Wrapped),
	)
	inst.duration.Record(ctx, time.Since(started).Seconds(), attrs)
	inst.parses.Add(ctx, 1, attrs)

	var unexpected, missing int64
	for _, d := range o.Diagnostics {
		if d.Kind == DiagnosticMissing {
			missing++
		} else {
			unexpected++
		}
	}
	if unexpected > 0 {
		inst.diagnostics.Add(ctx, unexpected, metric.WithAttributes(attribute.String("kind", string(DiagnosticUnexpected))))
	}
	if missing > 0 {
		inst.diagnostics.Add(ctx, missing, metric.WithAttributes(attribute.String("kind", string(DiagnosticMissing))))
	}
}
