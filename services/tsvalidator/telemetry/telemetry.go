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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

var (
	// ErrNilContext is returned when Init is called with a nil context.
	ErrNilContext = errors.New("telemetry: nil context")

	// ErrUnknownExporter is returned for an unsupported exporter name.
	ErrUnknownExporter = errors.New("telemetry: unknown exporter type")
)

// Trace exporter names.
const (
	TracesOTLP   = "otlp"
	TracesStdout = "stdout"
	TracesNone   = "none"
)

// Metric exporter names.
const (
	MetricsPrometheus = "prometheus"
	MetricsStdout     = "stdout"
	MetricsNone       = "none"
)

// Config controls telemetry behavior.
type Config struct {
	// ServiceName identifies this service in traces and metrics.
	ServiceName string `yaml:"service_name" json:"service_name"`

	// ServiceVersion is reported as service.version.
	ServiceVersion string `yaml:"service_version" json:"service_version"`

	// Environment is reported as deployment.environment.
	Environment string `yaml:"environment" json:"environment"`

	// TraceExporter is one of TracesOTLP, TracesStdout or TracesNone.
	TraceExporter string `yaml:"trace_exporter" json:"trace_exporter" validate:"omitempty,oneof=otlp stdout none"`

	// MetricExporter is one of MetricsPrometheus, MetricsStdout or MetricsNone.
	MetricExporter string `yaml:"metric_exporter" json:"metric_exporter" validate:"omitempty,oneof=prometheus stdout none"`

	// OTLPEndpoint is the host:port of the OTLP gRPC receiver.
	OTLPEndpoint string `yaml:"otlp_endpoint" json:"otlp_endpoint"`

	// OTLPInsecure sends spans in plaintext. When false the system roots
	// verify the collector.
	OTLPInsecure bool `yaml:"otlp_insecure" json:"otlp_insecure"`

	// OTLPHeaders are sent with every export, e.g. collector auth tokens.
	OTLPHeaders map[string]string `yaml:"otlp_headers,omitempty" json:"otlp_headers,omitempty"`

	// ExportTimeout bounds one span export. Zero keeps the exporter default.
	ExportTimeout time.Duration `yaml:"export_timeout" json:"export_timeout" validate:"gte=0"`

	// MetricInterval is the stdout metric export period. Zero keeps the
	// reader default.
	MetricInterval time.Duration `yaml:"metric_interval" json:"metric_interval" validate:"gte=0"`

	// SampleRate is the fraction of root spans sampled.
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate" validate:"gte=0,lte=1"`

	// AllowDegraded keeps serving without traces when the trace exporter
	// cannot be built. Unknown exporter names still fail.
	AllowDegraded bool `yaml:"allow_degraded" json:"allow_degraded"`
}

// DefaultConfig returns a configuration with all export disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "tsvalidator",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		TraceExporter:  TracesNone,
		MetricExporter: MetricsNone,
		OTLPEndpoint:   "localhost:4317",
		OTLPInsecure:   true,
		SampleRate:     1.0,
	}
}

// ApplyEnv overrides cfg from the standard OTEL_* variables and
// TSVALIDATOR_ENV. Unset or unparsable variables leave the field alone.
//
//   - OTEL_SERVICE_NAME
//   - OTEL_TRACES_EXPORTER
//   - OTEL_METRICS_EXPORTER
//   - OTEL_EXPORTER_OTLP_ENDPOINT
//   - OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG
//   - TSVALIDATOR_ENV
func ApplyEnv(cfg Config) Config {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.ServiceName, "OTEL_SERVICE_NAME")
	setString(&cfg.TraceExporter, "OTEL_TRACES_EXPORTER")
	setString(&cfg.MetricExporter, "OTEL_METRICS_EXPORTER")
	setString(&cfg.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Environment, "TSVALIDATOR_ENV")

	if v, err := strconv.ParseBool(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); err == nil {
		cfg.OTLPInsecure = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("OTEL_TRACES_SAMPLER_ARG"), 64); err == nil {
		cfg.SampleRate = v
	}
	return cfg
}

// Init installs the W3C propagator and the configured tracer and meter
// providers as the otel globals.
//
// Description:
//
//	Validation code only uses otel.Tracer and otel.Meter, so until Init runs
//	every span and instrument is a no-op. With the prometheus exporter a
//	private registry is created and served by MetricsHandler.
//
// Inputs:
//
//	ctx - Context for exporter construction.
//	cfg - Telemetry configuration, usually DefaultConfig passed through ApplyEnv.
//
// Outputs:
//
//	shutdown - Flushes and stops the providers. Must be called on exit.
//	error - ErrNilContext, ErrUnknownExporter, or an exporter error.
//
// Example:
//
//	shutdown, err := telemetry.Init(ctx, telemetry.ApplyEnv(telemetry.DefaultConfig()))
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
//
// Thread Safety: Call once at startup.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	var stack shutdownStack

	if enabled(cfg.TraceExporter, TracesNone) {
		tp, err := initTracer(ctx, cfg, res)
		if err != nil {
			if !cfg.AllowDegraded || errors.Is(err, ErrUnknownExporter) {
				return nil, fmt.Errorf("init tracer: %w", err)
			}
			slog.Warn("Tracing disabled, exporter unavailable",
				slog.String("exporter", cfg.TraceExporter),
				slog.String("error", err.Error()),
			)
		} else {
			otel.SetTracerProvider(tp)
			stack.push(tp.Shutdown)
		}
	}

	if enabled(cfg.MetricExporter, MetricsNone) {
		mp, handler, err := initMeter(cfg, res)
		if err != nil {
			_ = stack.run(ctx)
			return nil, fmt.Errorf("init meter: %w", err)
		}
		otel.SetMeterProvider(mp)
		stack.push(mp.Shutdown)
		if handler != nil {
			setMetricsHandler(handler)
			stack.push(func(context.Context) error {
				setMetricsHandler(nil)
				return nil
			})
		}
	}

	return stack.run, nil
}

func enabled(name, none string) bool {
	return name != "" && name != none
}

// shutdownStack runs shutdown funcs in reverse registration order.
type shutdownStack struct {
	fns []func(context.Context) error
}

func (s *shutdownStack) push(fn func(context.Context) error) {
	s.fns = append(s.fns, fn)
}

func (s *shutdownStack) run(ctx context.Context) error {
	var errs []error
	for i := len(s.fns) - 1; i >= 0; i-- {
		errs = append(errs, s.fns[i](ctx))
	}
	s.fns = nil
	return errors.Join(errs...)
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithProcessRuntimeName(),
		resource.WithProcessRuntimeVersion(),
	)
}

var (
	metricsHandler   http.Handler
	metricsHandlerMu sync.RWMutex
)

// MetricsHandler returns the /metrics handler, or nil unless the prometheus
// exporter is active.
//
// Thread Safety: Safe for concurrent use.
func MetricsHandler() http.Handler {
	metricsHandlerMu.RLock()
	defer metricsHandlerMu.RUnlock()
	return metricsHandler
}

func setMetricsHandler(h http.Handler) {
	metricsHandlerMu.Lock()
	metricsHandler = h
	metricsHandlerMu.Unlock()
}

// newRegistry returns a registry carrying the Go runtime and process
// collectors next to the otel exporter.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// initMeter builds the meter provider. The handler is non-nil only for the
// prometheus exporter.
func initMeter(cfg Config, res *resource.Resource) (*metric.MeterProvider, http.Handler, error) {
	switch cfg.MetricExporter {
	case MetricsPrometheus:
		reg := newRegistry()
		reader, err := promexporter.New(promexporter.WithRegisterer(reg))
		if err != nil {
			return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		mp := metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(reader))
		return mp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), nil

	case MetricsStdout:
		exporter, err := newStdoutMetricExporter()
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		var opts []metric.PeriodicReaderOption
		if cfg.MetricInterval > 0 {
			opts = append(opts, metric.WithInterval(cfg.MetricInterval))
		}
		mp := metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(exporter, opts...)),
		)
		return mp, nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.MetricExporter)
	}
}

// initTracer builds the tracer provider for cfg.TraceExporter.
func initTracer(ctx context.Context, cfg Config, res *resource.Resource) (*trace.TracerProvider, error) {
	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(samplerFor(cfg.SampleRate))),
	), nil
}

// samplerFor maps a sample rate to a root sampler.
func samplerFor(rate float64) trace.Sampler {
	if rate >= 1 {
		return trace.AlwaysSample()
	}
	if rate <= 0 {
		return trace.NeverSample()
	}
	return trace.TraceIDRatioBased(rate)
}
