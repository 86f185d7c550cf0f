// Package monitoring wires the OpenTelemetry trace pipeline. Metrics are
// handled separately by the Prometheus registry inside the API server.
package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/infrastructure/config"
)

// TracingProvider owns the tracer provider lifecycle. When tracing is
// disabled it is a no-op shell so callers never need to nil-check.
type TracingProvider struct {
	provider *sdktrace.TracerProvider
	logger   *zap.Logger
}

// NewTracingProvider sets up an OTLP/HTTP exporter and installs the global
// tracer provider and W3C propagators.
func NewTracingProvider(cfg *config.Config, logger *zap.Logger) (*TracingProvider, error) {
	if !cfg.Monitoring.EnableTracing {
		logger.Info("Tracing is disabled")
		return &TracingProvider{logger: logger}, nil
	}

	opts := []otlptracehttp.Option{}
	if cfg.Monitoring.OTLPEndpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Monitoring.OTLPEndpoint), otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.App.Name),
			semconv.ServiceVersionKey.String(cfg.App.Version),
			semconv.DeploymentEnvironmentKey.String(cfg.App.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampling := cfg.Monitoring.SamplingRate
	if sampling <= 0 {
		sampling = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampling))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Tracing initialized",
		zap.String("service", cfg.App.Name),
		zap.String("otlp_endpoint", cfg.Monitoring.OTLPEndpoint),
		zap.Float64("sampling_rate", sampling),
	)

	return &TracingProvider{provider: tp, logger: logger}, nil
}

// Shutdown flushes any buffered spans.
func (t *TracingProvider) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// TraceIDFromContext returns the active trace ID for log correlation, or an
// empty string when there is no recording span.
func TraceIDFromContext(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
