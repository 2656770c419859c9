// Package telemetry implements core.Telemetry with OpenTelemetry.
//
// The provider traces pipeline stages and fan-out batches, exporting
// spans through the stdout trace exporter. Metrics are aggregated
// in-process and exposed via Snapshot, which keeps the dependency
// surface small while remaining drop-in replaceable by an OTLP pipeline.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/hznxin/tripmind/core"
)

// Provider implements core.Telemetry over an OpenTelemetry tracer.
type Provider struct {
	tracer        trace.Tracer
	traceProvider *sdktrace.TracerProvider
	shutdownOnce  sync.Once

	mu      sync.Mutex
	metrics map[string]float64
}

// NewProvider creates a telemetry provider exporting batched spans to
// stdout.
func NewProvider(serviceName string) (*Provider, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("service name cannot be empty: %w", core.ErrInvalidConfiguration)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return &Provider{
		tracer:        tp.Tracer(serviceName),
		traceProvider: tp,
		metrics:       make(map[string]float64),
	}, nil
}

// StartSpan implements core.Telemetry.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric accumulates the measurement in-process. Snapshot exposes
// the aggregate; a scraping sidecar or a future OTLP metric pipeline can
// read it without changing callers.
func (p *Provider) RecordMetric(name string, value float64, labels map[string]string) {
	p.mu.Lock()
	p.metrics[name] += value
	p.mu.Unlock()
}

// Snapshot returns a copy of the accumulated metrics.
func (p *Provider) Snapshot() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]float64, len(p.metrics))
	for k, v := range p.metrics {
		out[k] = v
	}
	return out
}

// Shutdown flushes and stops the trace pipeline.
func (p *Provider) Shutdown(ctx context.Context) error {
	var err error
	p.shutdownOnce.Do(func() {
		err = p.traceProvider.Shutdown(ctx)
	})
	return err
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

var _ core.Telemetry = (*Provider)(nil)
