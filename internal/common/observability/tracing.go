package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"application-workers/internal/common/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Tracing owns the process tracer provider. A disabled Tracing is a zero
// value and Shutdown is a no-op.
type Tracing struct {
	provider *sdktrace.TracerProvider
	output   io.Closer
}

// NewTracerProvider batches spans to exporter. sampleRatio outside (0, 1]
// samples everything.
func NewTracerProvider(serviceName string, exporter sdktrace.SpanExporter, sampleRatio float64) *sdktrace.TracerProvider {
	if sampleRatio <= 0 || sampleRatio > 1 {
		sampleRatio = 1
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
	)
}

// SetupTracing installs a global tracer provider writing spans as JSON to
// cfg.Output ("stdout" or a file path).
func SetupTracing(cfg config.TracingConfig, serviceName string) (*Tracing, error) {
	if !cfg.Enabled {
		return &Tracing{}, nil
	}

	var (
		w      io.Writer = os.Stdout
		closer io.Closer
	)
	if cfg.Output != "" && cfg.Output != "stdout" {
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open trace output: %w", err)
		}
		w, closer = f, f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	provider := NewTracerProvider(serviceName, exporter, cfg.SampleRatio)
	otel.SetTracerProvider(provider)
	return &Tracing{provider: provider, output: closer}, nil
}

// Shutdown flushes pending spans and closes the output file.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	err := t.provider.Shutdown(ctx)
	if t.output != nil {
		err = errors.Join(err, t.output.Close())
	}
	return err
}
