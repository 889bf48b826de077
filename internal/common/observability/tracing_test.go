package observability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"application-workers/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func restoreTracerProvider(t *testing.T) {
	t.Helper()
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

func TestNewTracerProvider_ExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := NewTracerProvider("application-workers", exporter, 0)

	_, span := provider.Tracer("test").Start(context.Background(), "application.ExpireApplications")
	span.End()
	require.NoError(t, provider.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "application.ExpireApplications", spans[0].Name)

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == attribute.Key("service.name") {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "application-workers", service)
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestSetupTracing_Disabled(t *testing.T) {
	tracing, err := SetupTracing(config.TracingConfig{Enabled: false}, "application-workers")
	require.NoError(t, err)
	assert.NoError(t, tracing.Shutdown(context.Background()))

	var nilTracing *Tracing
	assert.NoError(t, nilTracing.Shutdown(context.Background()))
}

func TestSetupTracing_InstallsGlobalProvider(t *testing.T) {
	restoreTracerProvider(t)
	out := filepath.Join(t.TempDir(), "spans.json")

	tracing, err := SetupTracing(config.TracingConfig{Enabled: true, Output: out, SampleRatio: 1}, "application-workers")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "application.Register")
	span.End()
	require.NoError(t, tracing.Shutdown(context.Background()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "application.Register")
}

func TestSetupTracing_BadOutput(t *testing.T) {
	_, err := SetupTracing(config.TracingConfig{
		Enabled: true,
		Output:  filepath.Join(t.TempDir(), "missing", "spans.json"),
	}, "application-workers")
	assert.Error(t, err)
}
