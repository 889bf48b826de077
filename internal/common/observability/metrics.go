package observability

import (
	"context"
	"fmt"
	"time"

	"application-workers/internal/application"
	apperrors "application-workers/internal/common/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter for job and sweep metrics.
// All Record methods are safe on a zero value.
type Observability struct {
	meterProvider *metric.MeterProvider

	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	sweepCounter   otelmetric.Int64Counter
	sweepDuration  otelmetric.Float64Histogram
	expiredCounter otelmetric.Int64Counter
	notifyFailures otelmetric.Int64Counter
}

// New exports metrics through the Prometheus default registry and installs
// the provider globally.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	o, err := NewWithReader(serviceName, exporter)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(o.meterProvider)
	return o, nil
}

// NewWithReader is New with an explicit reader and no global side effects.
func NewWithReader(serviceName string, reader metric.Reader) (*Observability, error) {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	meter := provider.Meter(serviceName)
	o := &Observability{meterProvider: provider}

	var err error
	if o.jobCounter, err = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	); err != nil {
		return nil, err
	}
	if o.jobDuration, err = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if o.sweepCounter, err = meter.Int64Counter(
		"expiry.sweeps",
		otelmetric.WithDescription("Expiry sweeps by outcome"),
	); err != nil {
		return nil, err
	}
	if o.sweepDuration, err = meter.Float64Histogram(
		"expiry.sweep.duration",
		otelmetric.WithDescription("Expiry sweep duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if o.expiredCounter, err = meter.Int64Counter(
		"expiry.applications.expired",
		otelmetric.WithDescription("Applications removed by expiry sweeps"),
	); err != nil {
		return nil, err
	}
	if o.notifyFailures, err = meter.Int64Counter(
		"expiry.notifications.failed",
		otelmetric.WithDescription("Expiry notifications that could not be handed off"),
	); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// RecordSweep implements application.SweepObserver.
func (o *Observability) RecordSweep(ctx context.Context, result application.SweepResult, duration time.Duration, err error) {
	if o == nil || o.sweepCounter == nil {
		return
	}
	outcome := sweepOutcome(err)
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))

	o.sweepCounter.Add(ctx, 1, attrs)
	o.sweepDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if n := len(result.Expired); n > 0 {
		o.expiredCounter.Add(ctx, int64(n))
	}
	if result.NotificationFailures > 0 {
		o.notifyFailures.Add(ctx, int64(result.NotificationFailures))
	}
}

func sweepOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.HasCode(err, apperrors.ErrCodeSweepInProgress):
		return "skipped"
	default:
		return "failed"
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}

var _ application.SweepObserver = (*Observability)(nil)
