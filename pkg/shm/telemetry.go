package shm

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/srediag/shmseg/pkg/shm"

type telemetry struct {
	tracer       trace.Tracer
	bytesRead    metric.Int64Counter
	bytesWritten metric.Int64Counter
	attrs        metric.MeasurementOption
}

func newTelemetry(config *Config, backend BackendKind) (*telemetry, error) {
	tracer := config.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	meter := config.Meter
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
	}
	read, err := meter.Int64Counter("shm.segment.read",
		metric.WithUnit("By"),
		metric.WithDescription("Bytes copied out of shared memory segments."))
	if err != nil {
		return nil, err
	}
	written, err := meter.Int64Counter("shm.segment.written",
		metric.WithUnit("By"),
		metric.WithDescription("Bytes copied into shared memory segments."))
	if err != nil {
		return nil, err
	}
	return &telemetry{
		tracer:       tracer,
		bytesRead:    read,
		bytesWritten: written,
		attrs:        metric.WithAttributes(attribute.String("shm.backend", string(backend))),
	}, nil
}

func (t *telemetry) start(ctx context.Context, op, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "shm."+op, trace.WithAttributes(attribute.String("shm.name", name)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorKind(err))
	}
	span.End()
}

func (t *telemetry) read(n int) {
	t.bytesRead.Add(context.Background(), int64(n), t.attrs)
}

func (t *telemetry) wrote(n int) {
	t.bytesWritten.Add(context.Background(), int64(n), t.attrs)
}
