package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs a periodic OTLP HTTP meter provider as the global.
func InitMeter(ctx context.Context, cfg MetricsConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the service meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Metrics holds the instruments recorded by the HTTP middleware and the
// auth service.
type Metrics struct {
	requestTotal      metric.Int64Counter
	requestDuration   metric.Float64Histogram
	requestActive     metric.Int64UpDownCounter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestTotal, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Completed HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.requests: %w", err)
	}
	requestDuration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.duration: %w", err)
	}
	requestActive, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("In-flight HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.active_requests: %w", err)
	}
	operationTotal, err := meter.Int64Counter("auth.operations",
		metric.WithDescription("Auth operations by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.operations: %w", err)
	}
	operationDuration, err := meter.Float64Histogram("auth.operation.duration",
		metric.WithDescription("Auth operation latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.operation.duration: %w", err)
	}

	return &Metrics{
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestActive:     requestActive,
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
	}, nil
}

// NewNopMetrics returns instruments bound to the current global meter
// provider, which is a no-op until InitMeter runs.
func NewNopMetrics() *Metrics {
	m, err := NewMetrics(Meter())
	if err != nil {
		panic(err)
	}
	return m
}

// RecordRequestStart increments the in-flight gauge.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements the in-flight gauge and records the request.
func (m *Metrics) RecordRequestEnd(ctx context.Context, method, route string, status int, duration time.Duration) {
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	))
}

// RecordOperation counts an auth operation and its latency.
func (m *Metrics) RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperation, operation),
		attribute.String(AttrOutcome, outcome),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrOperation, operation),
	))
}
