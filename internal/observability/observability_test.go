package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/miroapi/internal/logger"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Tracing.Endpoint != "localhost:4318" || cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("unexpected tracing defaults %+v", cfg.Tracing)
	}
	if cfg.Metrics.Interval != 15*time.Second {
		t.Errorf("unexpected interval %s", cfg.Metrics.Interval)
	}
	cfg.Tracing.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected sample rate error")
	}
}

func TestMetrics_RecordOperation(t *testing.T) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	m.RecordOperation(ctx, "login", "success", 10*time.Millisecond)
	m.RecordOperation(ctx, "login", "unauthorized", 5*time.Millisecond)
	m.RecordRequestStart(ctx)
	m.RecordRequestEnd(ctx, "POST", "/api/v1/auth/token", 200, time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	var total int64
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "auth.operations" {
				continue
			}
			found = true
			for _, dp := range md.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}
	if !found || total != 2 {
		t.Errorf("expected 2 auth.operations, found=%v total=%d", found, total)
	}
}

func TestEndSpan_RecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	_, span := tp.Tracer("test").Start(context.Background(), "auth.login")

	EndSpan(span, errors.New("boom"))

	ended := rec.Ended()
	if len(ended) != 1 || len(ended[0].Events()) != 1 {
		t.Fatalf("expected one ended span with an error event, got %d", len(ended))
	}
}

func TestComponent_DisabledIsNoop(t *testing.T) {
	c := NewComponent(Config{}, "miroapi", "dev", "test", logger.Nop())
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if c.tp != nil || c.mp != nil {
		t.Error("providers should not be created when disabled")
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestNewResource(t *testing.T) {
	res, err := NewResource("miroapi", "1.2.3", "test")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if kv.Key == "service.name" && kv.Value.AsString() == "miroapi" {
			found = true
		}
	}
	if !found {
		t.Error("service.name missing from resource")
	}
}
