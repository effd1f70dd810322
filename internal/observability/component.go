package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/miroapi/internal/component"
	"github.com/kbukum/miroapi/internal/logger"
)

// Component owns the tracer and meter providers. With both exporters
// disabled it leaves the otel no-op globals in place.
type Component struct {
	cfg         Config
	serviceName string
	version     string
	environment string
	log         *logger.Logger

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the telemetry component.
func NewComponent(cfg Config, serviceName, version, environment string, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg:         cfg,
		serviceName: serviceName,
		version:     version,
		environment: environment,
		log:         log.WithComponent("observability"),
	}
}

func (c *Component) Name() string { return "observability" }

// Start installs the enabled providers.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Tracing.Enabled && !c.cfg.Metrics.Enabled {
		c.log.Debug("telemetry disabled")
		return nil
	}
	res, err := NewResource(c.serviceName, c.version, c.environment)
	if err != nil {
		return fmt.Errorf("observability resource: %w", err)
	}

	if c.cfg.Tracing.Enabled {
		tp, err := InitTracer(ctx, c.cfg.Tracing, res)
		if err != nil {
			return err
		}
		c.tp = tp
		c.log.Info("tracer initialized", logger.Fields(
			"endpoint", c.cfg.Tracing.Endpoint, "sample_rate", c.cfg.Tracing.SampleRate,
		))
	}
	if c.cfg.Metrics.Enabled {
		mp, err := InitMeter(ctx, c.cfg.Metrics, res)
		if err != nil {
			return err
		}
		c.mp = mp
		c.log.Info("meter initialized", logger.Fields(
			"endpoint", c.cfg.Metrics.Endpoint, "interval", c.cfg.Metrics.Interval.String(),
		))
	}
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Health is always healthy; export failures are retried by the SDK.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name: "Telemetry",
		Type: "otel",
		Details: fmt.Sprintf("tracing=%t metrics=%t endpoint=%s",
			c.cfg.Tracing.Enabled, c.cfg.Metrics.Enabled, c.cfg.Tracing.Endpoint),
	}
}
