package observability

import (
	"fmt"
	"time"
)

// Config enables the OTLP trace and metric exporters.
type Config struct {
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// TracingConfig configures the OTLP HTTP trace exporter.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is host:port, e.g. "localhost:4318".
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig configures the OTLP HTTP metric exporter.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills endpoints and intervals.
func (c *Config) ApplyDefaults() {
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
	}
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = 15 * time.Second
	}
}

// Validate checks the sample rate range.
func (c *Config) Validate() error {
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("observability.tracing.sample_rate must be between 0 and 1, got %v", c.Tracing.SampleRate)
	}
	return nil
}
