package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/miroapi/internal/server/middleware"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string                `yaml:"host" mapstructure:"host"`
	Port            int                   `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration         `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration         `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration         `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration         `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxBodySize     string                `yaml:"max_body_size" mapstructure:"max_body_size"` // e.g. "1MB"
	CORS            middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID}
	}
}

// Validate checks ranges and the body size.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}
	if _, err := ParseSize(c.MaxBodySize); err != nil {
		return fmt.Errorf("server.max_body_size: %w", err)
	}
	return nil
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ParseSize parses "512", "64KB", "10MB" or "1GB" into bytes.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	units := []struct {
		suffix string
		mult   int64
	}{{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}, {"B", 1}}

	mult := int64(1)
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			s, mult = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.mult
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}
