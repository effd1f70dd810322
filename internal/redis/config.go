package redis

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds Redis connection configuration.
type Config struct {
	// Addr is host:port. When empty it is built from Host and Port.
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	PoolSize     int `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`

	// MaxRetries is the per-command retry count inside go-redis.
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `yaml:"pool_timeout" mapstructure:"pool_timeout"`

	// ConnectAttempts bounds the startup ping loop.
	ConnectAttempts int `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6379
	}
	if c.Addr == "" {
		c.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
	if c.PoolTimeout <= 0 {
		c.PoolTimeout = 4 * time.Second
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = 5
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("redis.addr %q: %w", c.Addr, err)
	}
	if c.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("redis.pool_size must be > 0")
	}
	return nil
}
