package database

import (
	"fmt"
	"time"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database connection configuration.
type Config struct {
	// Driver selects the gorm dialector: "postgres" (default) or "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`

	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`

	// MaxRetries is the number of connection attempts before giving up.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
	// ConnectTimeout bounds each connection attempt.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// SkipAutoMigrate leaves the tables registered with WithAutoMigrate
	// untouched on startup.
	SkipAutoMigrate bool `yaml:"skip_auto_migrate" mapstructure:"skip_auto_migrate"`

	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"`
	// LogLevel is the gorm log level: silent, error, warn or info.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = min(5, c.MaxOpenConns)
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.SlowQueryThreshold == 0 {
		c.SlowQueryThreshold = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.Driver != DriverPostgres && c.Driver != DriverSQLite {
		return fmt.Errorf("database.driver must be %q or %q (got: %s)", DriverPostgres, DriverSQLite, c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns (%d) must be <= max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect_timeout must not be negative")
	}
	return nil
}
