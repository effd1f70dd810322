package app

import (
	"github.com/kbukum/miroapi/internal/auth"
	"github.com/kbukum/miroapi/internal/config"
	"github.com/kbukum/miroapi/internal/database"
	"github.com/kbukum/miroapi/internal/observability"
	"github.com/kbukum/miroapi/internal/redis"
	"github.com/kbukum/miroapi/internal/server"
)

// ServiceName is the default config.name and the key used to find
// cmd/<name>/config.yml.
const ServiceName = "miroapi"

// Config is the full service configuration. Environment variables such as
// AUTH_JWT_SECRET_KEY, DATABASE_DSN and REDIS_ADDR override config.yml.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section. Section errors already carry their
// config path.
func (c *Config) Validate() error {
	validators := []func() error{
		c.ServiceConfig.Validate,
		c.Server.Validate,
		c.Database.Validate,
		c.Redis.Validate,
		c.Auth.Validate,
		c.Observability.Validate,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// Load reads config.yml, .env and the environment into a Config.
func Load(opts ...config.LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
