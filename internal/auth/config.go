// Package auth implements registration, login and bearer-token
// verification over the credential store and the token cache.
package auth

import (
	"fmt"
	"time"

	"github.com/kbukum/miroapi/internal/auth/jwt"
	"github.com/kbukum/miroapi/internal/auth/password"
)

// Config holds the auth service configuration.
type Config struct {
	JWT      jwt.Config      `yaml:"jwt" mapstructure:"jwt"`
	Password password.Config `yaml:"password" mapstructure:"password"`

	// CheckCache requires a bearer token to match the cached access token.
	// Nil means true.
	CheckCache *bool `yaml:"check_cache" mapstructure:"check_cache"`

	StoreTimeout time.Duration `yaml:"store_timeout" mapstructure:"store_timeout"`
	CacheTimeout time.Duration `yaml:"cache_timeout" mapstructure:"cache_timeout"`

	MaxConcurrentStore int           `yaml:"max_concurrent_store" mapstructure:"max_concurrent_store"`
	MaxConcurrentCache int           `yaml:"max_concurrent_cache" mapstructure:"max_concurrent_cache"`
	MaxWait            time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	c.JWT.ApplyDefaults()
	c.Password.ApplyDefaults()
	if c.CheckCache == nil {
		enabled := true
		c.CheckCache = &enabled
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 3 * time.Second
	}
	if c.CacheTimeout <= 0 {
		c.CacheTimeout = 2 * time.Second
	}
	if c.MaxConcurrentStore <= 0 {
		c.MaxConcurrentStore = 64
	}
	if c.MaxConcurrentCache <= 0 {
		c.MaxConcurrentCache = 128
	}
	if c.MaxWait <= 0 {
		c.MaxWait = time.Second
	}
}

// Validate checks the nested configs.
func (c *Config) Validate() error {
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("auth.password: %w", err)
	}
	return nil
}

// CacheCheckEnabled reports whether Authenticate consults the cache.
func (c *Config) CacheCheckEnabled() bool {
	return c.CheckCache == nil || *c.CheckCache
}
