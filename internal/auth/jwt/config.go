package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod names a supported HMAC algorithm.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

const (
	defaultAccessMinutes = 60 * 24 * 8
	defaultRefreshDays   = 7
	minSecretLength      = 32
)

// Config configures the token codec. Lifetimes use the units operators
// already know from the environment: minutes for access, days for refresh.
type Config struct {
	SecretKey                string        `yaml:"secret_key" mapstructure:"secret_key"`
	Algorithm                SigningMethod `yaml:"algorithm" mapstructure:"algorithm"`
	AccessTokenExpireMinutes int           `yaml:"access_token_expire_minutes" mapstructure:"access_token_expire_minutes"`
	RefreshTokenExpireDays   int           `yaml:"refresh_token_expire_days" mapstructure:"refresh_token_expire_days"`
	Issuer                   string        `yaml:"issuer" mapstructure:"issuer"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = HS256
	}
	if c.AccessTokenExpireMinutes == 0 {
		c.AccessTokenExpireMinutes = defaultAccessMinutes
	}
	if c.RefreshTokenExpireDays == 0 {
		c.RefreshTokenExpireDays = defaultRefreshDays
	}
}

// Validate checks the secret and lifetimes.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("secret_key is required")
	}
	if len(c.SecretKey) < minSecretLength {
		return fmt.Errorf("secret_key must be at least %d bytes (got: %d)", minSecretLength, len(c.SecretKey))
	}
	if c.signingMethod() == nil {
		return fmt.Errorf("unsupported algorithm: %s (use HS256, HS384 or HS512)", c.Algorithm)
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("access_token_expire_minutes must be positive (got: %d)", c.AccessTokenExpireMinutes)
	}
	if c.RefreshTokenExpireDays <= 0 {
		return fmt.Errorf("refresh_token_expire_days must be positive (got: %d)", c.RefreshTokenExpireDays)
	}
	return nil
}

// AccessTTL is the access token lifetime.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTTL is the refresh token lifetime.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Algorithm {
	case HS256:
		return gojwt.SigningMethodHS256
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return nil
	}
}
