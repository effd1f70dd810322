package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/miroapi/internal/component"
	"github.com/kbukum/miroapi/internal/logger"
	"github.com/kbukum/miroapi/internal/resilience"
)

// Component manages the Redis client lifecycle.
type Component struct {
	client *Client
	cfg    Config
	log    *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a Redis component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg: cfg,
		log: log.WithComponent("redis"),
	}
}

// Client returns the underlying *Client, or nil before Start.
func (c *Component) Client() *Client {
	return c.client
}

func (c *Component) Name() string { return "redis" }

// Start creates the client and pings until the server answers.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("redis start: %w", err)
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = c.cfg.ConnectAttempts
	retry.OnRetry = func(attempt int, err error, next time.Duration) {
		c.log.Warn("redis ping failed, retrying", logger.Fields(
			"attempt", attempt, "error", err.Error(), "backoff", next.String(),
		))
	}
	if err := resilience.RetryFunc(ctx, retry, func() error { return client.Ping(ctx) }); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start: %w", err)
	}

	c.client = client
	c.log.Info("redis connection established", logger.Fields("addr", c.cfg.Addr, "db", c.cfg.DB))
	return nil
}

// Stop closes the client.
func (c *Component) Stop(_ context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health pings the server.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.client == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "redis not initialized"}
	}
	if err := c.client.Ping(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Redis",
		Type:    "redis",
		Details: fmt.Sprintf("%s db=%d pool=%d", c.cfg.Addr, c.cfg.DB, c.cfg.PoolSize),
	}
}
