package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/miroapi/internal/component"
	"github.com/kbukum/miroapi/internal/logger"
	"github.com/kbukum/miroapi/internal/redis"
)

// RedisComponent is an in-memory Redis backed by miniredis.
type RedisComponent struct {
	mini    *miniredis.Miniredis
	client  *redis.Client
	started bool
	mu      sync.RWMutex
}

var _ TestComponent = (*RedisComponent)(nil)

// NewRedis creates an unstarted in-memory Redis component.
func NewRedis() *RedisComponent {
	return &RedisComponent{}
}

func (c *RedisComponent) Name() string { return "redis-test" }

// Client returns the cache client, or nil before Start.
func (c *RedisComponent) Client() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Mini exposes the miniredis server for TTL inspection and time travel.
func (c *RedisComponent) Mini() *miniredis.Miniredis {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mini
}

// Start launches the in-memory server and connects a client to it.
func (c *RedisComponent) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("component already started")
	}
	mini, err := miniredis.Run()
	if err != nil {
		return fmt.Errorf("failed to start miniredis: %w", err)
	}
	client, err := redis.New(redis.Config{Addr: mini.Addr()}, logger.Nop())
	if err != nil {
		mini.Close()
		return err
	}
	c.mini = mini
	c.client = client
	c.started = true
	return nil
}

// Stop closes the client and the server.
func (c *RedisComponent) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	_ = c.client.Close()
	c.mini.Close()
	c.started = false
	return nil
}

// Health pings the server, so an error set with Fail reports unhealthy.
func (c *RedisComponent) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	if err := c.client.Ping(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Reset flushes every key.
func (c *RedisComponent) Reset(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return fmt.Errorf("component not started")
	}
	c.mini.FlushAll()
	return nil
}

// FastForward advances miniredis time so TTLs expire.
func (c *RedisComponent) FastForward(d time.Duration) {
	c.Mini().FastForward(d)
}

// Fail makes every subsequent command return an error until Recover.
func (c *RedisComponent) Fail(msg string) {
	c.Mini().SetError(msg)
}

// Recover clears a failure set by Fail.
func (c *RedisComponent) Recover() {
	c.Mini().SetError("")
}
