// Package redis wraps go-redis for the token cache: pooled connections,
// a retried startup ping and component lifecycle support.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/miroapi/internal/logger"
)

// ErrNil is returned by Get when the key does not exist.
var ErrNil = goredis.Nil

// IsNil reports whether err is a cache miss.
func IsNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}

// Client wraps a go-redis client.
type Client struct {
	rdb    *goredis.Client
	log    *logger.Logger
	cfg    Config
	closed bool
	mu     sync.Mutex
}

// New creates a client. It does not contact the server.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	})

	log.Debug("redis client created", logger.Fields("addr", cfg.Addr, "db", cfg.DB, "pool_size", cfg.PoolSize))
	return &Client{rdb: rdb, log: log, cfg: cfg}, nil
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	pong, err := c.rdb.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if pong != "PONG" {
		return fmt.Errorf("unexpected redis ping response: %s", pong)
	}
	return nil
}

// Get returns the value at key, or ErrNil when absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set stores value at key. A zero expiration keeps the key forever.
func (c *Client) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

// Del deletes keys and returns how many existed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return c.rdb.Del(ctx, keys...).Result()
}

// TTL returns the remaining lifetime of key.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.rdb.TTL(ctx, key).Result()
}

// Close closes the connection pool. Safe to call multiple times.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.log.Info("closing redis connection")
	c.closed = true
	return c.rdb.Close()
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.cfg.Addr
}

// Unwrap returns the underlying go-redis client.
func (c *Client) Unwrap() *goredis.Client {
	return c.rdb
}
