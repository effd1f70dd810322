// Package resilience bounds how much of the process a slow dependency can
// hold (Bulkhead) and retries transient startup failures (Retry).
package resilience

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	Name          string `yaml:"-" mapstructure:"-"`
	MaxConcurrent int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// MaxWait is how long a caller queues for a slot. 0 fails immediately.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
	// OnReject is called when a request is rejected.
	OnReject func(name string, err error) `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills zero values.
func (c *BulkheadConfig) ApplyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 32
	}
	if c.MaxWait < 0 {
		c.MaxWait = 0
	}
}

// Bulkhead limits the number of in-flight calls to a dependency.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	config.ApplyDefaults()
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Execute runs fn once a slot is free. It returns ErrBulkheadFull,
// ErrBulkheadTimeout or the context error when no slot could be acquired.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name, err)
		}
		return err
	}
	defer b.release()

	return fn()
}

// ExecuteWithResult runs a function that returns a value.
func ExecuteWithResult[T any](ctx context.Context, b *Bulkhead, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}

	if b.config.MaxWait <= 0 {
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) release() {
	<-b.sem
}

// InUse returns the number of slots currently in use.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// Name returns the configured bulkhead name.
func (b *Bulkhead) Name() string {
	return b.config.Name
}

// IsRejection reports whether err came from the bulkhead rather than fn.
func IsRejection(err error) bool {
	return errors.Is(err, ErrBulkheadFull) || errors.Is(err, ErrBulkheadTimeout)
}
