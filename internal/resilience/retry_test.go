package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2,
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastRetry(3), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection refused")
		}
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("unexpected result %d, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	retries := 0
	cfg := fastRetry(4)
	cfg.OnRetry = func(int, error, time.Duration) { retries++ }

	err := RetryFunc(context.Background(), cfg, func() error {
		calls++
		return errors.New("still down")
	})
	if err == nil || err.Error() != "still down" {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 4 || retries != 3 {
		t.Errorf("expected 4 calls and 3 retries, got %d and %d", calls, retries)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("bad password")
	cfg := fastRetry(5)
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	err := RetryFunc(context.Background(), cfg, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("expected single call with permanent error, got %d calls, %v", calls, err)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryFunc(ctx, fastRetry(3), func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCalculateBackoff_Capped(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, BackoffFactor: 10}
	if got := calculateBackoff(1, cfg); got != time.Second {
		t.Errorf("first backoff should equal initial, got %s", got)
	}
	if got := calculateBackoff(5, cfg); got != 3*time.Second {
		t.Errorf("backoff should be capped, got %s", got)
	}
}
