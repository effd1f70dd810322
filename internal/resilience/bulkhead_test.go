package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_RunsWithinLimit(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "store", MaxConcurrent: 2})
	called := false
	if err := b.Execute(context.Background(), func() error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("fn was not called")
	}
	if b.InUse() != 0 {
		t.Errorf("slot not released, in use %d", b.InUse())
	}
}

func TestBulkhead_PropagatesFnError(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "store", MaxConcurrent: 1})
	want := errors.New("insert failed")
	err := b.Execute(context.Background(), func() error { return want })
	if !errors.Is(err, want) {
		t.Errorf("expected fn error, got %v", err)
	}
	if IsRejection(err) {
		t.Error("fn error is not a rejection")
	}
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	var rejected atomic.Int32
	b := NewBulkhead(BulkheadConfig{
		Name:          "cache",
		MaxConcurrent: 1,
		OnReject:      func(string, error) { rejected.Add(1) },
	})

	hold := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = b.Execute(context.Background(), func() error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	err := b.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	if rejected.Load() != 1 {
		t.Errorf("expected one rejection callback, got %d", rejected.Load())
	}

	close(hold)
	wg.Wait()
}

func TestBulkhead_WaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "cache", MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})

	hold := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started
	defer close(hold)

	err := b.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrBulkheadTimeout) || !IsRejection(err) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "store", MaxConcurrent: 1, MaxWait: time.Second})

	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error {
			close(started)
			time.Sleep(10 * time.Millisecond)
			return nil
		})
	}()
	<-started

	if err := b.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("expected slot after wait, got %v", err)
	}
}

func TestExecuteWithResult(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "store"})
	got, err := ExecuteWithResult(context.Background(), b, func() (string, error) { return "alice123", nil })
	if err != nil || got != "alice123" {
		t.Errorf("unexpected result %q, %v", got, err)
	}
	if b.Name() != "store" {
		t.Errorf("unexpected name %q", b.Name())
	}
}
