package tokencache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/miroapi/internal/testutil"
)

func newStore(t *testing.T) (*Store, *testutil.RedisComponent) {
	t.Helper()
	rc := testutil.NewRedis()
	testutil.T(t).Setup(rc)
	return NewStore(rc.Client()), rc
}

func TestKey(t *testing.T) {
	id := uuid.MustParse("5f0e7a9c-0b8e-4c55-9f3a-1a2b3c4d5e6f")
	if got := Key(Access, id); got != "access_token:5f0e7a9c-0b8e-4c55-9f3a-1a2b3c4d5e6f" {
		t.Errorf("unexpected access key %q", got)
	}
	if got := Key(Refresh, id); got != "refresh_token:5f0e7a9c-0b8e-4c55-9f3a-1a2b3c4d5e6f" {
		t.Errorf("unexpected refresh key %q", got)
	}
}

func TestStore_SetGetWithTTL(t *testing.T) {
	s, rc := newStore(t)
	ctx := context.Background()
	id := uuid.New()

	if err := s.Set(ctx, Access, id, "tok-a", 8*24*time.Hour); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, Access, id)
	if err != nil || got != "tok-a" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if ttl := rc.Mini().TTL(Key(Access, id)); ttl != 8*24*time.Hour {
		t.Errorf("expected ttl 192h, got %s", ttl)
	}

	rc.FastForward(8*24*time.Hour + time.Second)
	if _, err := s.Get(ctx, Access, id); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after expiry, got %v", err)
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id := uuid.New()

	_ = s.Set(ctx, Access, id, "first", time.Hour)
	_ = s.Set(ctx, Access, id, "second", time.Hour)
	if got, _ := s.Get(ctx, Access, id); got != "second" {
		t.Errorf("expected overwrite, got %q", got)
	}
}

func TestStore_Delete(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id := uuid.New()

	_ = s.Set(ctx, Access, id, "a", time.Hour)
	_ = s.Set(ctx, Refresh, id, "r", time.Hour)

	if err := s.Delete(ctx, id, Access); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, Access, id); !errors.Is(err, ErrMiss) {
		t.Errorf("access should be gone, got %v", err)
	}
	if got, _ := s.Get(ctx, Refresh, id); got != "r" {
		t.Errorf("refresh should remain, got %q", got)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, Refresh, id); !errors.Is(err, ErrMiss) {
		t.Errorf("refresh should be gone, got %v", err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Errorf("deleting missing keys should succeed, got %v", err)
	}
}

func TestStore_RejectsNonPositiveTTL(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Set(context.Background(), Access, uuid.New(), "a", 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestStore_BackendFailure(t *testing.T) {
	s, rc := newStore(t)
	ctx := context.Background()
	rc.Fail("ERR injected")

	if err := s.Set(ctx, Access, uuid.New(), "a", time.Hour); err == nil {
		t.Error("expected Set to fail")
	}
	_, err := s.Get(ctx, Access, uuid.New())
	if err == nil || errors.Is(err, ErrMiss) {
		t.Errorf("expected a backend error distinct from ErrMiss, got %v", err)
	}
}
