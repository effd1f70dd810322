package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/miroapi/internal/component"
	"github.com/kbukum/miroapi/internal/database"
	"github.com/kbukum/miroapi/internal/redis"
)

type widget struct {
	database.BaseModel
	Label string
}

func TestRedisComponent(t *testing.T) {
	rc := NewRedis()
	T(t).Setup(rc)
	ctx := context.Background()

	if h := rc.Health(ctx); h.Status != component.StatusHealthy {
		t.Fatalf("expected healthy, got %+v", h)
	}
	if err := rc.Client().Set(ctx, "k", "v", time.Second); err != nil {
		t.Fatal(err)
	}

	rc.FastForward(2 * time.Second)
	if _, err := rc.Client().Get(ctx, "k"); !redis.IsNil(err) {
		t.Errorf("expected key to expire, got %v", err)
	}

	_ = rc.Client().Set(ctx, "k", "v", 0)
	T(t).Reset(rc)
	if _, err := rc.Client().Get(ctx, "k"); !redis.IsNil(err) {
		t.Errorf("expected Reset to flush, got %v", err)
	}

	rc.Fail("ERR injected")
	if err := rc.Client().Set(ctx, "k", "v", 0); err == nil {
		t.Error("expected injected failure")
	}
	rc.Recover()
	if err := rc.Client().Set(ctx, "k", "v", 0); err != nil {
		t.Errorf("expected recovery, got %v", err)
	}
}

func TestDatabaseComponent(t *testing.T) {
	dc := NewDatabase(&widget{})
	T(t).Setup(dc)
	ctx := context.Background()

	if err := dc.DB().WithContext(ctx).Create(&widget{Label: "a"}).Error; err != nil {
		t.Fatal(err)
	}
	T(t).Reset(dc)

	var count int64
	dc.DB().WithContext(ctx).Model(&widget{}).Count(&count)
	if count != 0 {
		t.Errorf("expected empty table after Reset, got %d rows", count)
	}
	if h := dc.Health(ctx); h.Name != "database-test" || h.Status != component.StatusHealthy {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestDatabaseComponent_Isolated(t *testing.T) {
	a, b := NewDatabase(&widget{}), NewDatabase(&widget{})
	T(t).Setup(a, b)
	ctx := context.Background()

	_ = a.DB().WithContext(ctx).Create(&widget{Label: "only-a"}).Error
	var count int64
	b.DB().WithContext(ctx).Model(&widget{}).Count(&count)
	if count != 0 {
		t.Errorf("databases should not share rows, got %d", count)
	}
}
