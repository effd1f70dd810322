package bootstrap

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/miroapi/internal/component"
	"github.com/kbukum/miroapi/internal/config"
	"github.com/kbukum/miroapi/internal/logger"
)

type testConfig struct {
	config.ServiceConfig `mapstructure:",squash"`
	Extra                string
}

func (c *testConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Extra == "" {
		c.Extra = "default"
	}
}

func (c *testConfig) Validate() error { return c.ServiceConfig.Validate() }

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.events, ",")
}

type fakeComponent struct {
	name     string
	rec      *recorder
	startErr error
	status   component.HealthStatus
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.rec.add("start:" + f.name)
	return nil
}

func (f *fakeComponent) Stop(context.Context) error {
	f.rec.add("stop:" + f.name)
	return nil
}

func (f *fakeComponent) Health(context.Context) component.Health {
	status := f.status
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: f.name, Status: status}
}

func newApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "miroapi"}}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	return app
}

func TestNewApp_AppliesDefaultsAndValidates(t *testing.T) {
	app := newApp(t)
	if app.Cfg.Extra != "default" || app.Cfg.Environment != config.EnvDevelopment {
		t.Errorf("defaults not applied: %+v", app.Cfg)
	}

	_, err := NewApp(&testConfig{}, WithLogger(logger.Nop()))
	if err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestApp_LifecycleOrder(t *testing.T) {
	rec := &recorder{}
	app := newApp(t)
	_ = app.RegisterComponent(&fakeComponent{name: "db", rec: rec})
	_ = app.RegisterComponent(&fakeComponent{name: "http", rec: rec})
	app.OnStart(func(context.Context) error { rec.add("onStart"); return nil })
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		rec.add("configure:" + a.Name)
		return nil
	})
	app.OnReady(func(context.Context) error { rec.add("onReady"); return nil })
	app.OnStop(func(context.Context) error { rec.add("onStop"); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatal(err)
	}

	want := "start:db,start:http,onStart,configure:miroapi,onReady,onStop,stop:http,stop:db"
	if got := rec.String(); got != want {
		t.Errorf("lifecycle order\n got: %s\nwant: %s", got, want)
	}
}

func TestApp_StartFailureStopsStartedComponents(t *testing.T) {
	rec := &recorder{}
	app := newApp(t)
	_ = app.RegisterComponent(&fakeComponent{name: "db", rec: rec})
	_ = app.RegisterComponent(&fakeComponent{name: "redis", rec: rec, startErr: errors.New("refused")})

	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected start error, got %v", err)
	}
	if got := rec.String(); got != "start:db,stop:db" {
		t.Errorf("unexpected events %s", got)
	}
}

func TestApp_ReadyCheck(t *testing.T) {
	app := newApp(t)
	_ = app.RegisterComponent(&fakeComponent{name: "redis", rec: &recorder{}, status: component.StatusUnhealthy})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "redis=unhealthy") {
		t.Errorf("expected redis to be reported, got %v", err)
	}
}
