// Package bootstrap runs a service: it starts registered components in
// order, runs configure callbacks and hooks, waits for a signal and shuts
// everything down in reverse.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/miroapi/internal/component"
	"github.com/kbukum/miroapi/internal/logger"
)

// App owns the lifecycle of a service with config type C.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger

	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error
	onStart         []Hook
	onReady         []Hook
	onStop          []Hook
}

// NewApp applies defaults to cfg, validates it and builds the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()

	o := appOptions{gracefulTimeout: 15 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = logger.New(&base.Logging, base.Name)
	}

	return &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(log),
		Logger:          log,
		gracefulTimeout: o.gracefulTimeout,
	}, nil
}

// RegisterComponent adds c to the registry. Register dependencies first.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure registers a callback run after infrastructure has started.
// Business wiring that needs a live database or cache goes here.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// ReadyCheck returns an error naming every component that is not healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var unhealthy []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		detail := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			detail += "(" + h.Message + ")"
		}
		unhealthy = append(unhealthy, detail)
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %s", strings.Join(unhealthy, ", "))
	}
	return nil
}

// Run starts the service, blocks until SIGINT, SIGTERM or ctx is done and
// then shuts down.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		if stopErr := a.Shutdown(context.Background()); stopErr != nil {
			a.Logger.Error("cleanup after failed start", logger.ErrorFields("shutdown", stopErr))
		}
		return err
	}
	a.WaitForSignal(ctx)
	return a.Shutdown(context.Background())
}

// Start runs the startup sequence without blocking: components, OnStart
// hooks, configure callbacks, ready check, OnReady hooks.
func (a *App[C]) Start(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("starting application", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return fmt.Errorf("configuration failed: %w", err)
		}
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.ErrorFields("ready", err))
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.logSummary(time.Since(start))
	return nil
}

// WaitForSignal blocks until SIGINT, SIGTERM or ctx cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("context canceled, shutting down")
		return nil
	}
}

// Shutdown runs OnStop hooks and stops components within the graceful
// timeout. The first error is returned; later ones are logged.
func (a *App[C]) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook failed", logger.ErrorFields("shutdown", err))
		shutdownErr = err
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.ErrorFields("shutdown", err))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	a.Logger.Info("application stopped")
	return shutdownErr
}

func (a *App[C]) logSummary(took time.Duration) {
	for _, c := range a.Components.All() {
		d, ok := c.(component.Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		a.Logger.Info("component ready", logger.Fields("name", desc.Name, "type", desc.Type, "details", desc.Details))
	}
	a.Logger.Info("application ready", logger.Fields(
		"name", a.Name, "version", a.Version, "startup_ms", took.Milliseconds(),
	))
}
