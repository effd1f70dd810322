package app

import (
	"context"
	"fmt"

	"github.com/kbukum/miroapi/internal/api"
	"github.com/kbukum/miroapi/internal/auth"
	"github.com/kbukum/miroapi/internal/bootstrap"
	"github.com/kbukum/miroapi/internal/component"
	"github.com/kbukum/miroapi/internal/database"
	"github.com/kbukum/miroapi/internal/observability"
	"github.com/kbukum/miroapi/internal/redis"
	"github.com/kbukum/miroapi/internal/server"
	"github.com/kbukum/miroapi/internal/tokencache"
	"github.com/kbukum/miroapi/internal/users"
)

// apiComponent builds the auth service once the database and cache are up
// and mounts its routes before the HTTP server starts listening.
type apiComponent struct {
	cfg     *Config
	app     *bootstrap.App[*Config]
	db      *database.Component
	cache   *redis.Component
	srv     *server.Server
	metrics *observability.Metrics

	svc *auth.Service
}

func newAPIComponent(cfg *Config, a *bootstrap.App[*Config], db *database.Component, cache *redis.Component, srv *server.Server, m *observability.Metrics) *apiComponent {
	return &apiComponent{cfg: cfg, app: a, db: db, cache: cache, srv: srv, metrics: m}
}

func (c *apiComponent) Name() string { return "api" }

func (c *apiComponent) Start(_ context.Context) error {
	if c.db.DB() == nil || c.cache.Client() == nil {
		return fmt.Errorf("api requires a started database and redis")
	}
	svc, err := auth.NewService(
		c.cfg.Auth,
		users.NewRepository(c.db.DB()),
		tokencache.NewStore(c.cache.Client()),
		c.app.Logger,
		auth.WithMetrics(c.metrics),
	)
	if err != nil {
		return err
	}
	c.svc = svc

	api.Mount(c.srv.Engine(), svc, api.Operational{
		ServiceName: c.cfg.Name,
		Environment: c.cfg.Environment,
		Checker:     c.app.Components.HealthAll,
	}, c.app.Logger)
	return nil
}

func (c *apiComponent) Stop(_ context.Context) error { return nil }

func (c *apiComponent) Health(_ context.Context) component.Health {
	if c.svc == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "routes not mounted"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}
