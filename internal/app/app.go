// Package app is the composition root. It turns a Config into a runnable
// bootstrap.App with the database, cache, telemetry and HTTP server
// registered in dependency order.
package app

import (
	"fmt"

	"github.com/kbukum/miroapi/internal/bootstrap"
	"github.com/kbukum/miroapi/internal/component"
	"github.com/kbukum/miroapi/internal/database"
	"github.com/kbukum/miroapi/internal/observability"
	"github.com/kbukum/miroapi/internal/redis"
	"github.com/kbukum/miroapi/internal/server"
	"github.com/kbukum/miroapi/internal/users"
)

// Runtime is the assembled service.
type Runtime struct {
	*bootstrap.App[*Config]
	Server *server.Server
}

// New validates cfg and registers components in start order:
// observability, database, redis, api, http-server.
func New(cfg *Config, opts ...bootstrap.Option) (*Runtime, error) {
	a, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	// Instruments created on the global meter forward to the provider
	// installed when the observability component starts.
	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	srv, err := server.New(cfg.Server, a.Logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	db := database.NewComponent(cfg.Database, a.Logger).WithAutoMigrate(&users.User{})
	cache := redis.NewComponent(cfg.Redis, a.Logger)

	for _, c := range []component.Component{
		observability.NewComponent(cfg.Observability, cfg.Name, a.Version, cfg.Environment, a.Logger),
		db,
		cache,
		newAPIComponent(cfg, a, db, cache, srv, metrics),
		server.NewComponent(srv),
	} {
		if err := a.RegisterComponent(c); err != nil {
			return nil, err
		}
	}

	return &Runtime{App: a, Server: srv}, nil
}
