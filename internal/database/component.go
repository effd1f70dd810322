package database

import (
	"context"
	"fmt"

	"github.com/kbukum/miroapi/internal/component"
	"github.com/kbukum/miroapi/internal/logger"
)

// Component manages the database lifecycle.
type Component struct {
	db     *DB
	cfg    Config
	log    *logger.Logger
	models []interface{}
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a database component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg: cfg,
		log: log.WithComponent("database"),
	}
}

// WithAutoMigrate registers models migrated on Start unless SkipAutoMigrate is set.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// DB returns the underlying *DB, or nil before Start.
func (c *Component) DB() *DB {
	return c.db
}

func (c *Component) Name() string { return "database" }

// Start connects and runs auto-migration.
func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	c.db = db

	if !c.cfg.SkipAutoMigrate && len(c.models) > 0 {
		if err := c.db.AutoMigrate(ctx, c.models...); err != nil {
			return fmt.Errorf("database auto-migrate: %w", err)
		}
	}
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.db == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "database not initialized"}
	}
	if err := c.db.PingContext(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err)}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("driver=%s pool=%d/%d", c.cfg.Driver, c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if !c.cfg.SkipAutoMigrate && len(c.models) > 0 {
		details += " auto-migrate=on"
	}
	return component.Description{Name: "Database", Type: "database", Details: details}
}
