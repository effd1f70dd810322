package testutil

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kbukum/miroapi/internal/component"
	"github.com/kbukum/miroapi/internal/database"
	"github.com/kbukum/miroapi/internal/logger"
)

// DatabaseComponent is a private in-memory SQLite database with the given
// models migrated on Start.
type DatabaseComponent struct {
	*database.Component
	models []interface{}
}

var _ TestComponent = (*DatabaseComponent)(nil)

// NewDatabase creates an unstarted in-memory database. Each instance gets
// its own shared-cache name so parallel tests do not see each other.
func NewDatabase(models ...interface{}) *DatabaseComponent {
	cfg := database.Config{
		Driver:     database.DriverSQLite,
		DSN:        fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxRetries: 1,
	}
	return &DatabaseComponent{
		Component: database.NewComponent(cfg, logger.Nop()).WithAutoMigrate(models...),
		models:    models,
	}
}

func (c *DatabaseComponent) Name() string { return "database-test" }

// Health delegates to the wrapped component under the test name.
func (c *DatabaseComponent) Health(ctx context.Context) component.Health {
	h := c.Component.Health(ctx)
	h.Name = c.Name()
	return h
}

// Reset drops and recreates the migrated tables.
func (c *DatabaseComponent) Reset(ctx context.Context) error {
	db := c.DB()
	if db == nil {
		return fmt.Errorf("component not started")
	}
	migrator := db.WithContext(ctx).Migrator()
	if err := migrator.DropTable(c.models...); err != nil {
		return err
	}
	return db.AutoMigrate(ctx, c.models...)
}
