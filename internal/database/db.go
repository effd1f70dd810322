// Package database opens the gorm connection used by the credential store,
// with pooled connections, retried startup and translated constraint errors.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/miroapi/internal/logger"
	"github.com/kbukum/miroapi/internal/resilience"
)

// DB wraps a gorm database.
type DB struct {
	GormDB *gorm.DB
	log    *logger.Logger
	cfg    Config
	closed bool
	mu     sync.Mutex
}

// Open connects to the configured database, retrying with exponential
// backoff until MaxRetries attempts are exhausted or ctx is cancelled.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:         newGormLogger(log, cfg.SlowQueryThreshold, parseLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxRetries
	retry.OnRetry = func(attempt int, err error, next time.Duration) {
		log.Warn("database connection attempt failed, retrying", logger.Fields(
			"attempt", attempt, "error", err.Error(), "backoff", next.String(),
		))
	}

	gdb, err := resilience.Retry(ctx, retry, func() (*gorm.DB, error) {
		return connect(ctx, dialector, gormCfg, cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", cfg.MaxRetries, err)
	}

	log.Info("database connection established", logger.Fields("driver", cfg.Driver))
	return &DB{GormDB: gdb, log: log, cfg: cfg}, nil
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	case DriverSQLite:
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func connect(ctx context.Context, dialector gorm.Dialector, gormCfg *gorm.Config, cfg Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	// SQLite serialises writers; one connection also keeps an in-memory database alive.
	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		return gdb, nil
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return gdb, nil
}

// Close closes the connection pool. Safe to call multiple times.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	d.closed = true
	d.log.Info("closing database connection")
	return sqlDB.Close()
}

// PingContext verifies the database connection is alive.
func (d *DB) PingContext(ctx context.Context) error {
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WithContext returns a gorm session scoped to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.GormDB.WithContext(ctx)
}

// AutoMigrate creates or updates the tables for models.
func (d *DB) AutoMigrate(ctx context.Context, models ...interface{}) error {
	for _, model := range models {
		if err := d.GormDB.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	d.log.Info("auto-migration completed", logger.Fields("models", len(models)))
	return nil
}

// Driver returns the configured driver name.
func (d *DB) Driver() string {
	return d.cfg.Driver
}
