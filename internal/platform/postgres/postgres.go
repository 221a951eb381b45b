// Package postgres opens the GORM connection the workspace snapshot store runs on.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultPingTimeout = 5 * time.Second

type options struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	pingTimeout     time.Duration
	migrate         func(*gorm.DB) error
	logLevel        gormlogger.LogLevel
}

// Option tunes the connection pool and startup steps.
type Option func(*options)

// WithPool caps open and idle connections. Zero leaves the database/sql default.
func WithPool(maxOpen, maxIdle int) Option {
	return func(o *options) {
		o.maxOpenConns = maxOpen
		o.maxIdleConns = maxIdle
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(o *options) {
		o.connMaxLifetime = d
	}
}

func WithPingTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pingTimeout = d
		}
	}
}

// WithMigrations runs migrate once the connection is verified. A failure closes the connection.
func WithMigrations(migrate func(*gorm.DB) error) Option {
	return func(o *options) {
		o.migrate = migrate
	}
}

// WithSQLLogging makes GORM log every statement. It stays silent otherwise.
func WithSQLLogging() Option {
	return func(o *options) {
		o.logLevel = gormlogger.Info
	}
}

// Connect opens the database, pings it and applies the configured migrations. The returned
// close func releases the pool.
func Connect(ctx context.Context, dsn string, opts ...Option) (*gorm.DB, func() error, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, nil, errors.New("postgres DSN is empty")
	}
	o := options{pingTimeout: defaultPingTimeout, logLevel: gormlogger.Silent}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(o.logLevel),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("unwrap postgres pool: %w", err)
	}
	if o.maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.maxOpenConns)
	}
	if o.maxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.maxIdleConns)
	}
	if o.connMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(o.connMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	if o.migrate != nil {
		if err := o.migrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("migrate postgres schema: %w", err)
		}
	}
	return db, sqlDB.Close, nil
}

// ConnectFromEnv connects using POSTGRES_DSN. When the variable is unset or the connection
// fails it logs why and returns a nil DB, so callers fall back to the in-memory store.
func ConnectFromEnv(ctx context.Context, logger *slog.Logger, opts ...Option) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if dsn == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory workspace store")
		return nil, func() {}
	}
	db, closeDB, err := Connect(ctx, dsn, opts...)
	if err != nil {
		logger.Warn("postgres unavailable, falling back to in-memory workspace store", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres connection established")
	return db, func() { _ = closeDB() }
}
