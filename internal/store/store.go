// Package store provides the users.Store implementations: a bun-backed SQL store for
// postgres and sqlite, and an in-memory store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/isometry/clerk-user-sync/internal/helpers"
	"github.com/isometry/clerk-user-sync/internal/users"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned by lookups of unknown users.
var ErrNotFound = errors.New("store: user not found")

// Store is a closable users.Store that can also read users back.
type Store interface {
	users.Store
	io.Closer
	GetUser(ctx context.Context, id string) (*users.User, error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	migrate bool
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMigrate creates the schema when the store is opened.
func WithMigrate(migrate bool) Option {
	return func(o *options) {
		o.migrate = migrate
	}
}

func applyOpts(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = helpers.NewNoopLogger()
	}
	return o
}

// Open returns the store selected by driver.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	o := applyOpts(opts...)

	var db *bun.DB
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, errors.Wrap(err, "store: failed to open sqlite database")
		}
		// in-memory databases live only as long as their single connection
		sqlDB.SetMaxOpenConns(1)
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	case DriverPostgres:
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, errors.Wrap(err, "store: failed to open postgres database")
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	default:
		return nil, fmt.Errorf("store: unsupported driver: %s", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "store: failed to reach %s database", driver)
	}

	s, err := NewSQLStore(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if o.migrate {
		if err = s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	o.logger.Debug("store opened", slog.String("driver", driver))
	return s, nil
}
