package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/query"
)

// driverName maps a configured dialect to the registered database/sql driver.
func driverName(d query.Dialect) (string, error) {
	switch d {
	case query.Postgres:
		return "pgx", nil
	case query.SQLite:
		return "sqlite", nil
	}
	return "", errors.Join(ErrUnsupportedDriver, errors.New(d.String()))
}

// Connect opens a connection pool and pings it, retrying with a linearly
// growing delay so the service survives a database that starts after it.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	dialect, err := query.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, errors.Join(ErrUnsupportedDriver, err)
	}
	driver, err := driverName(dialect)
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
			case <-time.After(time.Duration(i) * cfg.RetryInterval):
			}
		}

		conn, err := sql.Open(driver, cfg.DSN)
		if err != nil {
			lastErr = err
			continue
		}
		configurePool(conn, dialect, cfg)

		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			lastErr = err
			continue
		}
		return conn, nil
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

func configurePool(conn *sql.DB, dialect query.Dialect, cfg Config) {
	if dialect == query.SQLite {
		// one writer; concurrent writers would hit SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}

// Query wraps conn in a query.DB matching cfg.
func Query(conn *sql.DB, cfg Config, log *slog.Logger) (*query.DB, error) {
	dialect, err := query.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, errors.Join(ErrUnsupportedDriver, err)
	}
	if log == nil {
		log = logger.NewNope()
	}
	opts := []query.Option{
		query.WithDialect(dialect),
		query.WithLogger(log),
	}
	if cfg.QueryTimeout > 0 {
		opts = append(opts, query.WithTimeout(cfg.QueryTimeout))
	}
	return query.New(conn, opts...), nil
}

// Healthcheck returns a readiness probe.
func Healthcheck(conn *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := conn.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown returns a shutdown hook that closes the pool.
func Shutdown(conn *sql.DB) func(context.Context) error {
	return func(context.Context) error {
		return conn.Close()
	}
}
