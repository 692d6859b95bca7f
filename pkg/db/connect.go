package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Open connects to the database described by cfg and returns a verified handle.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		pool, err := Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return stdlib.OpenDBFromPool(pool), nil
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.URL)
	default:
		return nil, errors.Join(ErrUnknownDriver, errors.New(cfg.Driver))
	}
}

// Connect opens a pgx pool, retrying with a linear backoff until the server
// answers a ping or the attempts run out.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrBadConfig, err)
	}
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = cfg.MaxOpenConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}

	var lastErr error
	for i := range max(cfg.RetryAttempts, 1) {
		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrUnreachable, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}
	return nil, errors.Join(ErrUnreachable, lastErr)
}

// OpenSQLite opens a SQLite database with foreign keys enabled. SQLite allows a
// single writer, so the pool is limited to one connection; this also keeps
// ":memory:" databases alive for the lifetime of the handle.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrBadConfig
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Join(ErrUnreachable, err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Join(ErrUnreachable, err)
	}
	return conn, nil
}

// Healthcheck returns a readiness probe that pings the database.
func Healthcheck(conn *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if conn == nil {
			return ErrHealthcheckFailed
		}
		if err := conn.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown returns a hook that closes the database handle.
func Shutdown(conn *sql.DB) func(context.Context) error {
	return func(context.Context) error {
		return conn.Close()
	}
}
