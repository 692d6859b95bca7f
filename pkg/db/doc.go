// Package db opens the SQL database behind the portal content store and
// applies its migrations.
//
// Two drivers are supported. Postgres connections go through a pgx pool
// ([github.com/jackc/pgx/v5/pgxpool]) bridged to database/sql, so the same
// store code runs on both backends. SQLite uses the pure Go driver
// [modernc.org/sqlite] and is the default for local development and tests.
//
//	db, err := db.Open(ctx, db.Config{Driver: db.DriverSQLite, URL: "file:portal.db"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	err = db.Migrate(ctx, conn, db.DriverSQLite, migrations, "schema_migrations", logger)
//
// Configuration is read from the environment by the caller (see [Config]):
//
//	DATABASE_DRIVER             - "postgres" or "sqlite" (default: sqlite)
//	DATABASE_CONN_URL           - connection URL or SQLite file DSN
//	DATABASE_MAX_OPEN_CONNS     - pool size (Postgres only, default: 10)
//	DATABASE_MIN_CONNS          - idle connections kept open (Postgres only, default: 2)
//	DATABASE_MAX_CONN_LIFETIME  - maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - connection attempts at startup (default: 3)
//	DATABASE_RETRY_INTERVAL     - base backoff between attempts (default: 2s)
//	DATABASE_MIGRATIONS_TABLE   - goose version table (default: schema_migrations)
//
// Errors are wrapped with [errors.Join] so callers can test for the sentinels
// in errors.go with [errors.Is].
package db
