package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/pkg/db"
	"github.com/dmitrymomot/portal/pkg/logger"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()

		_, err := db.Open(context.Background(), db.Config{Driver: "oracle"})
		require.ErrorIs(t, err, db.ErrUnknownDriver)
	})

	t.Run("invalid postgres url", func(t *testing.T) {
		t.Parallel()

		_, err := db.Open(context.Background(), db.Config{Driver: db.DriverPostgres, URL: "::not a url"})
		require.ErrorIs(t, err, db.ErrBadConfig)
	})

	t.Run("sqlite memory", func(t *testing.T) {
		t.Parallel()

		conn, err := db.Open(context.Background(), db.Config{Driver: db.DriverSQLite, URL: ":memory:"})
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, db.Healthcheck(conn)(context.Background()))
	})
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	migrations := fstest.MapFS{
		"00001_widgets.sql": {Data: []byte(`-- +goose Up
CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
-- +goose Down
DROP TABLE widgets;
`)},
	}

	conn := openMemory(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx, conn, db.DriverSQLite, migrations, "test_migrations", logger.NewNope()))
	// Second run is a no-op.
	require.NoError(t, db.Migrate(ctx, conn, db.DriverSQLite, migrations, "test_migrations", logger.NewNope()))

	_, err := conn.ExecContext(ctx, `INSERT INTO widgets (name) VALUES ('a')`)
	require.NoError(t, err)

	var version int64
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT MAX(version_id) FROM test_migrations`).Scan(&version))
	assert.Equal(t, int64(1), version)
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	conn := openMemory(t)
	ctx := context.Background()
	_, err := conn.ExecContext(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	require.NoError(t, db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('committed')`)
		return err
	}))

	boom := errors.New("boom")
	err = db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('rolled back')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.Panics(t, func() {
		_ = db.WithTx(ctx, conn, func(tx *sql.Tx) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO kv VALUES ('panicked')`)
			panic("boom")
		})
	})

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Equal(t, 1, n)
}
