package db

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// Migrate applies every pending migration found at the root of migrations.
// The version table is named table; an empty name selects goose's default.
func Migrate(ctx context.Context, conn *sql.DB, driver string, migrations fs.FS, table string, log *slog.Logger) error {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return errors.Join(ErrMigrationSetup, err)
	}
	if table == "" {
		table = goose.DefaultTablename
	}

	store, err := database.NewStore(dialect, table)
	if err != nil {
		return errors.Join(ErrMigrationSetup, err)
	}
	provider, err := goose.NewProvider(database.DialectCustom, conn, migrations, goose.WithStore(store))
	if err != nil {
		return errors.Join(ErrMigrationSetup, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrMigrate, err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("path", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}
	return nil
}

func gooseDialect(driver string) (database.Dialect, error) {
	switch driver {
	case DriverPostgres:
		return database.DialectPostgres, nil
	case DriverSQLite, "":
		return database.DialectSQLite3, nil
	default:
		return "", errors.Join(ErrUnknownDriver, errors.New(driver))
	}
}
