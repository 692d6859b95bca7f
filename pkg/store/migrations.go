package store

import (
	"embed"
	"io/fs"

	"github.com/dmitrymomot/portal/pkg/db"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrations returns the schema migrations for driver.
func Migrations(driver string) (fs.FS, error) {
	switch driver {
	case db.DriverPostgres:
		return fs.Sub(migrations, "migrations/postgres")
	case db.DriverSQLite, "":
		return fs.Sub(migrations, "migrations/sqlite")
	default:
		return nil, ErrUnknownDialect
	}
}
