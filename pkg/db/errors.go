package db

import "errors"

var (
	// ErrUnknownDriver is returned for drivers other than postgres and sqlite.
	ErrUnknownDriver = errors.New("db: unknown driver")
	// ErrBadConfig wraps DSN parse errors.
	ErrBadConfig = errors.New("db: malformed DSN")
	// ErrUnreachable is returned when the store cannot be opened or pinged
	// within the retry budget.
	ErrUnreachable = errors.New("db: store unreachable")
	// ErrHealthcheckFailed is reported by the readiness check.
	ErrHealthcheckFailed = errors.New("db: ping failed")
	// ErrMigrationSetup is returned when the migrator cannot be built for the driver.
	ErrMigrationSetup = errors.New("db: setting up schema migrations")
	// ErrMigrate is returned when a schema migration fails to apply.
	ErrMigrate = errors.New("db: applying schema migrations")
)
