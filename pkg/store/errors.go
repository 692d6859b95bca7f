package store

import "errors"

var (
	ErrQueryFailed    = errors.New("store: query failed")
	ErrSeedFailed     = errors.New("store: seed failed")
	ErrInvalidFixture = errors.New("store: invalid fixture")
	ErrUnknownDialect = errors.New("store: unknown dialect")
)
