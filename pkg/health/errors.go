package health

import "errors"

var (
	// ErrCheckFailed is returned by Run when a readiness check fails.
	ErrCheckFailed = errors.New("health: dependency not ready")

	// ErrCheckTimeout is reported for a check still running at the deadline.
	ErrCheckTimeout = errors.New("health: dependency check timed out")
)
