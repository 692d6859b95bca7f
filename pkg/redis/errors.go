package redis

import "errors"

var (
	// ErrNoURL is returned by Open when Config.URL is empty.
	ErrNoURL = errors.New("redis: REDIS_URL is not set")
	// ErrBadURL wraps URL parse errors.
	ErrBadURL = errors.New("redis: malformed REDIS_URL")
	// ErrUnreachable is returned when every connection attempt failed.
	ErrUnreachable = errors.New("redis: server unreachable")
	// ErrHealthcheckFailed is reported by the readiness check.
	ErrHealthcheckFailed = errors.New("redis: ping failed")
)
