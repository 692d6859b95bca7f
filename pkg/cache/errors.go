package cache

import "errors"

var (
	// ErrNotFound is a cache miss: the key was never set or has expired.
	ErrNotFound = errors.New("cache: miss")

	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("cache: closed")

	// ErrMarshal wraps codec errors on Set.
	ErrMarshal = errors.New("cache: encoding value")

	// ErrUnmarshal wraps codec errors on Get.
	ErrUnmarshal = errors.New("cache: decoding stored value")
)
