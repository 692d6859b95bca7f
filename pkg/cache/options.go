package cache

import "time"

// Option configures a cache.
type Option func(*options)

type options struct {
	prefix        string
	ttl           time.Duration
	sweepInterval time.Duration
	maxEntries    int
}

func defaultOptions() *options {
	return &options{
		ttl:           time.Hour,
		sweepInterval: time.Minute,
	}
}

// WithTTL sets the expiration used when Set is called with a zero TTL.
// A negative value disables expiration for such entries.
// Default: 1 hour.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		o.ttl = d
	}
}

// WithSweepInterval sets how often Memory removes expired entries.
// Zero disables the background sweep.
// Default: 1 minute.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweepInterval = d
	}
}

// WithMaxEntries bounds the number of Memory entries. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithPrefix namespaces Redis keys as "{prefix}:{key}".
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}
