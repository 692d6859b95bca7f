package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a generic key-value cache with per-entry TTL.
type Cache[V any] interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (V, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error

	// Close releases background resources.
	Close() error
}

// Codec encodes values for byte-oriented backends.
type Codec[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSONCodec encodes values with encoding/json.
type JSONCodec[V any] struct{}

// Marshal encodes v as JSON.
func (JSONCodec[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

// Unmarshal decodes JSON data.
func (JSONCodec[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

// Loader computes missing cache entries once per key, even under concurrent misses.
type Loader[V any] struct {
	cache Cache[V]
	group singleflight.Group
}

// NewLoader returns a loader backed by c.
func NewLoader[V any](c Cache[V]) *Loader[V] {
	return &Loader[V]{cache: c}
}

type loaded[V any] struct {
	val V
}

// GetOrSet returns the cached value for key, or calls fn and caches its result.
// Errors from fn are returned as is and nothing is cached. Failing to store the
// computed value is ignored.
func (l *Loader[V]) GetOrSet(ctx context.Context, key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := l.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	res, err, _ := l.group.Do(key, func() (any, error) {
		v, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		_ = l.cache.Set(ctx, key, v, ttl)
		return loaded[V]{val: v}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(loaded[V]).val, nil
}
