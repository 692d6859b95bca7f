//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/pkg/cache"
	"github.com/dmitrymomot/portal/pkg/redis"
)

func newRedisClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	client, err := redis.Open(context.Background(), redis.Config{URL: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedis(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	c := cache.NewRedis[[]string](client, nil, cache.WithPrefix("portal-test"), cache.WithTTL(time.Minute))
	t.Cleanup(func() { _ = c.Clear(ctx) })

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", []string{"news", "local"}, 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"news", "local"}, v)

	n, err := client.Exists(ctx, "portal-test:k").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, c.Set(ctx, "a", []string{"a"}, 0))
	require.NoError(t, c.Set(ctx, "b", []string{"b"}, 0))
	require.NoError(t, c.Clear(ctx))
	_, err = c.Get(ctx, "a")
	require.ErrorIs(t, err, cache.ErrNotFound)
}
