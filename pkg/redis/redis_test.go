package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/pkg/redis"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty URL", func(t *testing.T) {
		t.Parallel()

		client, err := redis.Open(ctx, redis.Config{})
		require.ErrorIs(t, err, redis.ErrNoURL)
		require.Nil(t, client)
	})

	for _, url := range []string{
		"http://localhost:6379",
		"localhost:6379",
		"postgres://localhost:5432",
	} {
		t.Run("rejects "+url, func(t *testing.T) {
			t.Parallel()

			client, err := redis.Open(ctx, redis.Config{URL: url})
			require.ErrorIs(t, err, redis.ErrBadURL)
			require.Nil(t, client)
		})
	}
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := redis.Healthcheck(nil)(context.Background())
	require.ErrorIs(t, err, redis.ErrHealthcheckFailed)
}
