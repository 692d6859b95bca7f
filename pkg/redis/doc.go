// Package redis opens the go-redis client used by the shared term cache.
//
//	client, err := redis.Open(ctx, redis.Config{URL: os.Getenv("REDIS_URL")})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Open pings the server and retries with a linear backoff, so a portal started
// together with its Redis container waits for it instead of failing at once.
// [Healthcheck] plugs into pkg/health readiness checks.
package redis
