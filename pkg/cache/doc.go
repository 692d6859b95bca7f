// Package cache provides a small generic key-value cache used to share term
// lookups across requests.
//
// [Memory] keeps entries in process with TTL expiration and an optional entry
// limit (least recently used entries are dropped first). [Redis] stores JSON
// encoded entries under a key prefix so several portals can share one server.
//
//	terms := cache.NewMemory[[]taxonomy.Term](cache.WithTTL(10 * time.Minute))
//	defer terms.Close()
//
// [Loader] adds stampede protection on top of any [Cache]: concurrent misses
// for the same key run the load function once.
//
//	l := cache.NewLoader(terms)
//	v, err := l.GetOrSet(ctx, key, func(ctx context.Context) ([]taxonomy.Term, time.Duration, error) {
//	    t, err := store.Terms(ctx, lookup)
//	    return t, 0, err
//	})
//
// TTL passed to Set: positive expires after the duration, zero uses the cache
// default, negative never expires.
package cache
