package taxonomy

import (
	"context"
	"strconv"
	"time"

	"github.com/dmitrymomot/portal/pkg/cache"
)

// CachedStore decorates a Store with a shared term cache. Use it when the term
// tree changes rarely compared to how often pages resolve categories.
type CachedStore struct {
	next   Store
	cache  cache.Cache[[]Term]
	loader *cache.Loader[[]Term]
	ttl    time.Duration
}

// NewCachedStore wraps next. A zero ttl uses the cache's default expiration.
func NewCachedStore(next Store, c cache.Cache[[]Term], ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:   next,
		cache:  c,
		loader: cache.NewLoader(c),
		ttl:    ttl,
	}
}

// Terms returns cached lookup results, querying the wrapped store on a miss.
func (s *CachedStore) Terms(ctx context.Context, l Lookup) ([]Term, error) {
	return s.loader.GetOrSet(ctx, "terms:"+l.Key(), func(ctx context.Context) ([]Term, time.Duration, error) {
		terms, err := s.next.Terms(ctx, l)
		return terms, s.ttl, err
	})
}

// ItemTerms returns the cached terms of an item.
func (s *CachedStore) ItemTerms(ctx context.Context, itemID int64, taxonomy string) ([]Term, error) {
	key := "item:" + strconv.FormatInt(itemID, 10) + ":" + taxonomy
	return s.loader.GetOrSet(ctx, key, func(ctx context.Context) ([]Term, time.Duration, error) {
		terms, err := s.next.ItemTerms(ctx, itemID, taxonomy)
		return terms, s.ttl, err
	})
}

// Invalidate drops every cached lookup.
func (s *CachedStore) Invalidate(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

var _ Store = (*CachedStore)(nil)
