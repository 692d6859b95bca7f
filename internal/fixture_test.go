package internal_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/internal"
	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/store"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

const siteYAML = `
terms:
  - {id: 1, slug: news, name: News}
  - {id: 2, slug: local, name: Local, parent_id: 1}
  - {id: 3, slug: city, name: City, parent_id: 2}
  - {id: 4, slug: sports, name: Sports}
  - {id: 5, slug: about, name: About}
  - {id: 6, slug: featured, name: Featured, taxonomy: post_tag}
items:
  - {id: 10, title: Root News, date: 2024-01-01T10:00:00Z, author_id: 7, terms: [1, 6], meta: {color: red}}
  - {id: 11, title: Local Story, date: 2024-01-02T10:00:00Z, terms: [2]}
  - {id: 12, title: City Hall, date: 2024-01-03T10:00:00Z, terms: [3]}
  - {id: 13, title: Match Report, date: 2024-01-04T10:00:00Z, terms: [4]}
  - {id: 14, title: Draft, status: draft, date: 2024-01-05T10:00:00Z, terms: [1]}
  - {id: 20, title: About, name: about, type: page, content: "# About us"}
  - {id: 21, title: Blank, name: blank, type: page}
  - {id: 30, title: Summer, type: attachment, parent_id: 10, menu_order: 2}
  - {id: 31, title: Winter, type: attachment, parent_id: 10, menu_order: 1}
capabilities:
  - {user_id: 1, capability: administrator}
`

func newSite(t *testing.T) *store.Memory {
	t.Helper()

	f, err := store.LoadFixture(strings.NewReader(siteYAML))
	require.NoError(t, err)
	s := store.NewMemory()
	require.NoError(t, s.Seed(context.Background(), f))
	return s
}

func newLoops(t *testing.T, p content.Provider, s taxonomy.Store) *internal.Loops {
	t.Helper()

	opts := []internal.LoopsOption{}
	if m, ok := p.(content.MetaReader); ok {
		opts = append(opts, internal.WithLoopMeta(m))
	}
	return internal.NewLoops(p, taxonomy.NewResolver(s), internal.NewCursorContext(), opts...)
}

var errProvider = errors.New("provider down")

// countingProvider counts queries and can be switched to fail.
type countingProvider struct {
	content.Provider
	calls atomic.Int32
	fail  atomic.Bool
}

func (p *countingProvider) Find(ctx context.Context, q content.Query) (content.Cursor, error) {
	p.calls.Add(1)
	if p.fail.Load() {
		return nil, errProvider
	}
	return p.Provider.Find(ctx, q)
}

func itemIDs(items []content.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
