package store_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/db"
	"github.com/dmitrymomot/portal/pkg/logger"
	"github.com/dmitrymomot/portal/pkg/store"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

type backend interface {
	content.Provider
	content.MetaReader
	content.CapabilityChecker
	taxonomy.Store
	Seed(ctx context.Context, f store.Fixture) error
}

const fixtureYAML = `
terms:
  - {id: 1, slug: news, name: News}
  - {id: 2, slug: local, name: Local, parent_id: 1}
  - {id: 3, slug: city, name: City, parent_id: 2}
  - {id: 4, slug: sports, name: Sports}
  - {id: 5, slug: featured, name: Featured, taxonomy: post_tag}
items:
  - {id: 10, title: Root News, date: 2024-01-01T10:00:00Z, terms: [1, 5], meta: {color: red}}
  - {id: 11, title: Local Story, date: 2024-01-02T10:00:00Z, terms: [2]}
  - {id: 12, title: City Hall, date: 2024-01-03T10:00:00Z, terms: [3]}
  - {id: 13, title: Match Report, date: 2024-01-04T10:00:00Z, terms: [4]}
  - {id: 14, title: Draft, status: draft, date: 2024-01-05T10:00:00Z, terms: [1]}
  - {id: 20, title: About, name: about, type: page, content: "# About us"}
  - {id: 30, title: Summer 100%, type: attachment, parent_id: 10, menu_order: 2, mime_type: image/jpeg}
  - {id: 31, title: Winter, type: attachment, parent_id: 10, menu_order: 1, mime_type: image/jpeg}
  - {id: 32, title: summer_cover, type: attachment, parent_id: 11, menu_order: 1}
capabilities:
  - {user_id: 1, capability: administrator}
`

func backends(t *testing.T) map[string]backend {
	t.Helper()

	ctx := context.Background()
	fixture, err := store.LoadFixture(strings.NewReader(fixtureYAML))
	require.NoError(t, err)

	mem := store.NewMemory()
	require.NoError(t, mem.Seed(ctx, fixture))

	conn, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sqlStore := store.NewSQL(conn, db.DriverSQLite)
	require.NoError(t, sqlStore.Migrate(ctx, "schema_migrations", logger.NewNope()))
	require.NoError(t, sqlStore.Seed(ctx, fixture))
	// Seeding twice must be idempotent.
	require.NoError(t, sqlStore.Seed(ctx, fixture))

	return map[string]backend{"memory": mem, "sqlite": sqlStore}
}

func ids(t *testing.T, cur content.Cursor) []int64 {
	t.Helper()

	var out []int64
	for cur.HasNext() {
		out = append(out, cur.Next().ID)
	}
	require.NoError(t, cur.Close())
	return out
}

func TestStore_Find(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			published := func() content.Query {
				var q content.Query
				q.Set(content.FieldType, content.TypePost)
				q.Set(content.FieldStatus, content.StatusPublish)
				return q
			}

			t.Run("newest first", func(t *testing.T) {
				cur, err := s.Find(ctx, published())
				require.NoError(t, err)
				assert.Equal(t, []int64{13, 12, 11, 10}, ids(t, cur))
			})

			t.Run("limit and offset", func(t *testing.T) {
				q := published()
				q.Limit, q.Offset = 2, 1
				cur, err := s.Find(ctx, q)
				require.NoError(t, err)
				assert.Equal(t, []int64{12, 11}, ids(t, cur))

				q.Limit = 0
				cur, err = s.Find(ctx, q)
				require.NoError(t, err)
				assert.Equal(t, []int64{12, 11, 10}, ids(t, cur))
			})

			t.Run("term disjunction", func(t *testing.T) {
				q := published()
				q.Terms = &content.TermFilter{Taxonomy: "category", IDs: []int64{2, 4}}
				cur, err := s.Find(ctx, q)
				require.NoError(t, err)
				assert.Equal(t, []int64{13, 11}, ids(t, cur))
			})

			t.Run("empty term set matches nothing", func(t *testing.T) {
				q := published()
				q.Terms = &content.TermFilter{Taxonomy: "category"}
				cur, err := s.Find(ctx, q)
				require.NoError(t, err)
				assert.Empty(t, ids(t, cur))
			})

			t.Run("attachments by menu order", func(t *testing.T) {
				var q content.Query
				q.Set(content.FieldType, content.TypeAttachment)
				q.Set(content.FieldParent, int64(10))
				q.Order = content.OrderMenu
				cur, err := s.Find(ctx, q)
				require.NoError(t, err)
				assert.Equal(t, []int64{31, 30}, ids(t, cur))
			})

			t.Run("title contains escapes wildcards", func(t *testing.T) {
				var q content.Query
				q.Set(content.FieldType, content.TypeAttachment)
				q.SetContains(content.FieldTitle, "SUMMER")
				cur, err := s.Find(ctx, q)
				require.NoError(t, err)
				assert.ElementsMatch(t, []int64{30, 32}, ids(t, cur))

				q.SetContains(content.FieldTitle, "100%")
				cur, err = s.Find(ctx, q)
				require.NoError(t, err)
				assert.Equal(t, []int64{30}, ids(t, cur))

				q.SetContains(content.FieldTitle, "r_c")
				cur, err = s.Find(ctx, q)
				require.NoError(t, err)
				assert.Equal(t, []int64{32}, ids(t, cur))
			})

			t.Run("page by name", func(t *testing.T) {
				var q content.Query
				q.Set(content.FieldName, "about")
				q.Set(content.FieldType, content.TypePage)
				cur, err := s.Find(ctx, q)
				require.NoError(t, err)
				assert.Equal(t, []int64{20}, ids(t, cur))
			})
		})
	}
}

func TestStore_Get(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			it, err := s.Get(ctx, 10)
			require.NoError(t, err)
			assert.Equal(t, "root-news", it.Name)
			assert.Equal(t, content.StatusPublish, it.Status)
			assert.True(t, it.Date.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))

			att, err := s.Get(ctx, 30)
			require.NoError(t, err)
			assert.Equal(t, content.StatusInherit, att.Status)

			_, err = s.Get(ctx, 999)
			require.ErrorIs(t, err, content.ErrNotFound)
		})
	}
}

func TestStore_Terms(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			roots, err := s.Terms(ctx, taxonomy.ByParent("category", 0))
			require.NoError(t, err)
			require.Len(t, roots, 2)
			assert.Equal(t, "news", roots[0].Slug)
			assert.Equal(t, "sports", roots[1].Slug)

			bySlug, err := s.Terms(ctx, taxonomy.BySlug("post_tag", "featured"))
			require.NoError(t, err)
			require.Len(t, bySlug, 1)
			assert.Equal(t, int64(5), bySlug[0].ID)

			_, err = s.Terms(ctx, taxonomy.Lookup{Taxonomy: "category"})
			require.ErrorIs(t, err, taxonomy.ErrInvalidLookup)

			cats, err := s.ItemTerms(ctx, 10, "category")
			require.NoError(t, err)
			require.Len(t, cats, 1)
			assert.Equal(t, "news", cats[0].Slug)

			tags, err := s.ItemTerms(ctx, 10, "post_tag")
			require.NoError(t, err)
			require.Len(t, tags, 1)
			assert.Equal(t, "featured", tags[0].Slug)
		})
	}
}

// A category filter expanded through the resolver matches an item exactly when
// the item is attached to the term or one of its descendants.
func TestStore_CategoryPredicate(t *testing.T) {
	t.Parallel()

	attached := map[int64]string{10: "news", 11: "local", 12: "city", 13: "sports"}
	under := map[string][]string{
		"news":   {"news", "local", "city"},
		"local":  {"local", "city"},
		"city":   {"city"},
		"sports": {"sports"},
	}

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			r := taxonomy.NewResolver(s)

			for category, subtree := range under {
				terms, err := r.Resolve(ctx, category)
				require.NoError(t, err)

				var q content.Query
				q.Set(content.FieldType, content.TypePost)
				q.Set(content.FieldStatus, content.StatusPublish)
				q.Terms = &content.TermFilter{Taxonomy: "category", IDs: taxonomy.IDs(terms)}

				cur, err := s.Find(ctx, q)
				require.NoError(t, err)
				got := ids(t, cur)

				for id, slug := range attached {
					want := false
					for _, sub := range subtree {
						if sub == slug {
							want = true
						}
					}
					assert.Equal(t, want, contains(got, id), "category %s item %d", category, id)
				}
			}
		})
	}
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestStore_MetaAndCapabilities(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			v, err := s.Meta(ctx, 10, "color")
			require.NoError(t, err)
			assert.Equal(t, "red", v)

			v, err = s.Meta(ctx, 10, "missing")
			require.NoError(t, err)
			assert.Empty(t, v)

			ok, err := s.HasCapability(ctx, 1, "administrator")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.HasCapability(ctx, 2, "administrator")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestLoadFixture_Validation(t *testing.T) {
	t.Parallel()

	_, err := store.LoadFixture(strings.NewReader("terms:\n  - {slug: x}\n"))
	require.ErrorIs(t, err, store.ErrInvalidFixture)

	_, err = store.LoadFixture(strings.NewReader("items:\n  - {id: 1, terms: [9]}\n"))
	require.ErrorIs(t, err, store.ErrInvalidFixture)

	_, err = store.LoadFixture(strings.NewReader("items: [\n"))
	require.ErrorIs(t, err, store.ErrInvalidFixture)

	f, err := store.LoadFixture(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Items)
}
