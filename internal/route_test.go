package internal_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/internal"
)

type fileSet map[string]bool

func (f fileSet) Exists(path string) bool { return f[path] }

func TestRoutes_Match(t *testing.T) {
	t.Parallel()

	t.Run("gallery falls back to the second candidate", func(t *testing.T) {
		t.Parallel()
		r := internal.NewRoutes(fileSet{"/plugin/gallery.tpl": true})
		r.Register("gallery", "/theme/gallery.tpl", "/plugin/gallery.tpl")

		m, ok := r.Match("/base", "/base/gallery/summer/3")
		require.True(t, ok)
		assert.Equal(t, []string{"summer", "3"}, m.Remainder)
		assert.Equal(t, "/plugin/gallery.tpl", m.Template("404.html"))
	})

	t.Run("no candidate keeps the host template", func(t *testing.T) {
		t.Parallel()
		r := internal.NewRoutes(fileSet{})
		r.Register("gallery/", "/theme/gallery.tpl")

		m, ok := r.Match("", "/gallery")
		require.True(t, ok)
		assert.Equal(t, "gallery", m.Route.Prefix)
		assert.Equal(t, "404.html", m.Template("404.html"))
		assert.NotNil(t, m.Remainder)
		assert.Empty(t, m.Remainder)
	})

	t.Run("remainder edge cases", func(t *testing.T) {
		t.Parallel()
		r := internal.NewRoutes(fileSet{})
		r.Register("gallery", "g.tpl")

		tests := map[string][]string{
			"/blog/gallery":          {},
			"/blog/gallery/":         {},
			"/blog/gallery/a":        {"a"},
			"/blog/gallery/a/":       {"a", ""},
			"/blog/gallery/a/b/c/10": {"a", "b", "c", "10"},
		}
		for path, want := range tests {
			m, ok := r.Match("/blog/", path)
			require.True(t, ok, path)
			assert.Equal(t, want, m.Remainder, path)
		}
	})

	t.Run("non matching paths", func(t *testing.T) {
		t.Parallel()
		r := internal.NewRoutes(fileSet{})
		r.Register("gallery", "g.tpl")

		for _, path := range []string{"/", "/blog", "/blog/gall", "/gallery", "/blog/news/gallery"} {
			_, ok := r.Match("/blog", path)
			assert.False(t, ok, path)
		}
	})

	t.Run("longest prefix wins", func(t *testing.T) {
		t.Parallel()
		r := internal.NewRoutes(fileSet{})
		short := r.Register("shop", "shop.tpl")
		long := r.Register("shop/cart", "cart.tpl")

		m, ok := r.Match("", "/shop/cart/42")
		require.True(t, ok)
		assert.Same(t, long, m.Route)
		assert.Equal(t, []string{"42"}, m.Remainder)

		m, ok = r.Match("", "/shop/items/42")
		require.True(t, ok)
		assert.Same(t, short, m.Route)
		assert.Equal(t, []string{"items", "42"}, m.Remainder)
	})

	t.Run("earliest registration wins a tie", func(t *testing.T) {
		t.Parallel()
		r := internal.NewRoutes(fileSet{})
		first := r.Register("shop", "a.tpl")
		r.Register("shop/", "b.tpl")

		m, ok := r.Match("", "/shop/x")
		require.True(t, ok)
		assert.Same(t, first, m.Route)
	})
}

func TestRoutes_Load(t *testing.T) {
	t.Parallel()

	r := internal.NewRoutes(nil)
	err := r.Load(strings.NewReader(`
routes:
  - prefix: gallery/
    templates: [gallery.html]
  - prefix: shop
    templates: [shop.html, default.html]
`))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	m, ok := r.Match("", "/gallery/x")
	require.True(t, ok)
	assert.Equal(t, "gallery", m.Route.Prefix)

	require.ErrorIs(t, r.Load(strings.NewReader("routes: [")), internal.ErrInvalidRoutes)
	require.ErrorIs(t, r.Load(strings.NewReader("routes:\n  - prefix: x\n")), internal.ErrInvalidRoutes)
	require.NoError(t, r.Load(strings.NewReader("")))
}

func TestFileCheckers(t *testing.T) {
	t.Parallel()

	t.Run("fs", func(t *testing.T) {
		t.Parallel()
		c := internal.FSFileChecker{FS: fstest.MapFS{
			"theme/gallery.html": {Data: []byte("x")},
		}}
		assert.True(t, c.Exists("theme/gallery.html"))
		assert.True(t, c.Exists("/theme/gallery.html"))
		assert.False(t, c.Exists("theme"))
		assert.False(t, c.Exists("theme/missing.html"))
	})

	t.Run("os", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "gallery.html")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

		var c internal.OSFileChecker
		assert.True(t, c.Exists(path))
		assert.False(t, c.Exists(dir))
		assert.False(t, c.Exists(filepath.Join(dir, "missing.html")))
	})
}
