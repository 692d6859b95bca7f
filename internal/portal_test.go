package internal_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/internal"
)

var themeFS = fstest.MapFS{
	"partials/header.html": {Data: []byte(`{{define "header"}}{{.Zone.Kind}}:{{end}}`)},
	"index.html":           {Data: []byte(`{{template "header" .}}index{{if isAdmin}} admin{{end}}`)},
	"home.html": {Data: []byte(`{{template "header" .}}` +
		`{{range loop "posts" (filter "category" "news") 0}}` +
		`[{{.ID}}:{{day}}{{range attachments "photos" (filter) 0}}({{.Title}}){{end}}|{{(item).ID}}]` +
		`{{end}}`)},
	"page.html": {Data: []byte(`{{page "about"}}{{page "blank" "Nothing at %s"}}`)},
	"single.html": {Data: []byte(`{{range .Zone.Terms}}{{.Slug}} {{end}}` +
		`{{range loop "main" (filter "ID" 10) 1}}{{if inCategory "news"}}in-news {{end}}{{meta "color" "(" ")"}}{{end}}`)},
	"404.html":     {Data: []byte(`missing`)},
	"gallery.html": {Data: []byte(`gallery{{range purl}}[{{.}}]{{end}}`)},
	"broken.html":  {Data: []byte(`{{range attachments "orphans" (filter) 0}}{{.ID}}{{end}}`)},
	"brk.html": {Data: []byte(`{{range loop "all" (filter) 0}}{{.ID}}{{break}}{{end}}|` +
		`{{range loop "all" (filter) 0}}{{.ID}} {{end}}`)},
	"nested.html": {Data: []byte(`{{range loop "outer" (filter "ID" 10) 0}}` +
		`{{range loop "inner" (filter) 0}}{{.ID}}{{break}}{{end}}|{{(item).ID}}{{end}}|{{(item).ID}}`)},
	"lazy.html":       {Data: []byte(`{{$posts := loop "posts" (filter) 0}}{{(item).ID}}`)},
	"assets/site.css": {Data: []byte(`body{}`)},
}

func newPortal(t *testing.T, opts ...internal.Option) *internal.Portal {
	t.Helper()

	s := newSite(t)
	theme, err := internal.LoadTheme(themeFS)
	require.NoError(t, err)

	routes := internal.NewRoutes(theme)
	routes.Register("gallery", "missing.html", "gallery.html")
	routes.Register("broken", "broken.html")
	routes.Register("brk", "brk.html")

	opts = append([]internal.Option{
		internal.WithTheme(theme),
		internal.WithRoutes(routes),
	}, opts...)
	return internal.New(s, s, opts...)
}

func get(t *testing.T, h http.Handler, target string, header ...string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestPortal_Serve(t *testing.T) {
	t.Parallel()

	p := newPortal(t, internal.WithUserResolver(
		internal.NewExtractor(internal.FromHeader("X-User-ID")).UserResolver(),
	))

	t.Run("home runs nested loops", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, p, "/")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "home:[12:03.01.24|12][11:02.01.24|11][10:01.01.24(Winter)(Summer)|10]", body)
	})

	t.Run("page content", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, p, "/?page_id=20")
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "<h1>About us</h1>")
		assert.Contains(t, body, "Nothing at blank")
	})

	t.Run("single post", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, p, "/?p=10")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "news in-news (red)", body)
	})

	t.Run("fallback to index", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, p, "/?author=7")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "author:index", body)

		_, body = get(t, p, "/?author=7", "X-User-ID", "1")
		assert.Equal(t, "author:index admin", body)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, p, "/nowhere")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "missing", body)
	})

	t.Run("virtual route claims the path", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, p, "/gallery/summer/3")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "gallery[summer][3]", body)
	})

	t.Run("route yields to a resolved request", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, p, "/gallery/x?p=10")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "news in-news (red)", body)
	})

	t.Run("break restarts the loop", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, p, "/brk")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "13|13 12 11 10 ", body)
	})

	t.Run("loop error fails the render", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, p, "/broken")
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.NotContains(t, body, "orphans")
	})
}

func TestPortal_Components(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	theme := internal.NewTheme()
	theme.Register("search.html", func(sc *internal.Scope) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			z, err := sc.Zones.Classify(ctx, "")
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, "search:"+z.ID+":"+z.Terms[0].Slug)
			return err
		})
	})
	p := internal.New(s, s, internal.WithTheme(theme))

	code, body := get(t, p, "/?s=News")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "search:News:news", body)

	code, _ = get(t, p, "/")
	assert.Equal(t, http.StatusNotFound, code, "no page for home")
}

func TestPortal_Endpoints(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	p := newPortal(t,
		internal.WithMetrics(reg),
		internal.WithHealthChecks(internal.WithReadinessCheck("store", func(context.Context) error { return nil })),
		internal.WithStaticFiles("/assets/", themeFS, "assets"),
		internal.WithBasePath("/blog"),
	)

	code, _ := get(t, p, "/health/live")
	assert.Equal(t, http.StatusOK, code)
	code, _ = get(t, p, "/health/ready")
	assert.Equal(t, http.StatusOK, code)

	code, body := get(t, p, "/assets/site.css")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "body{}", body)

	code, _ = get(t, p, "/blog/")
	assert.Equal(t, http.StatusOK, code)
	code, _ = get(t, p, "/blog/gallery/x")
	assert.Equal(t, http.StatusOK, code)

	_, body = get(t, p, "/metrics")
	for _, name := range []string{
		"portal_zone_classifications_total",
		"portal_route_matches_total",
		"portal_loops_started_total",
		"portal_render_duration_seconds",
	} {
		assert.True(t, strings.Contains(body, name), name)
	}
}

func TestTheme_LoopsRestoreAmbient(t *testing.T) {
	t.Parallel()

	theme, err := internal.LoadTheme(themeFS)
	require.NoError(t, err)
	p := newPortal(t, internal.WithTheme(theme))

	render := func(t *testing.T, name string) (*internal.Scope, string) {
		t.Helper()
		s := p.NewScope(internal.NewHTTPRequest(httptest.NewRequest(http.MethodGet, "/", nil), "", newSite(t)), 0)
		c, err := theme.Component(name, s)
		require.NoError(t, err)
		var out strings.Builder
		require.NoError(t, c.Render(context.Background(), &out))
		return s, out.String()
	}

	t.Run("break inside a nested loop", func(t *testing.T) {
		t.Parallel()
		s, body := render(t, "nested.html")
		assert.Equal(t, "13|10|0", body)
		assert.Zero(t, s.Ambient.Depth())
		assert.Nil(t, s.Ambient.Current().Item)
		assert.Equal(t, internal.LoopIdle, s.Loops.State("inner"))
		assert.Equal(t, internal.LoopExhausted, s.Loops.State("outer"))
	})

	t.Run("loop without range opens nothing", func(t *testing.T) {
		t.Parallel()
		s, body := render(t, "lazy.html")
		assert.Equal(t, "0", body)
		assert.Zero(t, s.Ambient.Depth())
		assert.Equal(t, internal.LoopIdle, s.Loops.State("posts"))
	})
}

func TestScopeFromContext(t *testing.T) {
	t.Parallel()

	_, err := internal.ScopeFromContext(context.Background())
	require.ErrorIs(t, err, internal.ErrNoScope)

	p := newPortal(t)
	var got *internal.Scope
	h := p.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, err = internal.ScopeFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/gallery/a/b", nil))

	require.NoError(t, err)
	m, ok := got.Route()
	require.True(t, ok)
	assert.Equal(t, "gallery", m.Route.Prefix)
	assert.Equal(t, []string{"a", "b"}, got.Remainder())
	assert.Equal(t, "gallery.html", got.TemplateFallback("index.html"))
	assert.Zero(t, got.UserID())
}

func TestScope_TemplateFallback(t *testing.T) {
	t.Parallel()

	upper := func(s string) string { return strings.ToUpper(s) }
	p := newPortal(t, internal.WithTemplateFilter(upper))
	s := p.NewScope(internal.NewHTTPRequest(httptest.NewRequest(http.MethodGet, "/gallery", nil), "", newSite(t)), 1)

	assert.Equal(t, "GALLERY.HTML", s.TemplateFallback("index.html"), "route first, then filters")

	admin, err := s.IsAdmin(context.Background())
	require.NoError(t, err)
	assert.True(t, admin)

	plain := p.NewScope(internal.NewHTTPRequest(httptest.NewRequest(http.MethodGet, "/", nil), "", newSite(t)), 0)
	assert.Equal(t, "X", plain.TemplateFallback("x"))
	admin, err = plain.IsAdmin(context.Background())
	require.NoError(t, err)
	assert.False(t, admin)
}
