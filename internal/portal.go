package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/health"
	"github.com/dmitrymomot/portal/pkg/logger"
	"github.com/dmitrymomot/portal/pkg/markup"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

const defaultMetricsPath = "/metrics"

// MediaResolver turns attachments into file URLs.
type MediaResolver interface {
	URL(ctx context.Context, it content.Item) (string, error)
}

// UserResolver returns the id of the user making r, 0 when anonymous.
type UserResolver func(r *http.Request) int64

// Portal holds the state shared by every request: content sources, the
// theme, virtual routes and observability. It is immutable after New and safe
// for concurrent use; per-request state lives in Scope.
type Portal struct {
	router       chi.Router
	provider     content.Provider
	resolver     *taxonomy.Resolver
	meta         content.MetaReader
	caps         content.CapabilityChecker
	routes       *Routes
	theme        *Theme
	markup       *markup.Renderer
	media        MediaResolver
	logger       *slog.Logger
	metrics      *Metrics
	gatherer     prometheus.Gatherer
	healthConfig *healthConfig
	user         UserResolver
	basePath     string
	filters      []TemplateFilter
	middlewares  []func(http.Handler) http.Handler
	staticRoutes []staticRoute
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

// New creates a portal serving content from provider with terms from store.
// When provider also reads custom fields or checks capabilities, as the
// bundled stores do, it is used for those too unless an option says otherwise.
//
// Example:
//
//	s := store.NewMemory()
//	p := portal.New(s, s,
//	    portal.WithTheme(theme),
//	    portal.WithBasePath("/blog"),
//	)
func New(provider content.Provider, store taxonomy.Store, opts ...Option) *Portal {
	p := &Portal{
		router:   chi.NewRouter(),
		provider: provider,
		resolver: taxonomy.NewResolver(store),
		logger:   logger.NewNope(),
		theme:    NewTheme(),
	}
	if m, ok := provider.(content.MetaReader); ok {
		p.meta = m
	}
	if c, ok := provider.(content.CapabilityChecker); ok {
		p.caps = c
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.markup == nil {
		p.markup = markup.New()
	}
	if p.routes == nil {
		p.routes = NewRoutes(p.theme)
	}

	p.setupRoutes()
	return p
}

// Router returns the underlying chi.Router.
func (p *Portal) Router() chi.Router {
	return p.router
}

// Resolver returns the term resolver shared by all requests.
func (p *Portal) Resolver() *taxonomy.Resolver {
	return p.resolver
}

// Routes returns the virtual route registry.
func (p *Portal) Routes() *Routes {
	return p.routes
}

// ServeHTTP implements http.Handler.
func (p *Portal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.router.ServeHTTP(w, r)
}

// setupRoutes configures the router with middleware and handlers.
func (p *Portal) setupRoutes() {
	for _, mw := range p.middlewares {
		p.router.Use(mw)
	}

	for _, sr := range p.staticRoutes {
		p.router.Mount(sr.pattern, sr.handler)
	}

	if p.healthConfig != nil {
		p.router.Get(p.healthConfig.livenessPath, health.LivenessHandler())
		p.router.Get(p.healthConfig.readinessPath, health.ReadinessHandler(p.healthConfig.checks, health.WithLogger(p.logger)))
	}

	if p.gatherer != nil {
		p.router.Method(http.MethodGet, defaultMetricsPath, promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{}))
	}

	site := p.router.With(p.Middleware)
	site.Get("/*", p.serve)
	site.Head("/*", p.serve)
}

// serve renders the theme page for the request's zone. The template filters,
// the virtual route first, are consulted only when the zone has no page or
// the request was not found. A not-found request answers 404 unless a filter
// supplied a template for it.
func (p *Portal) serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, err := ScopeFromContext(ctx)
	if err != nil {
		p.handleError(w, r, err)
		return
	}

	zone, err := s.Zones.Classify(ctx, "")
	if err != nil {
		p.handleError(w, r, err)
		return
	}

	var slug string
	if zone.Kind == KindPage {
		if res, err := s.Request.Resolve(ctx); err == nil {
			slug = res.Item.Name
		}
	}
	picked := p.theme.Pick(Templates(zone, slug)...)
	name := picked
	if picked == "" || zone.Kind == KindNotFound {
		name = s.TemplateFallback(picked)
	}

	status := http.StatusOK
	if zone.Kind == KindNotFound && name == picked {
		status = http.StatusNotFound
	}
	if name == "" {
		p.handleError(w, r, ErrTemplateNotFound)
		return
	}

	c, err := p.theme.Component(name, s)
	if err != nil {
		p.handleError(w, r, err)
		return
	}

	start := time.Now()
	templ.Handler(c,
		templ.WithStatus(status),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p.handleError(w, r, err)
			})
		}),
	).ServeHTTP(w, r)
	p.metrics.rendered(name, time.Since(start))
}

// handleError writes err as a plain status page.
func (p *Portal) handleError(w http.ResponseWriter, r *http.Request, err error) {
	herr := AsHTTPError(err)
	level := slog.LevelWarn
	if herr.StatusCode() >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	cause := err
	if herr.Err != nil {
		cause = herr.Err
	}
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.Int("status", herr.StatusCode()),
		slog.String("error", cause.Error()),
	}
	if c := context.Cause(r.Context()); c != nil && !errors.Is(c, context.Canceled) {
		attrs = append(attrs, slog.String("cause", c.Error()))
	}
	p.logger.Log(r.Context(), level, "request failed", attrs...)
	if errors.Is(err, context.Canceled) {
		return
	}
	http.Error(w, herr.StatusText(), herr.StatusCode())
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
//
// Example:
//
//	portal.WithReadinessCheck("db", db.Healthcheck(conn))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
