package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/logger"
	"github.com/dmitrymomot/portal/pkg/markup"
)

// Option configures the portal.
type Option func(*Portal)

// WithBasePath sets the path the site is served under, for example "/blog".
// Virtual route prefixes are relative to it.
func WithBasePath(path string) Option {
	return func(p *Portal) {
		p.basePath = strings.TrimRight(path, "/")
	}
}

// WithTheme sets the theme rendering requests.
func WithTheme(t *Theme) Option {
	return func(p *Portal) {
		if t != nil {
			p.theme = t
		}
	}
}

// WithRoutes sets the virtual route registry. Without it the portal uses an
// empty registry resolving templates against the theme.
func WithRoutes(r *Routes) Option {
	return func(p *Portal) {
		p.routes = r
	}
}

// WithTemplateFilter appends a filter consulted after the virtual route when
// the theme has no page for a request or the request was not found.
func WithTemplateFilter(f ...TemplateFilter) Option {
	return func(p *Portal) {
		p.filters = append(p.filters, f...)
	}
}

// WithMetaReader sets the custom field source used by the meta template func.
func WithMetaReader(r content.MetaReader) Option {
	return func(p *Portal) {
		p.meta = r
	}
}

// WithCapabilities sets the capability checker used by isAdmin.
func WithCapabilities(c content.CapabilityChecker) Option {
	return func(p *Portal) {
		p.caps = c
	}
}

// WithUserResolver sets how the requesting user is identified. Without it
// every request is anonymous.
//
// Example:
//
//	portal.WithUserResolver(func(r *http.Request) int64 {
//	    return session.UserID(r.Context())
//	})
func WithUserResolver(fn UserResolver) Option {
	return func(p *Portal) {
		p.user = fn
	}
}

// WithMarkup sets the markdown renderer for page content.
func WithMarkup(r *markup.Renderer) Option {
	return func(p *Portal) {
		p.markup = r
	}
}

// WithMedia sets the resolver of attachment file URLs.
func WithMedia(m MediaResolver) Option {
	return func(p *Portal) {
		p.media = m
	}
}

// WithMetrics registers the portal collectors with reg and serves it on /metrics.
//
// Example:
//
//	portal.WithMetrics(prometheus.NewRegistry())
func WithMetrics(reg *prometheus.Registry) Option {
	return func(p *Portal) {
		if reg == nil {
			return
		}
		p.metrics = NewMetrics(reg)
		p.gatherer = reg
	}
}

// WithMiddleware adds global middleware to the portal.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(p *Portal) {
		p.middlewares = append(p.middlewares, mw...)
	}
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled. Files are served with default cache headers.
//
// Example:
//
//	portal.New(s, s,
//	    portal.WithStaticFiles("/assets/", os.DirFS("theme"), "assets"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(p *Portal) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}

		fileServer := http.FileServerFS(subFS)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Block directory listings
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")

			fileServer.ServeHTTP(w, r)
		})

		p.staticRoutes = append(p.staticRoutes, staticRoute{http.StripPrefix(strings.TrimSuffix(pattern, "/"), handler), pattern})
	}
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	portal.WithHealthChecks(
//	    portal.WithReadinessCheck("db", db.Healthcheck(conn)),
//	    portal.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(p *Portal) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
		}
		for _, opt := range opts {
			opt(cfg)
		}
		p.healthConfig = cfg
	}
}

// WithLogger creates a logger with a component name and optional extractors.
// The component name is added to every log entry for easy filtering.
//
// Example:
//
//	portal.New(s, s,
//	    portal.WithLogger(logger.Config{Level: "debug"}, "site", middlewares.RequestIDExtractor()),
//	)
func WithLogger(cfg logger.Config, component string, extractors ...logger.ContextExtractor) Option {
	return func(p *Portal) {
		p.logger = logger.New(cfg, extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return func(p *Portal) {
		if l != nil {
			p.logger = l
		}
	}
}
