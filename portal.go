package portal

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/portal/internal"
	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/cookie"
	"github.com/dmitrymomot/portal/pkg/health"
	"github.com/dmitrymomot/portal/pkg/logger"
	"github.com/dmitrymomot/portal/pkg/markup"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

// Type aliases - public API
type (
	// Portal holds the state shared by every request.
	Portal = internal.Portal

	// Scope is the portal state of one request.
	Scope = internal.Scope

	// Option configures the portal.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// Theme is a set of pages and components rendering requests.
	Theme = internal.Theme

	// ComponentFunc builds a Go-native page for one request.
	ComponentFunc = internal.ComponentFunc

	// View is the data a theme page executes with.
	View = internal.View

	// Routes is the registry of virtual routes.
	Routes = internal.Routes

	// VirtualRoute claims every path under its prefix.
	VirtualRoute = internal.VirtualRoute

	// RouteMatch is a route claiming the current request.
	RouteMatch = internal.RouteMatch

	// TemplateFilter may replace the template the host was about to use.
	TemplateFilter = internal.TemplateFilter

	// FileChecker tells whether a template file exists.
	FileChecker = internal.FileChecker

	// Loops is the registry of named loops of one request.
	Loops = internal.Loops

	// Loop is a handle on one named loop.
	Loop = internal.Loop

	// Flavor selects the defaults a loop applies to its filter.
	Flavor = internal.Flavor

	// LoopState is the lifecycle position of a named loop.
	LoopState = internal.LoopState

	// CursorContext is the ambient state stack of one request.
	CursorContext = internal.CursorContext

	// Ambient is the current item and its day.
	Ambient = internal.Ambient

	// Zones classifies the request of one scope.
	Zones = internal.Zones

	// Zone is the normalized classification of a request.
	Zone = internal.Zone

	// Kind is the section of the site a request belongs to.
	Kind = internal.Kind

	// RequestInfo is what the zone classifier knows about a request.
	RequestInfo = internal.RequestInfo

	// Resolution is the outcome of resolving a request.
	Resolution = internal.Resolution

	// MediaResolver turns attachments into file URLs.
	MediaResolver = internal.MediaResolver

	// UserResolver identifies the user making a request.
	UserResolver = internal.UserResolver

	// HTTPError is an error with an HTTP status code.
	HTTPError = internal.HTTPError

	// Extractor tries request sources in order.
	Extractor = internal.Extractor

	// ExtractorSource extracts a value from the request.
	ExtractorSource = internal.ExtractorSource

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogger to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor
)

// Loop flavors.
const (
	FlavorContent    = internal.FlavorContent
	FlavorAttachment = internal.FlavorAttachment
)

// Loop states.
const (
	LoopIdle      = internal.LoopIdle
	LoopActive    = internal.LoopActive
	LoopExhausted = internal.LoopExhausted
)

// Zone kinds.
const (
	KindPage     = internal.KindPage
	KindPost     = internal.KindPost
	KindAuthor   = internal.KindAuthor
	KindSearch   = internal.KindSearch
	KindCategory = internal.KindCategory
	KindDate     = internal.KindDate
	KindTag      = internal.KindTag
	KindHome     = internal.KindHome
	KindNotFound = internal.KindNotFound
	KindNone     = internal.KindNone
)

// Errors
var (
	ErrInvalidState     = internal.ErrInvalidState
	ErrKeyNotFound      = internal.ErrKeyNotFound
	ErrMissingParent    = internal.ErrMissingParent
	ErrNoScope          = internal.ErrNoScope
	ErrTemplateNotFound = internal.ErrTemplateNotFound
	ErrInvalidRoutes    = internal.ErrInvalidRoutes
)

// Constructors

// New creates a portal serving content from provider with terms from store.
//
// Example:
//
//	s := store.NewMemory()
//	p := portal.New(s, s,
//	    portal.WithTheme(theme),
//	    portal.WithBasePath("/blog"),
//	)
//
//	err := p.Run(":8080", portal.Logger(log))
func New(provider content.Provider, store taxonomy.Store, opts ...Option) *Portal {
	return internal.New(provider, store, opts...)
}

// LoadTheme parses the pages at the root of fsys, sharing files in partials/.
func LoadTheme(fsys fs.FS) (*Theme, error) {
	return internal.LoadTheme(fsys)
}

// NewTheme returns an empty theme for component-only sites.
func NewTheme() *Theme {
	return internal.NewTheme()
}

// NewRoutes returns an empty virtual route registry. A nil files checks the
// local filesystem.
func NewRoutes(files FileChecker) *Routes {
	return internal.NewRoutes(files)
}

// FromContext returns the scope of the request carrying ctx.
func FromContext(ctx context.Context) (*Scope, error) {
	return internal.ScopeFromContext(ctx)
}

// NewExtractor creates an Extractor that tries the given sources in order.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return internal.NewExtractor(sources...)
}

// FromHeader returns a source that reads from a request header.
func FromHeader(name string) ExtractorSource {
	return internal.FromHeader(name)
}

// FromCookie returns a source that reads from a plain cookie.
func FromCookie(name string) ExtractorSource {
	return internal.FromCookie(name)
}

// FromQuery returns a source that reads from a query parameter.
func FromQuery(name string) ExtractorSource {
	return internal.FromQuery(name)
}

// FromSignedCookie returns a source that reads a cookie signed by m.
func FromSignedCookie(m *cookie.Manager, name string) ExtractorSource {
	return internal.FromSignedCookie(m, name)
}

// FromBearerToken returns a source that reads a Bearer token.
func FromBearerToken() ExtractorSource {
	return internal.FromBearerToken()
}

// Portal options

// WithBasePath sets the path the site is served under.
func WithBasePath(path string) Option {
	return internal.WithBasePath(path)
}

// WithTheme sets the theme rendering requests.
func WithTheme(t *Theme) Option {
	return internal.WithTheme(t)
}

// WithRoutes sets the virtual route registry.
func WithRoutes(r *Routes) Option {
	return internal.WithRoutes(r)
}

// WithTemplateFilter appends template fallbacks consulted after the virtual route.
func WithTemplateFilter(f ...TemplateFilter) Option {
	return internal.WithTemplateFilter(f...)
}

// WithMetaReader sets the custom field source.
func WithMetaReader(r content.MetaReader) Option {
	return internal.WithMetaReader(r)
}

// WithCapabilities sets the capability checker.
func WithCapabilities(c content.CapabilityChecker) Option {
	return internal.WithCapabilities(c)
}

// WithUserResolver sets how the requesting user is identified.
func WithUserResolver(fn UserResolver) Option {
	return internal.WithUserResolver(fn)
}

// WithMarkup sets the markdown renderer for page content.
func WithMarkup(r *markup.Renderer) Option {
	return internal.WithMarkup(r)
}

// WithMedia sets the resolver of attachment file URLs.
func WithMedia(m MediaResolver) Option {
	return internal.WithMedia(m)
}

// WithMetrics registers the portal collectors with reg and serves it on /metrics.
func WithMetrics(reg *prometheus.Registry) Option {
	return internal.WithMetrics(reg)
}

// WithMiddleware adds global middleware to the portal.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return internal.WithMiddleware(mw...)
}

// WithStaticFiles mounts a static file handler at the given pattern.
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	portal.WithHealthChecks(
//	    portal.WithReadinessCheck("db", db.Healthcheck(conn)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLogger creates a logger with a component name and optional extractors.
// Extractors pull values from context (e.g., request_id).
func WithLogger(cfg logger.Config, component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(cfg, component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// Health options

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Run options

// Address sets the HTTP server address.
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Logger sets the server logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the timeout for graceful shutdown.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// ShutdownHook registers a cleanup function to run during shutdown.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets a custom base context for signal handling.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}
