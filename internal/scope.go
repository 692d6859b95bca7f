package internal

import (
	"context"
	"log/slog"
	"net/http"
)

// CapabilityAdministrator is the capability checked by IsAdmin.
const CapabilityAdministrator = "administrator"

type scopeKey struct{}

// Scope is the portal state of one request: its ambient item, loops, zone memo
// and matched route. A scope is created per request and never shared.
type Scope struct {
	Request RequestInfo
	Ambient *CursorContext
	Loops   *Loops
	Zones   *Zones
	portal  *Portal
	log     *slog.Logger
	route   RouteMatch
	routed  bool
	userID  int64
}

// NewScope builds the scope of a request made by userID (0 for anonymous).
func (p *Portal) NewScope(req RequestInfo, userID int64) *Scope {
	ambient := NewCursorContext()
	s := &Scope{
		Request: req,
		Ambient: ambient,
		Loops: NewLoops(p.provider, p.resolver, ambient,
			WithLoopLogger(p.logger),
			WithLoopMetrics(p.metrics),
			WithLoopMeta(p.meta),
			WithLoopMarkup(p.markup),
		),
		Zones:  NewZones(req, p.resolver, p.logger, p.metrics),
		portal: p,
		log:    p.logger,
		userID: userID,
	}
	if m, ok := p.routes.Match(req.BasePath(), req.Path()); ok {
		s.route, s.routed = m, true
		p.metrics.routeMatched(m.Route.Prefix)
	}
	return s
}

// Route returns the virtual route claiming the request, if any.
func (s *Scope) Route() (RouteMatch, bool) {
	return s.route, s.routed
}

// Remainder returns the path segments after the matched route prefix.
func (s *Scope) Remainder() []string {
	if !s.routed {
		return []string{}
	}
	return s.route.Remainder
}

// UserID returns the id of the requesting user, 0 when anonymous.
func (s *Scope) UserID() int64 {
	return s.userID
}

// TemplateFallback runs the template filters on template, the matched route
// first, then the portal's filters in registration order. The portal calls it
// only when its own template lookup failed.
func (s *Scope) TemplateFallback(template string) string {
	if s.routed {
		template = s.route.Template(template)
	}
	for _, f := range s.portal.filters {
		template = f(template)
	}
	return template
}

// HasCapability reports whether the requesting user holds capability.
// Anonymous users and portals without a capability checker hold none.
func (s *Scope) HasCapability(ctx context.Context, capability string) (bool, error) {
	if s.userID == 0 || s.portal.caps == nil {
		return false, nil
	}
	return s.portal.caps.HasCapability(ctx, s.userID, capability)
}

// IsAdmin reports whether the requesting user is an administrator.
func (s *Scope) IsAdmin(ctx context.Context) (bool, error) {
	return s.HasCapability(ctx, CapabilityAdministrator)
}

// WithScope returns a copy of ctx carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the scope stored by the portal middleware.
func ScopeFromContext(ctx context.Context) (*Scope, error) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	if !ok || s == nil {
		return nil, ErrNoScope
	}
	return s, nil
}

// Middleware attaches a fresh Scope to every request.
func (p *Portal) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var uid int64
		if p.user != nil {
			uid = p.user(r)
		}
		s := p.NewScope(NewHTTPRequest(r, p.basePath, p.provider), uid)
		next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), s)))
	})
}
