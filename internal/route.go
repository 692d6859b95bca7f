package internal

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRoutes is returned by Routes.Load for malformed route files.
var ErrInvalidRoutes = errors.New("portal: invalid routes file")

// FileChecker tells whether a template file exists.
type FileChecker interface {
	Exists(path string) bool
}

// OSFileChecker checks the local filesystem.
type OSFileChecker struct{}

func (OSFileChecker) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// FSFileChecker checks paths inside FS.
type FSFileChecker struct {
	FS fs.FS
}

func (c FSFileChecker) Exists(path string) bool {
	info, err := fs.Stat(c.FS, strings.TrimPrefix(path, "/"))
	return err == nil && !info.IsDir()
}

// TemplateFilter may replace the template the host was about to use.
type TemplateFilter func(template string) string

// VirtualRoute claims every path under its prefix and supplies the templates
// that render it.
type VirtualRoute struct {
	// Prefix has no trailing slash.
	Prefix string `yaml:"prefix"`
	// Templates are tried in order; the first existing one wins.
	Templates []string `yaml:"templates"`
}

// Routes is the registry of virtual routes. Register routes before serving;
// Match is safe for concurrent use once registration is done.
type Routes struct {
	files  FileChecker
	routes []*VirtualRoute
}

// NewRoutes returns an empty registry resolving templates with files.
// A nil files checks the local filesystem.
func NewRoutes(files FileChecker) *Routes {
	if files == nil {
		files = OSFileChecker{}
	}
	return &Routes{files: files}
}

// Register adds a route for prefix.
func (r *Routes) Register(prefix string, templates ...string) *VirtualRoute {
	vr := &VirtualRoute{
		Prefix:    strings.TrimRight(prefix, "/"),
		Templates: templates,
	}
	r.routes = append(r.routes, vr)
	return vr
}

// Len returns the number of registered routes.
func (r *Routes) Len() int {
	return len(r.routes)
}

// Load registers the routes of a YAML document of the form
//
//	routes:
//	  - prefix: gallery
//	    templates: [gallery.html, default/gallery.html]
func (r *Routes) Load(rd io.Reader) error {
	var doc struct {
		Routes []VirtualRoute `yaml:"routes"`
	}
	if err := yaml.NewDecoder(rd).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(ErrInvalidRoutes, err)
	}
	for i, vr := range doc.Routes {
		if len(vr.Templates) == 0 {
			return fmt.Errorf("%w: route %d (%q) has no templates", ErrInvalidRoutes, i, vr.Prefix)
		}
		r.Register(vr.Prefix, vr.Templates...)
	}
	return nil
}

// RouteMatch is a route claiming the current request.
type RouteMatch struct {
	Route *VirtualRoute
	files FileChecker
	// Remainder is the path after the prefix split on "/". It is empty, not
	// nil, when nothing follows the prefix.
	Remainder []string
}

// Match returns the route claiming path. A route claims a path whose first
// len(want) bytes equal want, where want is basePath without trailing slashes,
// "/" and the prefix. The longest prefix wins; between equal prefixes the
// earliest registration wins.
func (r *Routes) Match(basePath, path string) (RouteMatch, bool) {
	base := strings.TrimRight(basePath, "/")

	var best *VirtualRoute
	var bestWant string
	for _, vr := range r.routes {
		want := base + "/" + vr.Prefix
		if len(path) < len(want) || path[:len(want)] != want {
			continue
		}
		if best == nil || len(want) > len(bestWant) {
			best, bestWant = vr, want
		}
	}
	if best == nil {
		return RouteMatch{}, false
	}

	rest := path[len(bestWant):]
	remainder := []string{}
	if len(rest) > 1 {
		remainder = strings.Split(rest[1:], "/")
	}
	return RouteMatch{Route: best, Remainder: remainder, files: r.files}, true
}

// Template returns the first existing template of the route, or fallback.
func (m RouteMatch) Template(fallback string) string {
	if m.Route == nil {
		return fallback
	}
	for _, t := range m.Route.Templates {
		if m.files.Exists(t) {
			return t
		}
	}
	return fallback
}
