package markup

import (
	"bytes"
	"errors"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/dmitrymomot/portal/pkg/sanitizer"
)

// MoreMarker separates the teaser of a body from the rest.
const MoreMarker = "<!--more-->"

// ErrRender is returned when markdown conversion fails.
var ErrRender = errors.New("markup: render failed")

// Renderer converts stored bodies to sanitized HTML. It is safe for concurrent use.
type Renderer struct {
	md       goldmark.Markdown
	sanitize func(string) string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSanitizer replaces the HTML cleanup applied after conversion.
// Default: sanitizer.SanitizePage.
func WithSanitizer(fn func(string) string) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.sanitize = fn
		}
	}
}

// WithExtensions adds goldmark extensions on top of GFM and Button.
func WithExtensions(ext ...goldmark.Extender) Option {
	return func(r *Renderer) {
		r.md = goldmark.New(
			goldmark.WithExtensions(append([]goldmark.Extender{extension.GFM, Button}, ext...)...),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		)
	}
}

// New returns a renderer for GitHub-flavored markdown with inline HTML.
// Inline HTML is passed through goldmark and removed afterwards by the sanitizer.
func New(opts ...Option) *Renderer {
	r := &Renderer{sanitize: sanitizer.SanitizePage}
	WithExtensions()(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render converts src to HTML. The more marker is dropped.
func (r *Renderer) Render(src string) (template.HTML, error) {
	return r.convert(strings.Replace(src, MoreMarker, "", 1))
}

// Teaser converts the part of src before the more marker. The flag reports
// whether src had a marker.
func (r *Renderer) Teaser(src string) (template.HTML, bool, error) {
	head, more := SplitMore(src)
	out, err := r.convert(head)
	return out, more, err
}

func (r *Renderer) convert(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", errors.Join(ErrRender, err)
	}
	return template.HTML(r.sanitize(buf.String())), nil //nolint:gosec // sanitized above
}

// SplitMore returns the part of src before the more marker and whether the
// marker was present.
func SplitMore(src string) (string, bool) {
	head, _, found := strings.Cut(src, MoreMarker)
	return head, found
}
