package internal

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"path"
	"strings"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

// Theme layout conventions.
const (
	partialsDir = "partials"
	pageExt     = ".html"
)

// ComponentFunc builds a Go-native page for one request.
type ComponentFunc func(s *Scope) templ.Component

// Theme is a set of html/template pages sharing the files under partials/,
// plus optional Go components registered by name. Pages are parsed once;
// every request executes a clone bound to its own Scope.
type Theme struct {
	pages      map[string]*template.Template
	components map[string]ComponentFunc
}

// NewTheme returns an empty theme. Use it for component-only sites.
func NewTheme() *Theme {
	return &Theme{
		pages:      make(map[string]*template.Template),
		components: make(map[string]ComponentFunc),
	}
}

// LoadTheme parses every *.html file at the root of fsys as a page. Files in
// partials/ are parsed into every page and can be used with {{template}}.
func LoadTheme(fsys fs.FS) (*Theme, error) {
	base := template.New("").Funcs(stubFuncs)
	partials, err := fs.Glob(fsys, path.Join(partialsDir, "*"+pageExt))
	if err != nil {
		return nil, err
	}
	if len(partials) > 0 {
		if base, err = base.ParseFS(fsys, partials...); err != nil {
			return nil, fmt.Errorf("parsing theme partials: %w", err)
		}
	}

	files, err := fs.Glob(fsys, "*"+pageExt)
	if err != nil {
		return nil, err
	}

	t := NewTheme()
	for _, name := range files {
		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		tpl, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := tpl.New(name).Parse(string(src)); err != nil {
			return nil, fmt.Errorf("parsing theme page %s: %w", name, err)
		}
		t.pages[name] = tpl
	}
	return t, nil
}

// Register adds a Go component under name. Components shadow pages with the
// same name.
func (t *Theme) Register(name string, fn ComponentFunc) {
	t.components[name] = fn
}

// Exists reports whether the theme can render name. It lets the theme act as
// the FileChecker of a route registry.
func (t *Theme) Exists(name string) bool {
	name = strings.TrimPrefix(name, "/")
	if _, ok := t.components[name]; ok {
		return true
	}
	_, ok := t.pages[name]
	return ok
}

// Pick returns the first candidate the theme can render, or "".
func (t *Theme) Pick(candidates ...string) string {
	for _, c := range candidates {
		if t.Exists(c) {
			return strings.TrimPrefix(c, "/")
		}
	}
	return ""
}

// Component returns the page name bound to s.
func (t *Theme) Component(name string, s *Scope) (templ.Component, error) {
	name = strings.TrimPrefix(name, "/")
	if fn, ok := t.components[name]; ok {
		return fn(s), nil
	}
	page, ok := t.pages[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		tpl, err := page.Clone()
		if err != nil {
			return err
		}
		r := &renderer{scope: s, ctx: ctx, theme: t}
		tpl.Funcs(r.funcs())
		if err := templ.FromGoHTML(tpl.Lookup(name), r.view(name)).Render(ctx, w); err != nil {
			return err
		}
		return r.err
	}), nil
}

// Templates returns the candidate pages for zone, most specific first.
func Templates(zone Zone, slug string) []string {
	var names []string
	switch zone.Kind {
	case KindPage:
		if slug != "" {
			names = append(names, "page-"+slug+pageExt)
		}
		names = append(names, "page"+pageExt)
	case KindPost:
		names = append(names, "single"+pageExt)
	case KindCategory, KindTag:
		if len(zone.Terms) > 0 {
			names = append(names, string(zone.Kind)+"-"+zone.Terms[0].Slug+pageExt)
		}
		names = append(names, string(zone.Kind)+pageExt, "archive"+pageExt)
	case KindAuthor, KindDate:
		names = append(names, string(zone.Kind)+pageExt, "archive"+pageExt)
	case KindSearch:
		names = append(names, "search"+pageExt)
	case KindHome:
		names = append(names, "home"+pageExt)
	case KindNotFound:
		return []string{"404" + pageExt}
	}
	return append(names, "index"+pageExt)
}

// View is the data a theme page executes with.
type View struct {
	Template  string
	Zone      Zone
	Remainder []string
	UserID    int64
}

// renderer binds template funcs to one execution of one page.
type renderer struct {
	scope *Scope
	ctx   context.Context
	theme *Theme
	err   error
}

func (r *renderer) view(name string) View {
	zone, err := r.scope.Zones.Classify(r.ctx, "")
	if err != nil {
		r.fail(err)
	}
	return View{
		Template:  name,
		Zone:      zone,
		Remainder: r.scope.Remainder(),
		UserID:    r.scope.UserID(),
	}
}

func (r *renderer) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// stubFuncs declares the per-request funcs at parse time.
var stubFuncs = (&renderer{}).funcs()

func (r *renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"filter":      filterOf,
		"loop":        r.loop,
		"attachments": r.attachments,
		"all":         r.all,
		"item":        r.item,
		"day":         r.day,
		"newDay":      r.newDay,
		"zone":        r.zone,
		"zoneField":   r.zoneField,
		"terms":       r.terms,
		"isChildOf":   r.isChildOf,
		"inCategory":  r.inCategory,
		"meta":        r.meta,
		"page":        r.page,
		"markdown":    r.markdown,
		"teaser":      r.teaser,
		"purl":        r.purl,
		"isAdmin":     r.isAdmin,
		"mediaURL":    r.mediaURL,
		"component":   r.component,
	}
}

// filterOf builds a filter from key/value pairs.
func filterOf(pairs ...any) (content.Filter, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("filter: odd number of arguments")
	}
	f := make(content.Filter, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("filter: key %v is not a string", pairs[i])
		}
		f[key] = pairs[i+1]
	}
	return f, nil
}

// loop and attachments open the named loop when the template ranges over the
// result, so calling them without range runs nothing. Errors stop the
// iteration and fail the render.
func (r *renderer) loop(name string, f content.Filter, limit int) iter.Seq[content.Item] {
	return r.seq(name, FlavorContent, f, limit)
}

func (r *renderer) attachments(name string, f content.Filter, limit int) iter.Seq[content.Item] {
	return r.seq(name, FlavorAttachment, f, limit)
}

// seq breaks the loop unless it ran out. {{break}} and template errors leave
// the range body by panicking through yield, so the break is deferred.
func (r *renderer) seq(name string, flavor Flavor, f content.Filter, limit int) iter.Seq[content.Item] {
	loops := r.scope.Loops
	return func(yield func(content.Item) bool) {
		exhausted := false
		defer func() {
			if exhausted {
				return
			}
			if err := loops.Break(r.ctx, name); err != nil {
				r.fail(err)
			}
		}()
		for {
			it, ok, err := loops.Advance(r.ctx, name, flavor, f, limit)
			if err != nil {
				r.fail(err)
				return
			}
			if !ok {
				exhausted = true
				return
			}
			if !yield(it) {
				return
			}
		}
	}
}

func (r *renderer) all(flavor string, f content.Filter, limit int) ([]content.Item, error) {
	fl := FlavorContent
	if flavor == FlavorAttachment.String() {
		fl = FlavorAttachment
	}
	return r.scope.Loops.All(r.ctx, fl, f, limit)
}

func (r *renderer) item() content.Item {
	if it := r.scope.Ambient.Current().Item; it != nil {
		return *it
	}
	return content.Item{}
}

func (r *renderer) day() string {
	return r.scope.Ambient.Current().Day
}

func (r *renderer) newDay() bool {
	return r.scope.Ambient.NewDay()
}

func (r *renderer) zone(tax ...string) (Zone, error) {
	return r.scope.Zones.Classify(r.ctx, first(tax))
}

func (r *renderer) zoneField(key string, tax ...string) (any, error) {
	return r.scope.Zones.Field(r.ctx, key, first(tax))
}

// terms resolves ref; an optional depth limits the recursion.
func (r *renderer) terms(ref string, depth ...int) ([]taxonomy.Term, error) {
	var opts []taxonomy.ResolveOption
	if len(depth) > 0 {
		opts = append(opts, taxonomy.WithDepth(depth[0]))
	}
	return r.scope.portal.resolver.Resolve(r.ctx, ref, opts...)
}

func (r *renderer) isChildOf(child, parent string) (bool, error) {
	return r.scope.portal.resolver.IsChildOf(r.ctx, child, parent)
}

func (r *renderer) inCategory(slug string) (bool, error) {
	return r.scope.Loops.InCategory(r.ctx, slug)
}

// meta accepts key, optional before and after, and an optional item id.
func (r *renderer) meta(key string, args ...any) (string, error) {
	var before, after string
	var id int64
	for i, a := range args {
		switch v := a.(type) {
		case string:
			if i == 0 {
				before = v
			} else {
				after = v
			}
		case int:
			id = int64(v)
		case int64:
			id = v
		default:
			return "", fmt.Errorf("meta: unexpected argument %v", a)
		}
	}
	return r.scope.Loops.Meta(r.ctx, key, before, after, id)
}

func (r *renderer) page(slug string, onEmpty ...string) (template.HTML, error) {
	return r.scope.Loops.PageContent(r.ctx, slug, first(onEmpty))
}

func (r *renderer) markdown(src string) (template.HTML, error) {
	return r.scope.portal.markup.Render(src)
}

func (r *renderer) teaser(src string) (template.HTML, error) {
	html, _, err := r.scope.portal.markup.Teaser(src)
	return html, err
}

func (r *renderer) purl() []string {
	return r.scope.Remainder()
}

func (r *renderer) isAdmin() (bool, error) {
	return r.scope.IsAdmin(r.ctx)
}

// mediaURL returns the file URL of an attachment, "" without a media store.
func (r *renderer) mediaURL(it content.Item) (string, error) {
	m := r.scope.portal.media
	if m == nil || it.FileKey == "" {
		return "", nil
	}
	u, err := m.URL(r.ctx, it)
	if err != nil {
		r.scope.log.WarnContext(r.ctx, "resolving media url",
			slog.Int64("item", it.ID),
			slog.String("error", err.Error()),
		)
		return "", nil
	}
	return u, nil
}

func (r *renderer) component(name string) (template.HTML, error) {
	fn, ok := r.theme.components[name]
	if !ok {
		return "", fmt.Errorf("%w: component %q", ErrTemplateNotFound, name)
	}
	html, err := templ.ToGoHTML(r.ctx, fn(r.scope))
	if err != nil {
		return "", errors.Join(fmt.Errorf("rendering component %q", name), err)
	}
	return html, nil
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
