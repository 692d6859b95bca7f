package internal

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/logger"
	"github.com/dmitrymomot/portal/pkg/markup"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

// Flavor selects the defaults a loop applies to its filter.
type Flavor int

const (
	// FlavorContent lists published posts, newest first, or a page when the
	// filter has a page key.
	FlavorContent Flavor = iota
	// FlavorAttachment lists the attachments of the ambient item in menu order.
	FlavorAttachment
)

func (f Flavor) String() string {
	switch f {
	case FlavorAttachment:
		return "attachment"
	default:
		return "content"
	}
}

// LoopState is the lifecycle position of a named loop.
type LoopState int

const (
	// LoopIdle means the loop has not started, or was abandoned with Break.
	LoopIdle LoopState = iota
	// LoopActive means a cursor is open and the ambient state is saved.
	LoopActive
	// LoopExhausted means the last Advance returned the end sentinel.
	LoopExhausted
)

func (s LoopState) String() string {
	switch s {
	case LoopActive:
		return "active"
	case LoopExhausted:
		return "exhausted"
	default:
		return "idle"
	}
}

// DefaultEmptyPage is the PageContent message used when none is given.
const DefaultEmptyPage = "The page '%s' is empty."

// drainPrefix names the internal loops of All. It cannot appear in a template.
const drainPrefix = "\x00all:"

type loopState struct {
	cursor content.Cursor
	token  Token
	flavor Flavor
	count  int
}

// LoopsOption configures Loops.
type LoopsOption func(*Loops)

// WithLoopLogger sets the logger for loop events.
func WithLoopLogger(l *slog.Logger) LoopsOption {
	return func(o *Loops) {
		if l != nil {
			o.log = l
		}
	}
}

// WithLoopMetrics records loop counters in m.
func WithLoopMetrics(m *Metrics) LoopsOption {
	return func(o *Loops) {
		o.metrics = m
	}
}

// WithLoopMeta enables Meta.
func WithLoopMeta(r content.MetaReader) LoopsOption {
	return func(o *Loops) {
		o.meta = r
	}
}

// WithLoopMarkup sets the renderer used by PageContent.
// Default: markup.New().
func WithLoopMarkup(r *markup.Renderer) LoopsOption {
	return func(o *Loops) {
		if r != nil {
			o.markup = r
		}
	}
}

// Loops is the registry of named loops of one request. A loop starts on the
// first Advance for its name and ends when its cursor is exhausted; while it
// runs, the ambient state of the request follows its items. It is not safe for
// concurrent use.
type Loops struct {
	provider content.Provider
	resolver *taxonomy.Resolver
	ambient  *CursorContext
	meta     content.MetaReader
	markup   *markup.Renderer
	log      *slog.Logger
	metrics  *Metrics
	active   map[string]*loopState
	done     map[string]bool
	drains   int
}

// NewLoops returns an empty registry reading from provider and moving ambient.
func NewLoops(provider content.Provider, resolver *taxonomy.Resolver, ambient *CursorContext, opts ...LoopsOption) *Loops {
	l := &Loops{
		provider: provider,
		resolver: resolver,
		ambient:  ambient,
		log:      logger.NewNope(),
		active:   make(map[string]*loopState),
		done:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.markup == nil {
		l.markup = markup.New()
	}
	return l
}

// Ambient returns the cursor context the loops move.
func (l *Loops) Ambient() *CursorContext {
	return l.ambient
}

// Advance returns the next item of the loop name and makes it the ambient
// item. The first call for a name opens the loop with filter and limit (zero
// means unlimited); later calls ignore them. When the loop runs out, Advance
// restores the ambient state saved at the start and returns false; the next
// call starts the loop again.
//
// Provider and resolver errors are returned unchanged and leave no loop open.
func (l *Loops) Advance(ctx context.Context, name string, flavor Flavor, filter content.Filter, limit int) (content.Item, bool, error) {
	st, ok := l.active[name]
	if !ok {
		var err error
		if st, err = l.open(ctx, name, flavor, filter, limit); err != nil {
			return content.Item{}, false, err
		}
	}

	if st.cursor.HasNext() {
		it := st.cursor.Next()
		st.count++
		l.ambient.SetItem(it)
		l.metrics.loopItem(st.flavor)
		return it, true, nil
	}

	if err := l.ambient.Exit(st.token); err != nil {
		return content.Item{}, false, fmt.Errorf("loop %q ended with inner loops open: %w", name, err)
	}
	l.close(ctx, name, st)
	l.done[name] = true
	l.log.DebugContext(ctx, "loop exhausted", slog.String("loop", name), slog.Int("items", st.count))
	return content.Item{}, false, nil
}

func (l *Loops) open(ctx context.Context, name string, flavor Flavor, filter content.Filter, limit int) (*loopState, error) {
	q, err := l.compose(ctx, flavor, filter, limit)
	if err != nil {
		l.metrics.loopStarted(flavor, 0, err)
		return nil, err
	}

	tok, err := l.ambient.Enter(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cur, err := l.provider.Find(ctx, q)
	l.metrics.loopStarted(flavor, time.Since(start), err)
	if err != nil {
		_ = l.ambient.Exit(tok)
		return nil, err
	}

	st := &loopState{cursor: cur, token: tok, flavor: flavor}
	l.active[name] = st
	delete(l.done, name)
	l.log.DebugContext(ctx, "loop started",
		slog.String("loop", name),
		slog.String("flavor", flavor.String()),
		slog.Int("limit", q.Limit),
		slog.Int("offset", q.Offset),
	)
	return st, nil
}

func (l *Loops) close(ctx context.Context, name string, st *loopState) {
	delete(l.active, name)
	if err := st.cursor.Close(); err != nil {
		l.log.WarnContext(ctx, "closing loop cursor", slog.String("loop", name), slog.String("error", err.Error()))
	}
}

// State reports where the loop name is in its lifecycle.
func (l *Loops) State(name string) LoopState {
	switch {
	case l.active[name] != nil:
		return LoopActive
	case l.done[name]:
		return LoopExhausted
	default:
		return LoopIdle
	}
}

// Break abandons the loop name and every loop started inside it, restoring
// the ambient state saved when name started. Breaking an idle loop is a no-op.
func (l *Loops) Break(ctx context.Context, name string) error {
	if l.active[name] == nil {
		return nil
	}
	if err := l.ambient.Break(name); err != nil {
		return err
	}
	for n, st := range l.active {
		if !l.ambient.Active(n) {
			l.close(ctx, n, st)
		}
	}
	l.log.DebugContext(ctx, "loop abandoned", slog.String("loop", name))
	return nil
}

// All drains a fresh loop into a slice in provider order. It runs under a
// private name, so it can be called from inside any template loop.
func (l *Loops) All(ctx context.Context, flavor Flavor, filter content.Filter, limit int) ([]content.Item, error) {
	l.drains++
	name := fmt.Sprintf("%s%d", drainPrefix, l.drains)

	items := []content.Item{}
	for {
		it, ok, err := l.Advance(ctx, name, flavor, filter, limit)
		if err != nil {
			_ = l.Break(ctx, name)
			return nil, err
		}
		if !ok {
			delete(l.done, name)
			return items, nil
		}
		items = append(items, it)
	}
}

// Seq returns the loop name as an iterator. Leaving the iteration before the
// loop runs out, by break, return or panic, breaks the loop. An error is
// yielded once, with a zero item, and ends the iteration.
func (l *Loops) Seq(ctx context.Context, name string, flavor Flavor, filter content.Filter, limit int) iter.Seq2[content.Item, error] {
	return func(yield func(content.Item, error) bool) {
		exhausted := false
		defer func() {
			if exhausted {
				return
			}
			if err := l.Break(ctx, name); err != nil {
				l.log.WarnContext(ctx, "breaking loop", slog.String("loop", name), slog.String("error", err.Error()))
			}
		}()
		for {
			it, ok, err := l.Advance(ctx, name, flavor, filter, limit)
			if err != nil {
				yield(content.Item{}, err)
				return
			}
			if !ok {
				exhausted = true
				return
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}

// Loop is a handle on one named loop with a fixed filter.
type Loop struct {
	loops  *Loops
	filter content.Filter
	name   string
	flavor Flavor
	limit  int
}

// Loop returns a handle for the loop name. Nothing runs until Next.
func (l *Loops) Loop(name string, flavor Flavor, filter content.Filter, limit int) *Loop {
	return &Loop{loops: l, name: name, flavor: flavor, filter: filter.Clone(), limit: limit}
}

// Next advances the loop. See Loops.Advance.
func (lp *Loop) Next(ctx context.Context) (content.Item, bool, error) {
	return lp.loops.Advance(ctx, lp.name, lp.flavor, lp.filter, lp.limit)
}

// State reports the loop's lifecycle position.
func (lp *Loop) State() LoopState {
	return lp.loops.State(lp.name)
}

// Break abandons the loop. See Loops.Break.
func (lp *Loop) Break(ctx context.Context) error {
	return lp.loops.Break(ctx, lp.name)
}

// PageContent returns the rendered body of the page with the given slug. A
// missing or empty page yields onEmpty, formatted with the slug when it has a
// %s verb, or DefaultEmptyPage when onEmpty is "".
func (l *Loops) PageContent(ctx context.Context, slug, onEmpty string) (template.HTML, error) {
	pages, err := l.All(ctx, FlavorContent, content.Filter{KeyPage: slug}, 1)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 || strings.TrimSpace(pages[0].Content) == "" {
		if onEmpty == "" {
			onEmpty = DefaultEmptyPage
		}
		if strings.Contains(onEmpty, "%s") {
			onEmpty = fmt.Sprintf(onEmpty, slug)
		}
		return template.HTML(html.EscapeString(onEmpty)), nil //nolint:gosec // escaped
	}
	return l.markup.Render(pages[0].Content)
}

// Meta returns the custom field key of the item id wrapped in before and
// after, or "" when unset. An id of 0 selects the ambient item.
func (l *Loops) Meta(ctx context.Context, key, before, after string, id int64) (string, error) {
	if id == 0 {
		id = l.ambient.Current().ID()
	}
	if id == 0 || l.meta == nil {
		return "", nil
	}
	v, err := l.meta.Meta(ctx, id, key)
	if err != nil || v == "" {
		return "", err
	}
	return before + v + after, nil
}

// InCategory reports whether the ambient item belongs to the category slug or
// to one of its descendants.
func (l *Loops) InCategory(ctx context.Context, slug string) (bool, error) {
	id := l.ambient.Current().ID()
	if id == 0 || slug == "" {
		return false, nil
	}
	own, err := l.resolver.Store().ItemTerms(ctx, id, taxonomy.DefaultTaxonomy)
	if err != nil || len(own) == 0 {
		return false, err
	}
	tree, err := l.resolver.Resolve(ctx, slug)
	if err != nil {
		return false, err
	}
	for _, t := range own {
		if taxonomy.InTerms(t.Slug, tree) {
			return true, nil
		}
	}
	return false, nil
}
