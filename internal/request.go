package internal

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/portal/pkg/content"
)

// Flags are the request types the host resolved. More than one may be set;
// zone classification picks by precedence.
type Flags uint16

const (
	FlagPage Flags = 1 << iota
	FlagSingle
	FlagAuthor
	FlagSearch
	FlagCategory
	FlagDate
	FlagTag
	FlagHome
	FlagNotFound
)

// Resolution is what the host knows about the current request.
type Resolution struct {
	// Item is the page or post for FlagPage and FlagSingle.
	Item       content.Item
	Search     string
	Tag        string
	AuthorID   int64
	CategoryID int64
	Year       int
	// Month is 0 when only the year is known.
	Month int
	Flags Flags
}

// Is reports whether every flag in f is set.
func (r Resolution) Is(f Flags) bool {
	return r.Flags&f == f && f != 0
}

// RequestInfo exposes the current request to zones and routes.
type RequestInfo interface {
	// Path is the request path, without query.
	Path() string
	// BasePath is the path the site is mounted under, "" or "/" for the root.
	BasePath() string
	// Resolve classifies the request.
	Resolve(ctx context.Context) (Resolution, error)
}

// HTTPRequest resolves a request from its query parameters the way a classic
// blog does: page_id, p, author, s, cat, m (or year and monthnum) and tag.
// A request to the base path with none of them is the home page; anything else
// is not found. The resolution is computed once.
type HTTPRequest struct {
	r        *http.Request
	provider content.Provider
	base     string
	res      *Resolution
}

// NewHTTPRequest wraps r. base is the path the site is mounted under.
func NewHTTPRequest(r *http.Request, base string, provider content.Provider) *HTTPRequest {
	return &HTTPRequest{r: r, base: base, provider: provider}
}

func (h *HTTPRequest) Path() string {
	return h.r.URL.Path
}

func (h *HTTPRequest) BasePath() string {
	return h.base
}

func (h *HTTPRequest) Resolve(ctx context.Context) (Resolution, error) {
	if h.res != nil {
		return *h.res, nil
	}
	res, err := h.resolve(ctx)
	if err != nil {
		return Resolution{}, err
	}
	h.res = &res
	return res, nil
}

func (h *HTTPRequest) resolve(ctx context.Context) (Resolution, error) {
	q := h.r.URL.Query()
	var res Resolution

	if id := queryInt(q.Get("page_id")); id > 0 {
		it, err := h.item(ctx, id, content.TypePage)
		if err != nil {
			return Resolution{}, err
		}
		if !it.IsZero() {
			res.Item = it
			res.Flags |= FlagPage
		}
	}
	if id := queryInt(q.Get("p")); id > 0 && !res.Is(FlagPage) {
		it, err := h.item(ctx, id, content.TypePost)
		if err != nil {
			return Resolution{}, err
		}
		if !it.IsZero() {
			res.Item = it
			res.Flags |= FlagSingle
		}
	}
	if id := queryInt(q.Get("author")); id > 0 {
		res.AuthorID = id
		res.Flags |= FlagAuthor
	}
	if s := strings.TrimSpace(q.Get("s")); s != "" {
		res.Search = s
		res.Flags |= FlagSearch
	}
	if id := queryInt(q.Get("cat")); id > 0 {
		res.CategoryID = id
		res.Flags |= FlagCategory
	}
	if y, m := dateParams(q.Get("m"), q.Get("year"), q.Get("monthnum")); y > 0 {
		res.Year, res.Month = y, m
		res.Flags |= FlagDate
	}
	if tag := strings.TrimSpace(q.Get("tag")); tag != "" {
		res.Tag = tag
		res.Flags |= FlagTag
	}

	if res.Flags == 0 {
		if h.atBase() && !q.Has("page_id") && !q.Has("p") {
			res.Flags = FlagHome
		} else {
			res.Flags = FlagNotFound
		}
	}
	return res, nil
}

// item loads a published item of type typ, or the zero Item.
func (h *HTTPRequest) item(ctx context.Context, id int64, typ string) (content.Item, error) {
	it, err := h.provider.Get(ctx, id)
	if errors.Is(err, content.ErrNotFound) {
		return content.Item{}, nil
	}
	if err != nil {
		return content.Item{}, err
	}
	if it.Type != typ || it.Status != content.StatusPublish {
		return content.Item{}, nil
	}
	return it, nil
}

func (h *HTTPRequest) atBase() bool {
	return strings.TrimRight(h.r.URL.Path, "/") == strings.TrimRight(h.base, "/")
}

func queryInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// dateParams reads m=YYYY[MM[DD]] or year and monthnum.
func dateParams(m, year, month string) (int, int) {
	if len(m) >= 4 {
		y, err := strconv.Atoi(m[:4])
		if err != nil {
			return 0, 0
		}
		mon := 0
		if len(m) >= 6 {
			mon, _ = strconv.Atoi(m[4:6])
		}
		return y, validMonth(mon)
	}
	y, err := strconv.Atoi(year)
	if err != nil || y <= 0 {
		return 0, 0
	}
	mon, _ := strconv.Atoi(month)
	return y, validMonth(mon)
}

func validMonth(m int) int {
	if m < 1 || m > 12 {
		return 0
	}
	return m
}
