package internal

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/dmitrymomot/portal/pkg/logger"
	"github.com/dmitrymomot/portal/pkg/slug"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

// Kind is the section of the site a request belongs to.
type Kind string

const (
	KindPage     Kind = "page"
	KindPost     Kind = "post"
	KindAuthor   Kind = "author"
	KindSearch   Kind = "search"
	KindCategory Kind = "category"
	KindDate     Kind = "date"
	KindTag      Kind = "tag"
	KindHome     Kind = "home"
	KindNotFound Kind = "not_found"
	KindNone     Kind = "none"
)

// Zone field keys accepted by Zones.Field.
const (
	ZoneType  = "type"
	ZoneID    = "id"
	ZoneTerms = "terms"
)

// Zone is the normalized classification of a request.
type Zone struct {
	Kind Kind
	// ID is the item, author, category or term id, the search string, the tag
	// slug, or the date as YYYY or YYYYMM.
	ID       string
	Terms    []taxonomy.Term
	Taxonomy string
}

// IntID returns ID as an integer when it is one.
func (z Zone) IntID() (int64, bool) {
	n, err := strconv.ParseInt(z.ID, 10, 64)
	return n, err == nil
}

// Zones classifies the request of one scope, remembering the last result.
// It is not safe for concurrent use.
type Zones struct {
	req      RequestInfo
	resolver *taxonomy.Resolver
	log      *slog.Logger
	metrics  *Metrics
	memo     *Zone
}

// NewZones returns a classifier for req. log and m may be nil.
func NewZones(req RequestInfo, resolver *taxonomy.Resolver, log *slog.Logger, m *Metrics) *Zones {
	if log == nil {
		log = logger.NewNope()
	}
	return &Zones{req: req, resolver: resolver, log: log, metrics: m}
}

// Classify returns the zone of the request with terms from taxonomy ("" means
// category). The result is reused while the same taxonomy is asked for.
func (z *Zones) Classify(ctx context.Context, tax string) (Zone, error) {
	if tax == "" {
		tax = taxonomy.DefaultTaxonomy
	}
	if z.memo != nil && z.memo.Taxonomy == tax {
		return z.memo.clone(), nil
	}

	zone, err := z.classify(ctx, tax)
	if err != nil {
		return Zone{}, err
	}
	if len(zone.Terms) == 1 && !zone.Terms[0].Found() {
		zone.Terms = []taxonomy.Term{}
	}

	z.memo = &zone
	z.metrics.zoneClassified(zone.Kind)
	z.log.DebugContext(ctx, "zone classified",
		slog.String("zone", string(zone.Kind)),
		slog.String("id", zone.ID),
		slog.String("taxonomy", tax),
		slog.Int("terms", len(zone.Terms)),
	)
	return zone.clone(), nil
}

// Field returns one attribute of the classification: type (a Kind), id (a
// string) or terms (a []taxonomy.Term). Other keys fail with ErrKeyNotFound.
func (z *Zones) Field(ctx context.Context, key, tax string) (any, error) {
	switch key {
	case ZoneType, ZoneID, ZoneTerms:
	default:
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}

	zone, err := z.Classify(ctx, tax)
	if err != nil {
		return nil, err
	}
	switch key {
	case ZoneType:
		return zone.Kind, nil
	case ZoneID:
		return zone.ID, nil
	default:
		return zone.Terms, nil
	}
}

func (z *Zones) classify(ctx context.Context, tax string) (Zone, error) {
	res, err := z.req.Resolve(ctx)
	if err != nil {
		return Zone{}, err
	}

	zone := Zone{Kind: KindNone, Taxonomy: tax, Terms: []taxonomy.Term{}}
	one := func(t taxonomy.Term, err error) error {
		zone.Terms = []taxonomy.Term{t}
		return err
	}

	switch {
	case res.Is(FlagPage):
		zone.Kind, zone.ID = KindPage, itoa(res.Item.ID)
		err = one(z.resolver.Term(ctx, tax, res.Item.Name))
	case res.Is(FlagSingle):
		zone.Kind, zone.ID = KindPost, itoa(res.Item.ID)
		var terms []taxonomy.Term
		if terms, err = z.resolver.Store().ItemTerms(ctx, res.Item.ID, tax); terms != nil {
			zone.Terms = terms
		}
	case res.Is(FlagAuthor):
		zone.Kind, zone.ID = KindAuthor, itoa(res.AuthorID)
	case res.Is(FlagSearch):
		zone.Kind, zone.ID = KindSearch, res.Search
		err = one(z.searchTerm(ctx, tax, res.Search))
	case res.Is(FlagCategory):
		zone.Kind, zone.ID = KindCategory, itoa(res.CategoryID)
		err = one(z.resolver.TermByID(ctx, tax, res.CategoryID))
	case res.Is(FlagDate):
		zone.Kind, zone.ID = KindDate, strconv.Itoa(res.Year)
		if res.Month > 0 {
			zone.ID = fmt.Sprintf("%04d%02d", res.Year, res.Month)
		}
	case res.Is(FlagTag):
		zone.Kind, zone.ID = KindTag, res.Tag
		err = one(z.resolver.Term(ctx, taxonomy.TagTaxonomy, res.Tag))
	case res.Is(FlagHome):
		zone.Kind = KindHome
	case res.Is(FlagNotFound):
		zone.Kind = KindNotFound
	}
	if err != nil {
		return Zone{}, err
	}
	return zone, nil
}

// searchTerm matches the search string against term slugs, first verbatim and
// then slugified.
func (z *Zones) searchTerm(ctx context.Context, tax, search string) (taxonomy.Term, error) {
	t, err := z.resolver.Term(ctx, tax, search)
	if err != nil || t.Found() {
		return t, err
	}
	if s := slug.Make(search); s != search {
		return z.resolver.Term(ctx, tax, s)
	}
	return taxonomy.NotFound, nil
}

func (z Zone) clone() Zone {
	z.Terms = slices.Clone(z.Terms)
	return z
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
