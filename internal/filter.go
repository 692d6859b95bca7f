package internal

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

// Reserved filter keys rewritten by the loop engine. Every other key must name
// an item field and becomes an equality condition.
const (
	KeyCategory = "category"
	KeyTag      = "tag"
	KeyPage     = "page"
	KeyName     = "name"
	KeyOffset   = "offset"
)

// statusAny disables the status condition when given as post_status.
const statusAny = "any"

// compose turns a loop filter into a provider query. Keys that cannot be
// interpreted are dropped with a warning rather than failing the loop.
func (l *Loops) compose(ctx context.Context, flavor Flavor, filter content.Filter, limit int) (content.Query, error) {
	f := filter.Clone()
	q := content.Query{Limit: max(limit, 0)}

	switch flavor {
	case FlavorAttachment:
		q.Set(content.FieldType, content.TypeAttachment)
		q.Order = content.OrderMenu
		if v, ok := take(f, KeyName); ok {
			q.SetContains(content.FieldTitle, str(v))
		}
		if _, ok := f[content.FieldParent]; !ok {
			id := l.ambient.Current().ID()
			if id == 0 {
				return content.Query{}, ErrMissingParent
			}
			q.Set(content.FieldParent, id)
		}
	default:
		q.Set(content.FieldType, content.TypePost)
		q.Set(content.FieldStatus, content.StatusPublish)
		q.Order = content.OrderNewest
		if v, ok := take(f, KeyPage); ok {
			q.Set(content.FieldType, content.TypePage)
			q.Set(content.FieldName, str(v))
		}
		if v, ok := take(f, KeyName); ok {
			q.Set(content.FieldName, str(v))
		}
	}

	if v, ok := take(f, KeyCategory); ok {
		terms, err := l.resolver.Resolve(ctx, str(v), taxonomy.WithTaxonomy(taxonomy.DefaultTaxonomy))
		if err != nil {
			return content.Query{}, err
		}
		q.Terms = &content.TermFilter{Taxonomy: taxonomy.DefaultTaxonomy, IDs: taxonomy.IDs(terms)}
	}
	if v, ok := take(f, KeyTag); ok && q.Terms == nil {
		terms, err := l.resolver.Resolve(ctx, str(v), taxonomy.WithTaxonomy(taxonomy.TagTaxonomy), taxonomy.WithDepth(0))
		if err != nil {
			return content.Query{}, err
		}
		q.Terms = &content.TermFilter{Taxonomy: taxonomy.TagTaxonomy, IDs: taxonomy.IDs(terms)}
	}
	if v, ok := take(f, KeyOffset); ok {
		n, err := strconv.Atoi(strings.TrimSpace(str(v)))
		if err != nil || n < 0 {
			l.log.WarnContext(ctx, "ignoring invalid loop offset", slog.Any("offset", v))
		} else {
			q.Offset = n
		}
	}

	for _, key := range slices.Sorted(maps.Keys(f)) {
		if key == content.FieldStatus && str(f[key]) == statusAny {
			q.Unset(content.FieldStatus)
			continue
		}
		v, err := content.Normalize(key, f[key])
		if err != nil {
			l.log.WarnContext(ctx, "ignoring loop filter key",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		q.Set(key, v)
	}
	return q, nil
}

func take(f content.Filter, key string) (any, bool) {
	v, ok := f[key]
	if ok {
		delete(f, key)
	}
	return v, ok
}

func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
