package taxonomy

import (
	"context"
	"strconv"
)

// Taxonomy names used by the portal.
const (
	DefaultTaxonomy = "category"
	TagTaxonomy     = "post_tag"
)

// Unlimited disables the depth bound of Resolve.
const Unlimited = -1

// Term is a node of a taxonomy forest.
type Term struct {
	Slug     string `json:"slug" yaml:"slug"`
	Name     string `json:"name" yaml:"name"`
	Taxonomy string `json:"taxonomy" yaml:"taxonomy"`
	ID       int64  `json:"id" yaml:"id"`
	ParentID int64  `json:"parent_id" yaml:"parent_id"`
}

// NotFound is the explicit "no such term" value returned by single-term lookups.
var NotFound = Term{}

// Found reports whether t is a real term rather than NotFound.
func (t Term) Found() bool {
	return t != NotFound
}

// Lookup selects terms of a taxonomy. Exactly one of Slug, Parent or ID is set.
type Lookup struct {
	Parent   *int64
	Taxonomy string
	Slug     string
	ID       int64
}

// BySlug selects the term with the given slug.
func BySlug(taxonomy, slug string) Lookup {
	return Lookup{Taxonomy: taxonomy, Slug: slug}
}

// ByParent selects the direct children of parent. Parent 0 selects the roots.
func ByParent(taxonomy string, parent int64) Lookup {
	return Lookup{Taxonomy: taxonomy, Parent: &parent}
}

// ByID selects the term with the given id.
func ByID(taxonomy string, id int64) Lookup {
	return Lookup{Taxonomy: taxonomy, ID: id}
}

// Validate checks that exactly one selector is set.
func (l Lookup) Validate() error {
	n := 0
	if l.Slug != "" {
		n++
	}
	if l.Parent != nil {
		n++
	}
	if l.ID != 0 {
		n++
	}
	if n != 1 {
		return ErrInvalidLookup
	}
	return nil
}

// Key returns a stable string form of the lookup, suitable as a cache key.
func (l Lookup) Key() string {
	switch {
	case l.Parent != nil:
		return l.Taxonomy + ":parent:" + strconv.FormatInt(*l.Parent, 10)
	case l.ID != 0:
		return l.Taxonomy + ":id:" + strconv.FormatInt(l.ID, 10)
	default:
		return l.Taxonomy + ":slug:" + l.Slug
	}
}

// Store reads terms.
type Store interface {
	// Terms returns the terms selected by l in store order.
	Terms(ctx context.Context, l Lookup) ([]Term, error)

	// ItemTerms returns the terms of taxonomy attached to a content item.
	ItemTerms(ctx context.Context, itemID int64, taxonomy string) ([]Term, error)
}

// IDs returns the ids of terms in order.
func IDs(terms []Term) []int64 {
	ids := make([]int64, 0, len(terms))
	for _, t := range terms {
		ids = append(ids, t.ID)
	}
	return ids
}

// InTerms reports whether a term with the given slug is in terms.
func InTerms(slug string, terms []Term) bool {
	for _, t := range terms {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

// IsNumericRef reports whether ref selects children by parent id. A reference
// is numeric only if formatting its parsed value yields ref again.
func IsNumericRef(ref string) (int64, bool) {
	n, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != ref {
		return 0, false
	}
	return n, true
}
