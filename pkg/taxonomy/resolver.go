package taxonomy

import (
	"context"
)

// ResolveOption configures a single Resolve call.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	taxonomy string
	depth    int
}

func defaultResolveOptions() *resolveOptions {
	return &resolveOptions{
		taxonomy: DefaultTaxonomy,
		depth:    Unlimited,
	}
}

// WithDepth bounds how many levels below the direct matches are expanded.
// Depth 0 returns only the direct matches. Negative means unlimited.
// Default: Unlimited.
func WithDepth(depth int) ResolveOption {
	return func(o *resolveOptions) {
		o.depth = depth
	}
}

// WithTaxonomy selects the taxonomy to resolve in.
// Default: "category".
func WithTaxonomy(taxonomy string) ResolveOption {
	return func(o *resolveOptions) {
		if taxonomy != "" {
			o.taxonomy = taxonomy
		}
	}
}

// Resolver expands term references into ordered term lists.
type Resolver struct {
	store Store
}

// NewResolver returns a resolver reading from store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Store returns the underlying term store.
func (r *Resolver) Store() Store {
	return r.store
}

// Resolve returns the terms selected by ref and all their descendants in
// pre-order. An empty ref yields an empty result without touching the store.
// Store errors are returned unchanged.
//
// No cycle detection is done: with an unlimited depth the store must hold a forest.
func (r *Resolver) Resolve(ctx context.Context, ref string, opts ...ResolveOption) ([]Term, error) {
	o := defaultResolveOptions()
	for _, opt := range opts {
		opt(o)
	}

	if ref == "" {
		return []Term{}, nil
	}

	var l Lookup
	if id, ok := IsNumericRef(ref); ok {
		l = ByParent(o.taxonomy, id)
	} else {
		l = BySlug(o.taxonomy, ref)
	}

	out := []Term{}
	if err := r.walk(ctx, l, o.taxonomy, o.depth, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) walk(ctx context.Context, l Lookup, taxonomy string, depth int, out *[]Term) error {
	matches, err := r.store.Terms(ctx, l)
	if err != nil {
		return err
	}
	for _, t := range matches {
		*out = append(*out, t)
		if depth == 0 {
			continue
		}
		next := depth - 1
		if depth < 0 {
			next = Unlimited
		}
		if err := r.walk(ctx, ByParent(taxonomy, t.ID), taxonomy, next, out); err != nil {
			return err
		}
	}
	return nil
}

// IsChildOf reports whether child is parent itself or one of its descendants.
// Both are slugs.
func (r *Resolver) IsChildOf(ctx context.Context, child, parent string, opts ...ResolveOption) (bool, error) {
	if child == "" || parent == "" {
		return false, nil
	}
	terms, err := r.Resolve(ctx, parent, opts...)
	if err != nil {
		return false, err
	}
	return InTerms(child, terms), nil
}

// Term returns the single term with the given slug, or NotFound.
func (r *Resolver) Term(ctx context.Context, taxonomy, slug string) (Term, error) {
	if slug == "" {
		return NotFound, nil
	}
	terms, err := r.store.Terms(ctx, BySlug(taxonomy, slug))
	if err != nil {
		return NotFound, err
	}
	if len(terms) == 0 {
		return NotFound, nil
	}
	return terms[0], nil
}

// TermByID returns the term with the given id, or NotFound.
func (r *Resolver) TermByID(ctx context.Context, taxonomy string, id int64) (Term, error) {
	if id == 0 {
		return NotFound, nil
	}
	terms, err := r.store.Terms(ctx, ByID(taxonomy, id))
	if err != nil {
		return NotFound, err
	}
	if len(terms) == 0 {
		return NotFound, nil
	}
	return terms[0], nil
}
