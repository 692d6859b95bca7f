// Package taxonomy models hierarchical terms (categories, tags) and resolves a
// term reference into the term plus all of its descendants.
//
// A reference is either a slug ("news"), meaning the term with that slug and its
// subtree, or a numeric id ("12"), meaning the children of that parent and their
// subtrees. The string is numeric only when it round-trips through integer
// parsing unchanged, so "012" and "+1" are slugs.
//
//	r := taxonomy.NewResolver(store)
//	terms, err := r.Resolve(ctx, "news", taxonomy.WithDepth(2))
//
// Results are in pre-order: every term precedes its children and siblings keep
// the order returned by the [Store]. The resolver never caches; wrap the store
// with [NewCachedStore] to share lookups across requests.
package taxonomy
