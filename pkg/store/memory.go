package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

// Memory is an in-process store with the same ordering rules as SQL.
// It is safe for concurrent use.
type Memory struct {
	items map[int64]content.Item
	terms map[int64]taxonomy.Term
	links map[int64][]int64 // item id -> term ids
	meta  map[int64]map[string]string
	caps  map[int64]map[string]bool
	mu    sync.RWMutex
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[int64]content.Item),
		terms: make(map[int64]taxonomy.Term),
		links: make(map[int64][]int64),
		meta:  make(map[int64]map[string]string),
		caps:  make(map[int64]map[string]bool),
	}
}

// Seed adds or replaces everything in f.
func (m *Memory) Seed(_ context.Context, f Fixture) error {
	if err := f.normalize(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range f.Terms {
		m.terms[t.ID] = t
	}
	for _, it := range f.Items {
		m.items[it.ID] = it.Item
		m.links[it.ID] = slices.Clone(it.Terms)
		if len(it.Meta) > 0 {
			if m.meta[it.ID] == nil {
				m.meta[it.ID] = make(map[string]string, len(it.Meta))
			}
			for k, v := range it.Meta {
				m.meta[it.ID][k] = v
			}
		}
	}
	for _, c := range f.Capabilities {
		if m.caps[c.UserID] == nil {
			m.caps[c.UserID] = make(map[string]bool)
		}
		m.caps[c.UserID][c.Capability] = true
	}
	return nil
}

// Find filters, orders and pages the stored items.
func (m *Memory) Find(_ context.Context, q content.Query) (content.Cursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []content.Item
	for id, it := range m.items {
		if !q.Matches(it) {
			continue
		}
		if q.Terms != nil && !m.linked(id, q.Terms.IDs) {
			continue
		}
		out = append(out, it)
	}

	slices.SortFunc(out, func(a, b content.Item) int {
		if q.Order == content.OrderMenu {
			return cmp.Or(cmp.Compare(a.MenuOrder, b.MenuOrder), cmp.Compare(a.ID, b.ID))
		}
		return cmp.Or(b.Date.Compare(a.Date), cmp.Compare(b.ID, a.ID))
	})

	if q.Offset > 0 {
		out = out[min(q.Offset, len(out)):]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return content.NewSliceCursor(out), nil
}

func (m *Memory) linked(itemID int64, termIDs []int64) bool {
	for _, id := range m.links[itemID] {
		if slices.Contains(termIDs, id) {
			return true
		}
	}
	return false
}

// Get returns the item with id or content.ErrNotFound.
func (m *Memory) Get(_ context.Context, id int64) (content.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return content.Item{}, content.ErrNotFound
	}
	return it, nil
}

// Terms returns the terms selected by l ordered by name, then id.
func (m *Memory) Terms(_ context.Context, l taxonomy.Lookup) ([]taxonomy.Term, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []taxonomy.Term
	for _, t := range m.terms {
		if t.Taxonomy != l.Taxonomy {
			continue
		}
		switch {
		case l.Parent != nil:
			if t.ParentID != *l.Parent {
				continue
			}
		case l.ID != 0:
			if t.ID != l.ID {
				continue
			}
		default:
			if t.Slug != l.Slug {
				continue
			}
		}
		out = append(out, t)
	}
	sortTerms(out)
	return out, nil
}

// ItemTerms returns the terms of taxonomy attached to itemID.
func (m *Memory) ItemTerms(_ context.Context, itemID int64, tax string) ([]taxonomy.Term, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []taxonomy.Term
	for _, id := range m.links[itemID] {
		if t, ok := m.terms[id]; ok && t.Taxonomy == tax {
			out = append(out, t)
		}
	}
	sortTerms(out)
	return out, nil
}

// Meta returns a custom field value, or "" when unset.
func (m *Memory) Meta(_ context.Context, itemID int64, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta[itemID][key], nil
}

// HasCapability reports whether userID holds capability.
func (m *Memory) HasCapability(_ context.Context, userID int64, capability string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.caps[userID][capability], nil
}

func sortTerms(terms []taxonomy.Term) {
	slices.SortFunc(terms, func(a, b taxonomy.Term) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
}

var (
	_ content.Provider          = (*Memory)(nil)
	_ content.MetaReader        = (*Memory)(nil)
	_ content.CapabilityChecker = (*Memory)(nil)
	_ taxonomy.Store            = (*Memory)(nil)
)
