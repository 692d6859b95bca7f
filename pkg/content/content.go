package content

import (
	"context"
	"time"
)

// Item types known to the loop engine.
const (
	TypePost       = "post"
	TypePage       = "page"
	TypeAttachment = "attachment"
)

// Item statuses. StatusAny disables status filtering.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusInherit = "inherit"
	StatusAny     = ""
)

// Item is a single content record: a post, a page or an attachment.
type Item struct {
	Date      time.Time `json:"date" yaml:"date"`
	Name      string    `json:"name" yaml:"name"`
	Title     string    `json:"title" yaml:"title"`
	Type      string    `json:"type" yaml:"type"`
	Status    string    `json:"status" yaml:"status"`
	Content   string    `json:"content,omitempty" yaml:"content"`
	Excerpt   string    `json:"excerpt,omitempty" yaml:"excerpt"`
	MimeType  string    `json:"mime_type,omitempty" yaml:"mime_type"`
	FileKey   string    `json:"file_key,omitempty" yaml:"file_key"`
	ID        int64     `json:"id" yaml:"id"`
	ParentID  int64     `json:"parent_id,omitempty" yaml:"parent_id"`
	AuthorID  int64     `json:"author_id,omitempty" yaml:"author_id"`
	MenuOrder int       `json:"menu_order,omitempty" yaml:"menu_order"`
}

// IsZero reports whether the item is the zero value.
func (it Item) IsZero() bool {
	return it.ID == 0 && it.Name == "" && it.Type == ""
}

// Provider executes content queries.
type Provider interface {
	// Find returns a cursor over the items matching q.
	Find(ctx context.Context, q Query) (Cursor, error)

	// Get returns a single item by id or ErrNotFound.
	Get(ctx context.Context, id int64) (Item, error)
}

// MetaReader reads custom fields attached to items.
type MetaReader interface {
	// Meta returns the value stored under key for the item, or "" when unset.
	Meta(ctx context.Context, itemID int64, key string) (string, error)
}

// CapabilityChecker answers boolean capability questions about users.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, userID int64, capability string) (bool, error)
}

// Cursor is a forward-only iterator over query results.
type Cursor interface {
	// HasNext reports whether Next would return an item.
	HasNext() bool

	// Next returns the next item. It returns the zero Item once exhausted.
	Next() Item

	// Close releases resources held by the cursor. Close is idempotent.
	Close() error
}

// SliceCursor iterates over a materialized result set.
type SliceCursor struct {
	items []Item
	pos   int
}

// NewSliceCursor wraps items in a Cursor. The slice is not copied.
func NewSliceCursor(items []Item) *SliceCursor {
	return &SliceCursor{items: items}
}

// HasNext reports whether items remain.
func (c *SliceCursor) HasNext() bool {
	return c.pos < len(c.items)
}

// Next returns the next item or the zero Item when exhausted.
func (c *SliceCursor) Next() Item {
	if !c.HasNext() {
		return Item{}
	}
	it := c.items[c.pos]
	c.pos++
	return it
}

// Len returns the total number of items in the result set.
func (c *SliceCursor) Len() int {
	return len(c.items)
}

// Close is a no-op.
func (c *SliceCursor) Close() error {
	return nil
}

var _ Cursor = (*SliceCursor)(nil)
