package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/db"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

const itemColumns = `id, name, title, type, status, parent_id, author_id, published_at, content, excerpt, menu_order, mime_type, file_key`

var columns = map[string]string{
	content.FieldID:       "id",
	content.FieldName:     "name",
	content.FieldTitle:    "title",
	content.FieldType:     "type",
	content.FieldStatus:   "status",
	content.FieldParent:   "parent_id",
	content.FieldAuthor:   "author_id",
	content.FieldOrder:    "menu_order",
	content.FieldMimeType: "mime_type",
}

// SQL is a database/sql backed store.
type SQL struct {
	conn         *sql.DB
	placeholders sq.PlaceholderFormat
	driver       string
}

// NewSQL returns a store using conn. driver is db.DriverPostgres or db.DriverSQLite.
func NewSQL(conn *sql.DB, driver string) *SQL {
	if driver == "" {
		driver = db.DriverSQLite
	}
	var placeholders sq.PlaceholderFormat = sq.Question
	if driver == db.DriverPostgres {
		placeholders = sq.Dollar
	}
	return &SQL{conn: conn, driver: driver, placeholders: placeholders}
}

// Migrate applies the embedded schema migrations.
func (s *SQL) Migrate(ctx context.Context, table string, log *slog.Logger) error {
	fsys, err := Migrations(s.driver)
	if err != nil {
		return err
	}
	return db.Migrate(ctx, s.conn, s.driver, fsys, table, log)
}

// Find runs q and returns the materialized result set.
func (s *SQL) Find(ctx context.Context, q content.Query) (content.Cursor, error) {
	var b builder
	b.write(`SELECT ` + itemColumns + ` FROM items WHERE 1 = 1`)

	for _, c := range q.Conditions {
		col, ok := columns[c.Field]
		if !ok {
			return nil, errors.Join(ErrQueryFailed, content.ErrUnknownField, errors.New(c.Field))
		}
		switch c.Op {
		case content.OpContains:
			v, _ := c.Value.(string)
			b.write(` AND LOWER(` + col + `) LIKE ? ESCAPE '\'`)
			b.arg("%" + escapeLike(strings.ToLower(v)) + "%")
		default:
			b.write(` AND ` + col + ` = ?`)
			b.arg(c.Value)
		}
	}

	if q.Terms != nil {
		if len(q.Terms.IDs) == 0 {
			b.write(` AND 1 = 0`)
		} else {
			b.write(` AND EXISTS (SELECT 1 FROM item_terms it WHERE it.item_id = items.id AND it.term_id IN (`)
			for i, id := range q.Terms.IDs {
				if i > 0 {
					b.write(`, `)
				}
				b.write(`?`)
				b.arg(id)
			}
			b.write(`))`)
		}
	}

	switch q.Order {
	case content.OrderMenu:
		b.write(` ORDER BY menu_order ASC, id ASC`)
	default:
		b.write(` ORDER BY published_at DESC, id DESC`)
	}

	switch {
	case q.Limit > 0:
		b.write(` LIMIT ?`)
		b.arg(q.Limit)
	case q.Offset > 0 && s.driver == db.DriverSQLite:
		b.write(` LIMIT -1`)
	}
	if q.Offset > 0 {
		b.write(` OFFSET ?`)
		b.arg(q.Offset)
	}

	rows, err := s.query(ctx, &b)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var items []content.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return content.NewSliceCursor(items), nil
}

// Get returns the item with id or content.ErrNotFound.
func (s *SQL) Get(ctx context.Context, id int64) (content.Item, error) {
	var b builder
	b.write(`SELECT ` + itemColumns + ` FROM items WHERE id = ?`)
	b.arg(id)

	row, err := s.row(ctx, &b)
	if err != nil {
		return content.Item{}, errors.Join(ErrQueryFailed, err)
	}
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Item{}, content.ErrNotFound
	}
	if err != nil {
		return content.Item{}, errors.Join(ErrQueryFailed, err)
	}
	return it, nil
}

// Terms returns the terms selected by l ordered by name, then id.
func (s *SQL) Terms(ctx context.Context, l taxonomy.Lookup) ([]taxonomy.Term, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	var b builder
	b.write(`SELECT id, slug, name, parent_id, taxonomy FROM terms WHERE taxonomy = ?`)
	b.arg(l.Taxonomy)
	switch {
	case l.Parent != nil:
		b.write(` AND parent_id = ?`)
		b.arg(*l.Parent)
	case l.ID != 0:
		b.write(` AND id = ?`)
		b.arg(l.ID)
	default:
		b.write(` AND slug = ?`)
		b.arg(l.Slug)
	}
	b.write(` ORDER BY name ASC, id ASC`)

	return s.queryTerms(ctx, &b)
}

// ItemTerms returns the terms of taxonomy attached to itemID.
func (s *SQL) ItemTerms(ctx context.Context, itemID int64, tax string) ([]taxonomy.Term, error) {
	var b builder
	b.write(`SELECT t.id, t.slug, t.name, t.parent_id, t.taxonomy FROM terms t
		JOIN item_terms it ON it.term_id = t.id
		WHERE it.item_id = ? AND t.taxonomy = ? ORDER BY t.name ASC, t.id ASC`)
	b.arg(itemID)
	b.arg(tax)

	return s.queryTerms(ctx, &b)
}

func (s *SQL) queryTerms(ctx context.Context, b *builder) ([]taxonomy.Term, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var terms []taxonomy.Term
	for rows.Next() {
		var t taxonomy.Term
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.ParentID, &t.Taxonomy); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return terms, nil
}

// Meta returns a custom field value, or "" when unset.
func (s *SQL) Meta(ctx context.Context, itemID int64, key string) (string, error) {
	var b builder
	b.write(`SELECT meta_value FROM item_meta WHERE item_id = ? AND meta_key = ?`)
	b.arg(itemID)
	b.arg(key)

	var v string
	row, err := s.row(ctx, &b)
	if err == nil {
		err = row.Scan(&v)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Join(ErrQueryFailed, err)
	}
	return v, nil
}

// HasCapability reports whether userID holds capability.
func (s *SQL) HasCapability(ctx context.Context, userID int64, capability string) (bool, error) {
	var b builder
	b.write(`SELECT COUNT(*) FROM user_capabilities WHERE user_id = ? AND capability = ?`)
	b.arg(userID)
	b.arg(capability)

	var n int
	row, err := s.row(ctx, &b)
	if err == nil {
		err = row.Scan(&n)
	}
	if err != nil {
		return false, errors.Join(ErrQueryFailed, err)
	}
	return n > 0, nil
}

// Seed inserts or replaces everything in f in a single transaction.
func (s *SQL) Seed(ctx context.Context, f Fixture) error {
	if err := f.normalize(); err != nil {
		return err
	}

	err := db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		for _, t := range f.Terms {
			if err := s.exec(ctx, tx, `INSERT INTO terms (id, taxonomy, slug, name, parent_id) VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET taxonomy = excluded.taxonomy, slug = excluded.slug, name = excluded.name, parent_id = excluded.parent_id`,
				t.ID, t.Taxonomy, t.Slug, t.Name, t.ParentID); err != nil {
				return err
			}
		}
		for _, it := range f.Items {
			if err := s.exec(ctx, tx, `INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET name = excluded.name, title = excluded.title, type = excluded.type,
					status = excluded.status, parent_id = excluded.parent_id, author_id = excluded.author_id,
					published_at = excluded.published_at, content = excluded.content, excerpt = excluded.excerpt,
					menu_order = excluded.menu_order, mime_type = excluded.mime_type, file_key = excluded.file_key`,
				it.ID, it.Name, it.Title, it.Type, it.Status, it.ParentID, it.AuthorID, unix(it.Date),
				it.Content, it.Excerpt, it.MenuOrder, it.MimeType, it.FileKey); err != nil {
				return err
			}
			if err := s.exec(ctx, tx, `DELETE FROM item_terms WHERE item_id = ?`, it.ID); err != nil {
				return err
			}
			for _, termID := range it.Terms {
				if err := s.exec(ctx, tx, `INSERT INTO item_terms (item_id, term_id) VALUES (?, ?)`, it.ID, termID); err != nil {
					return err
				}
			}
			for k, v := range it.Meta {
				if err := s.exec(ctx, tx, `INSERT INTO item_meta (item_id, meta_key, meta_value) VALUES (?, ?, ?)
					ON CONFLICT (item_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value`, it.ID, k, v); err != nil {
					return err
				}
			}
		}
		for _, c := range f.Capabilities {
			if err := s.exec(ctx, tx, `INSERT INTO user_capabilities (user_id, capability) VALUES (?, ?)
				ON CONFLICT DO NOTHING`, c.UserID, c.Capability); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrSeedFailed, err)
	}
	return nil
}

func (s *SQL) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	query, err := s.placeholders.ReplacePlaceholders(query)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (s *SQL) query(ctx context.Context, b *builder) (*sql.Rows, error) {
	query, err := s.placeholders.ReplacePlaceholders(b.buf.String())
	if err != nil {
		return nil, err
	}
	return s.conn.QueryContext(ctx, query, b.args...)
}

func (s *SQL) row(ctx context.Context, b *builder) (*sql.Row, error) {
	query, err := s.placeholders.ReplacePlaceholders(b.buf.String())
	if err != nil {
		return nil, err
	}
	return s.conn.QueryRowContext(ctx, query, b.args...), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (content.Item, error) {
	var (
		it        content.Item
		published int64
	)
	err := row.Scan(&it.ID, &it.Name, &it.Title, &it.Type, &it.Status, &it.ParentID, &it.AuthorID,
		&published, &it.Content, &it.Excerpt, &it.MenuOrder, &it.MimeType, &it.FileKey)
	if err != nil {
		return content.Item{}, err
	}
	if published != 0 {
		it.Date = time.Unix(published, 0).UTC()
	}
	return it, nil
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// builder accumulates a query written with "?" placeholders. The store
// rewrites them for its driver.
type builder struct {
	buf  strings.Builder
	args []any
}

func (b *builder) write(s string) { b.buf.WriteString(s) }

func (b *builder) arg(v any) { b.args = append(b.args, v) }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var (
	_ content.Provider          = (*SQL)(nil)
	_ content.MetaReader        = (*SQL)(nil)
	_ content.CapabilityChecker = (*SQL)(nil)
	_ taxonomy.Store            = (*SQL)(nil)
)
