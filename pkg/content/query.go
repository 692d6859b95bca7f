package content

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Filter is the template-facing description of a loop: field name to scalar
// equality value. Reserved keys (category, page, ...) are interpreted by the
// loop engine before the remaining keys reach Compile.
type Filter map[string]any

// Clone returns a shallow copy of the filter.
func (f Filter) Clone() Filter {
	if f == nil {
		return Filter{}
	}
	return maps.Clone(f)
}

// Item fields addressable from filters.
const (
	FieldID       = "ID"
	FieldName     = "post_name"
	FieldTitle    = "post_title"
	FieldType     = "post_type"
	FieldStatus   = "post_status"
	FieldParent   = "post_parent"
	FieldAuthor   = "post_author"
	FieldOrder    = "menu_order"
	FieldMimeType = "post_mime_type"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
)

var fields = map[string]fieldKind{
	FieldID:       kindInt,
	FieldName:     kindString,
	FieldTitle:    kindString,
	FieldType:     kindString,
	FieldStatus:   kindString,
	FieldParent:   kindInt,
	FieldAuthor:   kindInt,
	FieldOrder:    kindInt,
	FieldMimeType: kindString,
}

// IsField reports whether name is a filterable item field.
func IsField(name string) bool {
	_, ok := fields[name]
	return ok
}

// Operator is a condition comparison.
type Operator int

const (
	// OpEqual matches items whose field equals the value.
	OpEqual Operator = iota
	// OpContains matches string fields containing the value, case-insensitively.
	OpContains
)

func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpContains:
		return "contains"
	default:
		return "unknown"
	}
}

// Condition restricts a single item field.
type Condition struct {
	Value any
	Field string
	Op    Operator
}

// Matches reports whether it satisfies the condition.
func (c Condition) Matches(it Item) bool {
	v := it.field(c.Field)
	switch c.Op {
	case OpContains:
		s, ok := v.(string)
		want, _ := c.Value.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(want))
	default:
		return v == c.Value
	}
}

// Order selects the result ordering.
type Order int

const (
	// OrderNewest sorts by publication date, newest first, then id descending.
	OrderNewest Order = iota
	// OrderMenu sorts by menu order, then id ascending.
	OrderMenu
)

// TermFilter restricts results to items attached to any of the listed terms.
// An empty ID list matches nothing.
type TermFilter struct {
	Taxonomy string
	IDs      []int64
}

// Query is the provider-native form of a loop filter.
type Query struct {
	// Terms is nil when no term restriction applies.
	Terms      *TermFilter
	Conditions []Condition
	Order      Order
	// Limit caps the number of results; zero means unlimited.
	Limit  int
	Offset int
}

// Set adds an equality condition, replacing any existing condition on field.
func (q *Query) Set(field string, value any) {
	q.set(Condition{Field: field, Op: OpEqual, Value: value})
}

// SetContains adds a substring condition, replacing any existing condition on field.
func (q *Query) SetContains(field, value string) {
	q.set(Condition{Field: field, Op: OpContains, Value: value})
}

func (q *Query) set(c Condition) {
	for i := range q.Conditions {
		if q.Conditions[i].Field == c.Field {
			q.Conditions[i] = c
			return
		}
	}
	q.Conditions = append(q.Conditions, c)
}

// Unset removes any condition on field.
func (q *Query) Unset(field string) {
	q.Conditions = slices.DeleteFunc(q.Conditions, func(c Condition) bool {
		return c.Field == field
	})
}

// Value returns the value of the condition on field, if any.
func (q Query) Value(field string) (any, bool) {
	for _, c := range q.Conditions {
		if c.Field == field {
			return c.Value, true
		}
	}
	return nil, false
}

// Matches reports whether it satisfies every condition of the query.
// Term restrictions are not evaluated here.
func (q Query) Matches(it Item) bool {
	for _, c := range q.Conditions {
		if !c.Matches(it) {
			return false
		}
	}
	return true
}

// Compile converts a filter without reserved keys into a query of equality
// conditions. Keys are processed in sorted order so the result is stable.
func Compile(f Filter) (Query, error) {
	var q Query
	for _, key := range slices.Sorted(maps.Keys(f)) {
		v, err := Normalize(key, f[key])
		if err != nil {
			return Query{}, err
		}
		q.Set(key, v)
	}
	return q, nil
}

// Normalize converts v to the Go type used for field: int64 for numeric
// fields and string otherwise.
func Normalize(field string, v any) (any, error) {
	kind, ok := fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	switch kind {
	case kindInt:
		n, err := toInt64(v)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("%w: %s=%v", ErrInvalidValue, field, v), err)
		}
		return n, nil
	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case fmt.Stringer:
			return s.String(), nil
		case int, int32, int64, uint, uint32, uint64:
			return fmt.Sprint(s), nil
		default:
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidValue, field, v)
		}
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func (it Item) field(name string) any {
	switch name {
	case FieldID:
		return it.ID
	case FieldName:
		return it.Name
	case FieldTitle:
		return it.Title
	case FieldType:
		return it.Type
	case FieldStatus:
		return it.Status
	case FieldParent:
		return it.ParentID
	case FieldAuthor:
		return it.AuthorID
	case FieldOrder:
		return int64(it.MenuOrder)
	case FieldMimeType:
		return it.MimeType
	default:
		return nil
	}
}
