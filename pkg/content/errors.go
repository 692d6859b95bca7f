package content

import "errors"

var (
	// ErrUnknownField is returned when a filter names a field that is not part
	// of the item schema.
	ErrUnknownField = errors.New("content: unknown filter field")

	// ErrInvalidValue is returned when a filter value cannot be converted to the
	// field's type.
	ErrInvalidValue = errors.New("content: invalid filter value")

	// ErrNotFound is returned by providers when an item lookup has no result.
	ErrNotFound = errors.New("content: item not found")
)
