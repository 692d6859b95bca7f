package taxonomy

import "errors"

// ErrInvalidLookup is returned by stores when a Lookup sets none or more than
// one selector.
var ErrInvalidLookup = errors.New("taxonomy: lookup must set exactly one of slug, parent or id")
