// Package slug turns arbitrary text into URL-safe slugs.
//
// Latin diacritics are folded to ASCII, everything that is not an ASCII letter
// or digit becomes a word boundary, and words are joined by a separator:
//
//	slug.Make("Café & Restaurant")               // "cafe-restaurant"
//	slug.Make("München straße")                  // "munchen-strase"
//	slug.Make("Product Name", slug.Separator("_")) // "product_name"
//
// The portal uses it to match free-form search strings against term slugs and
// to derive missing slugs when seeding content.
//
// Options:
//
//   - MaxLength(n) truncates to n runes and drops a dangling separator.
//   - Separator(s) sets the word separator (default "-").
//   - Lowercase(b) toggles case folding (default true).
//   - StripChars(s) removes the listed characters before splitting.
//   - CustomReplace(m) applies replacements before splitting.
//
// Scripts without an ASCII decomposition (Cyrillic, CJK) are treated as separators.
package slug
