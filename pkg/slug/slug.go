package slug

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters without a canonical decomposition.
var ligatures = strings.NewReplacer(
	"ß", "s", "ẞ", "S",
	"æ", "a", "Æ", "A",
	"œ", "o", "Œ", "O",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "Th",
)

// Make returns the slug of s.
func Make(s string, opts ...Option) string {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.strip != "" {
		s = strings.Map(func(r rune) rune {
			if strings.ContainsRune(o.strip, r) {
				return -1
			}
			return r
		}, s)
	}
	if len(o.replace) > 0 {
		// Longest keys first so overlapping replacements are deterministic.
		keys := slices.SortedFunc(maps.Keys(o.replace), func(a, b string) int {
			return len(b) - len(a)
		})
		pairs := make([]string, 0, len(keys)*2)
		for _, k := range keys {
			pairs = append(pairs, k, " "+o.replace[k]+" ")
		}
		s = strings.NewReplacer(pairs...).Replace(s)
	}

	s = fold(s)
	if o.lowercase {
		s = strings.ToLower(s)
	}

	out := strings.Join(words(s), o.separator)

	if o.maxLength > 0 {
		if r := []rune(out); len(r) > o.maxLength {
			out = string(r[:o.maxLength])
			if o.separator != "" {
				for strings.HasSuffix(out, o.separator) {
					out = strings.TrimSuffix(out, o.separator)
				}
			}
		}
	}
	return out
}

// fold strips combining marks so "é" becomes "e".
func fold(s string) string {
	s = ligatures.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// words splits s into runs of ASCII letters and digits.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
}
