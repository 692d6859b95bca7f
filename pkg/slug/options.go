package slug

// Option configures Make.
type Option func(*options)

type options struct {
	replace   map[string]string
	separator string
	strip     string
	maxLength int
	lowercase bool
}

func defaultOptions() *options {
	return &options{
		separator: "-",
		lowercase: true,
	}
}

// MaxLength limits the slug to n runes. Zero disables the limit.
func MaxLength(n int) Option {
	return func(o *options) {
		o.maxLength = n
	}
}

// Separator sets the string placed between words.
func Separator(s string) Option {
	return func(o *options) {
		o.separator = s
	}
}

// Lowercase controls case folding.
func Lowercase(b bool) Option {
	return func(o *options) {
		o.lowercase = b
	}
}

// StripChars removes every character of chars from the input.
func StripChars(chars string) Option {
	return func(o *options) {
		o.strip = chars
	}
}

// CustomReplace replaces each key of m with its value before splitting.
func CustomReplace(m map[string]string) Option {
	return func(o *options) {
		o.replace = m
	}
}
