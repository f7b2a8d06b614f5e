package sanitize

import (
	"strings"
	"unicode"
)

// Sanitize maps a name onto the engine's accepted identifier charset:
// letters, digits, '_', '-', '.'. Whitespace becomes '_', anything else is
// dropped, runs of '_' collapse, and leading/trailing separators are
// trimmed. Pure and deterministic: the same input always yields the same
// output, which install and rename flows rely on for stable ids.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '.':
			b.WriteRune(r)
		case r == '_' || unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_-.")
}

// NeedsSanitization is the fast pre-check: true when Sanitize would
// change the name.
func NeedsSanitization(name string) bool {
	return name != Sanitize(name)
}
