package resolver

import "strings"

// Escape inserts a backslash before each resolver metacharacter
// (backslash, comma, '@', '$', '(', ')') so that text containing them can
// round-trip through the resolver grammar without being reinterpreted.
func Escape(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		if isEscapable(text[i]) {
			b.WriteByte('\\')
		}
		b.WriteByte(text[i])
	}

	return b.String()
}

// Unescape removes one backslash everywhere, preserving the character
// that follows it, the inverse of Escape. A dangling trailing backslash
// is dropped silently.
func Unescape(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		if text[i] == '\\' {
			i++
			if i < len(text) {
				b.WriteByte(text[i])
			}

			continue
		}
		b.WriteByte(text[i])
	}

	return b.String()
}
