package resolver

import (
	"strings"
	"testing"
)

func FuzzEscapeUnescapeRoundTrip(f *testing.F) {
	f.Add("")
	f.Add("plain text")
	f.Add(`@$(),\`)
	f.Add("mixed \\, text $VAR @macro(a,b)")

	f.Fuzz(func(t *testing.T, text string) {
		escaped := Escape(text)
		if got := Unescape(escaped); got != text {
			t.Fatalf("round trip mismatch: %q -> %q -> %q", text, escaped, got)
		}

		// Triple composition must also be the identity.
		triple := Unescape(Unescape(Unescape(Escape(Escape(Escape(text))))))
		if triple != text {
			t.Fatalf("triple round trip mismatch: %q -> %q", text, triple)
		}

		// Escaped text must never contain an unescaped metacharacter.
		for i := 0; i < len(escaped); i++ {
			if isEscapable(escaped[i]) && escaped[i] != '\\' {
				if i == 0 || escaped[i-1] != '\\' {
					t.Fatalf("unescaped metacharacter %q in %q", escaped[i], escaped)
				}
			}
		}
	})
}

func FuzzRunNeverPanics(f *testing.F) {
	f.Add("hello")
	f.Add("$(if x,a,b)")
	f.Add("$(substr hello,1,4)")
	f.Add("@m(a,b,c)")
	f.Add("<!--- comment --->")
	f.Add("\\$ \\( \\)")
	f.Add(strings.Repeat("$(strip ", 64))

	f.Fuzz(func(t *testing.T, text string) {
		r := newResolver(map[string]string{"TITLE": "t"})
		// Errors are fine (bad syntax, depth caps); panics are not.
		_, _ = r.Run(text)
	})
}
