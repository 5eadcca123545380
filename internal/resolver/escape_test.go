package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain text",
		`needs \ escaping`,
		"has @ $ ( ) , chars",
		`a\b`,
		`trailing backslash\`,
	}

	for _, c := range cases {
		escaped := Escape(Escape(Escape(c)))
		got := Unescape(Unescape(Unescape(escaped)))
		assert.Equal(t, c, got, "round trip for %q", c)
	}
}

func TestEscapeInsertsBackslash(t *testing.T) {
	assert.Equal(t, `\@\$\(\)\,\\`, Escape(`@$(),\`))
}

func TestUnescapeDropsTrailingBackslash(t *testing.T) {
	assert.Equal(t, "abc", Unescape(`abc\`))
}
