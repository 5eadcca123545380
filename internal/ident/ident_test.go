package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaned(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trims slashes", "/foo/bar/", "foo/bar"},
		{"trims whitespace", "  foo  ", "foo"},
		{"index.html to root", "index.html", ""},
		{"index.php to root", "index.php", ""},
		{"strips html suffix", "foo/bar.html", "foo/bar"},
		{"strips php suffix", "foo/bar.php", "foo/bar"},
		{"nested index not collapsed", "foo/index.html", "foo/index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in).Cleaned().String()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckUser(t *testing.T) {
	valid := []string{"", "foo", "foo/bar", "foo-bar_baz.qux", "a/b/c"}
	for _, s := range valid {
		_, err := Parse(s).CheckUser()
		assert.NoErrorf(t, err, "expected %q to be valid", s)
	}

	invalid := []string{
		"foo bar",
		"foo/../bar",
		"foo//bar",
		"__system",
		"foo/__system",
		".hidden",
		"foo$bar",
	}
	for _, s := range invalid {
		_, err := Parse(s).CheckUser()
		assert.Errorf(t, err, "expected %q to be invalid", s)
		assert.ErrorIs(t, err, ErrInvalid)
	}
}

func TestCheckSystemAllowsDunder(t *testing.T) {
	_, err := Parse("__macros/foo").CheckSystem()
	assert.NoError(t, err)

	_, err = Parse("__macros/foo").CheckUser()
	assert.Error(t, err)
}

func TestCheckUserTooLong(t *testing.T) {
	long := make([]byte, maxIdentStrLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Parse(string(long)).CheckUser()
	assert.Error(t, err)
}

func TestCheckUserTooDeep(t *testing.T) {
	s := ""
	for i := 0; i < maxIdentDepth+1; i++ {
		if s != "" {
			s += "/"
		}
		s += "a"
	}
	_, err := Parse(s).CheckUser()
	assert.Error(t, err)
}

func TestAsElement(t *testing.T) {
	_, err := Parse("foo").AsElement()
	require.NoError(t, err)

	_, err = Parse("foo/bar").AsElement()
	assert.Error(t, err, "multi-element path should not validate as single element")

	_, err = Parse("__foo").AsElement()
	assert.Error(t, err)

	_, err = Parse("__foo").AsSystemElement()
	assert.NoError(t, err)

	_, err = Parse("").AsElement()
	assert.Error(t, err, "the empty identifier is not a single element")
}

func TestToFsPath(t *testing.T) {
	id, err := Parse("foo/bar").CheckUser()
	require.NoError(t, err)

	assert.Equal(t, "/pages/foo/bar", id.ToFsPath("/pages", TailNone()))

	macros := MustElement("__macros", true)
	name := MustElement("baz", false)
	assert.Equal(t, "/pages/foo/bar/__macros/baz", id.ToFsPath("/pages", TailTwo(macros, name)))
}

func TestToStrippedFsPath(t *testing.T) {
	id, err := Parse("a/b/c").CheckUser()
	require.NoError(t, err)

	p, err := id.ToStrippedFsPath("/pages", StripRight(1), TailNone())
	require.NoError(t, err)
	assert.Equal(t, "/pages/a/b", p)

	p, err = id.ToStrippedFsPath("/pages", StripRight(3), TailNone())
	require.NoError(t, err)
	assert.Equal(t, "/pages", p)

	_, err = id.ToStrippedFsPath("/pages", StripRight(4), TailNone())
	assert.Error(t, err, "stripping more elements than exist must fail")
}

func TestURL(t *testing.T) {
	id, err := Parse("foo/bar").CheckUser()
	require.NoError(t, err)

	assert.Equal(t, "/foo/bar.html", id.URL(URLComponents{Base: "/"}))
	assert.Equal(t, "https://example.com/foo/bar.html",
		id.URL(URLComponents{Protocol: "https", Domain: "example.com", Base: "/"}))

	assert.Equal(t, "/", Root.URL(URLComponents{Base: "/"}))
}

func TestStartsWith(t *testing.T) {
	a := Parse("foo/bar/baz")
	b := Parse("foo/bar")
	c := Parse("foo/qux")

	assert.True(t, a.StartsWith(b))
	assert.False(t, a.StartsWith(c))
	assert.True(t, a.StartsWith(Parse("")))
}

func TestElementAccessors(t *testing.T) {
	id := Parse("foo/bar/baz")

	first, ok := id.FirstElement()
	require.True(t, ok)
	assert.Equal(t, "foo", first)

	last, ok := id.LastElement()
	require.True(t, ok)
	assert.Equal(t, "baz", last)

	nth, ok := id.NthElement(1)
	require.True(t, ok)
	assert.Equal(t, "bar", nth)

	_, ok = id.NthElement(5)
	assert.False(t, ok)

	assert.Equal(t, 3, id.ElementCount())
	assert.Equal(t, 0, Parse("").ElementCount())
}
