package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryGet(t *testing.T) {
	q := parseQuery("foo=bar&baz=qux")
	assert.Equal(t, "bar", q.get("foo"))
	assert.Equal(t, "qux", q.get("baz"))
	assert.Equal(t, "", q.get("missing"))
}

func TestQueryIntOrDefaultClamps(t *testing.T) {
	q := parseQuery("w=999999&h=-5&bad=notanumber")
	assert.Equal(t, 65536, q.intOrDefault("w", 300, 0, 65536))
	assert.Equal(t, 0, q.intOrDefault("h", 300, 0, 65536))
	assert.Equal(t, 300, q.intOrDefault("bad", 300, 0, 65536))
	assert.Equal(t, 300, q.intOrDefault("absent", 300, 0, 65536))
}

func TestParseQueryMalformedYieldsEmpty(t *testing.T) {
	q := parseQuery("%zz")
	assert.Equal(t, "", q.get("anything"))
}
