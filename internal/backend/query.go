package backend

import (
	"net/url"
	"strconv"
)

// query wraps a parsed query string, used both by the "Q_"/"QRAW_"
// resolver variable-prefix family (§4.6) and by the "__thumbs" endpoint's
// w/h/q parameters (§4.4).
type query struct {
	values url.Values
}

// parseQuery parses a raw CGI QUERY_STRING. A malformed string yields an
// empty query rather than an error: an unparseable query parameter is
// simply unavailable, not a request-level failure.
func parseQuery(raw string) query {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return query{values: url.Values{}}
	}

	return query{values: values}
}

// get returns the first value of name, or "" if absent.
func (q query) get(name string) string {
	return q.values.Get(name)
}

// intOrDefault parses name as a base-10 integer, clamped to [min, max],
// falling back to def if absent or unparseable.
func (q query) intOrDefault(name string, def, minV, maxV int) int {
	raw := q.values.Get(name)
	if raw == "" {
		return def
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}

	return clampInt(n, minV, maxV)
}

func clampInt(n, minV, maxV int) int {
	if n < minV {
		return minV
	}
	if n > maxV {
		return maxV
	}

	return n
}
