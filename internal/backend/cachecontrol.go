package backend

import (
	"fmt"

	"github.com/mbuesch/go-cms/internal/reply"
)

// Cache-Control max-age values per MIME family (§4.4, §4.8): HTML pages are
// revalidated often since edits should show up quickly, images and CSS are
// cached longer since they change rarely, and POST/error responses are
// never cached at all.
const (
	maxAgeHTML  = 10
	maxAgeImage = 3600
	maxAgeCSS   = 600
)

func cacheControlFor(mime string) string {
	switch {
	case mime == "text/html; charset=UTF-8", mime == "application/xhtml+xml; charset=UTF-8":
		return fmt.Sprintf("max-age=%d", maxAgeHTML)
	case mime == "text/css; charset=UTF-8":
		return fmt.Sprintf("max-age=%d", maxAgeCSS)
	case mime == "image/jpeg", mime == "image/png", mime == "image/gif", mime == "image/webp", mime == "image/svg+xml":
		return fmt.Sprintf("max-age=%d", maxAgeImage)
	default:
		return "no-cache"
	}
}

// withCacheControl sets the reply's Cache-Control header per the MIME-based
// policy above. Error replies (any non-200 status) are always no-store,
// overriding the MIME-based policy: an error page must never be served
// stale from a cache.
func withCacheControl(r reply.Reply) reply.Reply {
	if r.ExtraHTTPHeaders == nil {
		r.ExtraHTTPHeaders = make(map[string]string, 1)
	}

	if !r.IsOK() {
		r.ExtraHTTPHeaders["Cache-Control"] = "no-store"

		return r
	}

	r.ExtraHTTPHeaders["Cache-Control"] = cacheControlFor(r.Mime)

	return r
}

// withNoCache forces the reply's Cache-Control to "no-cache" (OK) or
// "no-store" (error), overriding the MIME-based policy: POST responses are
// never cached regardless of what MIME type the form handler returns.
func withNoCache(r reply.Reply) reply.Reply {
	if r.ExtraHTTPHeaders == nil {
		r.ExtraHTTPHeaders = make(map[string]string, 1)
	}

	if !r.IsOK() {
		r.ExtraHTTPHeaders["Cache-Control"] = "no-store"
	} else {
		r.ExtraHTTPHeaders["Cache-Control"] = "no-cache"
	}

	return r
}
