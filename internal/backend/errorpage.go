package backend

import (
	"fmt"

	"github.com/mbuesch/go-cms/internal/ident"
	"github.com/mbuesch/go-cms/internal/pagegen"
	"github.com/mbuesch/go-cms/internal/reply"
	"github.com/mbuesch/go-cms/internal/resolver"
)

// errorPageStringName is the global string resource holding the error
// page's body template, run through the resolver like any ordinary page.
var errorPageStringName = ident.MustElement("http-error-page", false)

// errGroup and errPage are the fixed GROUP/PAGE variable values used while
// rendering an error page, since there is no real page identity to use.
const (
	errGroup = "_error_"
	errPage  = "_error_"
)

// buildErrorPage implements §4.8: a non-200 reply gets its message
// stripped (500s, outside debug mode), then is re-rendered through the
// "http-error-page" global string with HTTP_STATUS/ERROR_MESSAGE variables
// in scope. If the template is missing or empty, or its render fails, the
// stripped reply is returned as it is rather than cascading into a second
// failure.
func (s *Service) buildErrorPage(r reply.Reply) reply.Reply {
	stripped := r.StripDebugMessage(s.debug)

	tmpl, err := s.db.GetString(errorPageStringName)
	if err != nil || len(tmpl) == 0 {
		return stripped
	}

	errorMessage := stripped.ErrMsg

	extraVars := map[string]string{
		"HTTP_STATUS":      resolver.Escape(stripped.Status.String()),
		"HTTP_STATUS_CODE": resolver.Escape(fmt.Sprintf("%d", uint32(stripped.Status))),
		"ERROR_MESSAGE":    resolver.Escape(errorMessage),
		"GROUP":            resolver.Escape(errGroup),
		"PAGE":             resolver.Escape(errPage),
		"TITLE":            resolver.Escape(stripped.Status.String()),
		"BR":               "<br />",
	}

	ctx := pageContext{
		page:     ident.Root,
		protocol: "http",
		domain:   s.domain,
		base:     s.urlBase,
		debug:    s.debug,
	}

	r2, _ := newPageResolver(s.db, ctx, extraVars)

	bodyOut, err := r2.Run(string(tmpl))
	if err != nil {
		return stripped
	}

	if r2.SawIndex() {
		indexHTML, err := pagegen.GenerateIndex(r2.Anchors())
		if err == nil {
			bodyOut = resolver.Splice(bodyOut, indexHTML)
		}
	}

	page := pagegen.Generate(pagegen.Page{
		Title:   stripped.Status.String(),
		Domain:  s.domain,
		URLBase: s.urlBase,
		CSSHref: s.urlBase + "/__css/cms.css",
		Body:    bodyOut,
	})

	stripped.Body = []byte(page)
	stripped.Mime = "text/html; charset=UTF-8"

	return stripped
}
