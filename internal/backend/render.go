package backend

import (
	"fmt"
	"time"

	"github.com/mbuesch/go-cms/internal/ident"
	"github.com/mbuesch/go-cms/internal/navtree"
	"github.com/mbuesch/go-cms/internal/pagegen"
	"github.com/mbuesch/go-cms/internal/reply"
	"github.com/mbuesch/go-cms/internal/resolver"
)

func protocolFor(https bool) string {
	if https {
		return "https"
	}

	return "http"
}

// renderPage runs the full page-assembly pipeline of §4.4: fetch fields,
// honor redirect/not-found, fetch headers/home/nav tree, run the resolver
// in title-then-data/headers/home order, assemble the final XHTML document.
func (s *Service) renderPage(host string, raw ident.Ident, https bool, q query) reply.Reply {
	id, err := raw.CheckUser()
	if err != nil {
		return reply.BadRequest(fmt.Sprintf("Invalid page path: %s", err))
	}

	fields, err := s.db.GetPage(id, true, true, true, false, true, false, false)
	if err != nil {
		return reply.InternalError(fmt.Sprintf("Failed to fetch page %s: %s", id.Downgrade(), err))
	}

	if fields.Redirect != nil && *fields.Redirect != "" {
		return reply.Redirect(*fields.Redirect)
	}

	comp := ident.URLComponents{Protocol: protocolFor(https), Domain: s.domain, Base: s.urlBase}
	pageURL := id.URL(comp)

	if len(fields.Data) == 0 {
		return reply.NotFound(fmt.Sprintf("Page not found: %s", pageURL))
	}

	headers, err := s.db.GetHeaders(id)
	if err != nil {
		return reply.InternalError(fmt.Sprintf("Failed to fetch headers for %s: %s", id.Downgrade(), err))
	}

	homeName := ident.MustElement("home", false)
	home, err := s.db.GetString(homeName)
	if err != nil {
		return reply.InternalError(fmt.Sprintf("Failed to fetch home string: %s", err))
	}

	nav, err := navtree.Build(s.db, id)
	if err != nil {
		return reply.InternalError(fmt.Sprintf("Failed to build navigation for %s: %s", id.Downgrade(), err))
	}

	ctx := pageContext{
		page:      id,
		protocol:  protocolFor(https),
		domain:    s.domain,
		base:      s.urlBase,
		imagesDir: s.urlBase + "/__images",
		thumbsDir: s.urlBase + "/__thumbs",
		debug:     s.debug,
		q:         q,
	}

	r, vars := newPageResolver(s.db, ctx, nil)

	title := ""
	if fields.Title != nil {
		title = *fields.Title
	}

	titleOut, err := r.Run(title)
	if err != nil {
		return reply.InternalError(s.resolverErrMsg("title", err))
	}
	vars["TITLE"] = resolver.Escape(titleOut)

	dataOut, err := r.Run(string(fields.Data))
	if err != nil {
		return reply.InternalError(s.resolverErrMsg("content", err))
	}

	headersOut, err := r.Run(string(headers))
	if err != nil {
		return reply.InternalError(s.resolverErrMsg("headers", err))
	}

	homeOut, err := r.Run(string(home))
	if err != nil {
		return reply.InternalError(s.resolverErrMsg("home", err))
	}

	if r.SawIndex() {
		indexHTML, err := pagegen.GenerateIndex(r.Anchors())
		if err != nil {
			return reply.InternalError(fmt.Sprintf("Failed to build site index: %s", err))
		}
		dataOut = resolver.Splice(dataOut, indexHTML)
		headersOut = resolver.Splice(headersOut, indexHTML)
		homeOut = resolver.Splice(homeOut, indexHTML)
	}

	stamp := time.Now().UTC()
	if fields.Stamp != nil {
		stamp = time.Unix(int64(*fields.Stamp), 0).UTC() //nolint:gosec // Stamp is a Unix timestamp read from the filesystem
	}

	body := pagegen.Generate(pagegen.Page{
		Title:        titleOut,
		Domain:       s.domain,
		URLBase:      s.urlBase,
		CSSHref:      s.urlBase + "/__css/cms.css",
		SitemapHref:  s.urlBase + "/__sitemap.xml",
		ExtraHeaders: headersOut,
		Nav:          nav,
		Home:         homeOut,
		Body:         dataOut,
		Stamp:        stamp,
		PageURL:      pageURL,
	})

	return reply.OK([]byte(body), "application/xhtml+xml; charset=UTF-8")
}

func (s *Service) resolverErrMsg(field string, err error) string {
	if s.debug {
		return fmt.Sprintf("Failed to resolve %s: %s", field, err)
	}

	return "PageGen failed"
}
