// Package backend implements the P-BACK render service (§4.4): it turns a
// CGI-shaped request (host, path, query string, optional POST body) into a
// reply.Reply by dispatching to the page renderer or one of the built-in
// "__" system endpoints (thumbnails, raw images, the global CSS string, the
// sitemap), then routing non-200 results through the error-page builder.
package backend

import (
	"fmt"

	"github.com/mbuesch/go-cms/internal/dbclient"
	"github.com/mbuesch/go-cms/internal/ident"
	"github.com/mbuesch/go-cms/internal/postclient"
	"github.com/mbuesch/go-cms/internal/reply"
	"github.com/mbuesch/go-cms/internal/sitemap"
)

// Service holds everything the render pipeline needs: the database and
// POST-runner clients, and the site-wide constants (domain, URL base,
// debug flag) that flow into every resolver variable environment.
type Service struct {
	db      *dbclient.Client
	post    *postclient.Client
	domain  string
	urlBase string
	debug   bool
}

// NewService builds a Service. post may be nil: the POST-runner
// collaborator is optional, and a request to a "post.py" path is answered
// with a 500 if no POST-runner was configured.
func NewService(db *dbclient.Client, post *postclient.Client, domain, urlBase string, debug bool) *Service {
	return &Service{db: db, post: post, domain: domain, urlBase: urlBase, debug: debug}
}

const (
	elemThumbs     = "__thumbs"
	elemImages     = "__images"
	elemSitemap    = "__sitemap"
	elemSitemapXML = "__sitemap.xml"
	elemCSS        = "__css"
	cssFile        = "cms.css"
	postHandler    = "post.py"
)

// Get handles one GET request, dispatching on the cleaned path's shape
// before falling through to the page renderer.
func (s *Service) Get(host, path string, https bool, rawQuery string) reply.Reply {
	r := s.dispatch(host, path, https, rawQuery)

	return s.finish(r)
}

// Post handles one form submission: body is the raw multipart payload,
// contentType its Content-Type header value (including boundary).
func (s *Service) Post(host, path string, https bool, rawQuery string, body []byte, contentType string) reply.Reply {
	r := s.dispatchPost(path, rawQuery, body, contentType)

	if r.ErrorPageRequired() {
		r = s.buildErrorPage(r)
	}

	return withNoCache(r)
}

// finish applies the error-page pass and the cache-control policy (§4.4,
// §4.8) that every GET reply must go through.
func (s *Service) finish(r reply.Reply) reply.Reply {
	if r.ErrorPageRequired() {
		r = s.buildErrorPage(r)
	}

	return withCacheControl(r)
}

func (s *Service) dispatch(host, path string, https bool, rawQuery string) reply.Reply {
	id := ident.Parse(path).Cleaned()
	q := parseQuery(rawQuery)

	count := id.ElementCount()
	first, _ := id.FirstElement()

	switch {
	case first == elemThumbs && count == 2:
		return s.getThumb(id, q)
	case first == elemImages && count == 2:
		return s.getImage(id)
	case count == 1 && (first == elemSitemap || first == elemSitemapXML):
		return s.getSitemap(host, https)
	case first == elemCSS && count == 2:
		if second, _ := id.NthElement(1); second == cssFile {
			return s.getCSS()
		}

		return reply.NotFound(fmt.Sprintf("Not found: %s", path))
	default:
		return s.renderPage(host, id, https, q)
	}
}

func (s *Service) dispatchPost(path, rawQuery string, body []byte, contentType string) reply.Reply {
	id, err := ident.Parse(path).Cleaned().CloneAppend(postHandler).CheckUser()
	if err != nil {
		return reply.BadRequest(fmt.Sprintf("Invalid POST path: %s", err))
	}

	formFields, err := parseFormFields(body, contentType)
	if err != nil {
		return reply.BadRequest(fmt.Sprintf("Failed to parse form data: %s", err))
	}

	if s.post == nil {
		return reply.InternalError("No POST handler configured")
	}

	q := parseQuery(rawQuery)
	query := make(map[string][]byte, len(q.values))
	for k, vs := range q.values {
		if len(vs) > 0 {
			query[k] = []byte(vs[0])
		}
	}

	result, err := s.post.Run(id, query, formFields)
	if err != nil {
		return reply.InternalError(fmt.Sprintf("POST handler failed: %s", err))
	}

	return reply.OK(result.Body, result.Mime)
}

func (s *Service) getThumb(id ident.Ident, q query) reply.Reply {
	name, _ := id.NthElement(1)
	elem, err := ident.Parse(name).AsElement()
	if err != nil {
		return reply.BadRequest(fmt.Sprintf("Invalid image name: %s", err))
	}

	raw, err := s.db.GetImage(elem)
	if err != nil {
		return reply.InternalError(fmt.Sprintf("Failed to fetch image %s: %s", name, err))
	}
	if len(raw) == 0 {
		return reply.NotFound(fmt.Sprintf("Image not found: %s", name))
	}

	width := q.intOrDefault("w", defaultThumbSize, 0, maxThumbSize)
	height := q.intOrDefault("h", defaultThumbSize, 0, maxThumbSize)
	qualityIdx := q.intOrDefault("q", 0, 0, len(jpegQualities)-1)

	thumb, err := thumbnail(raw, width, height, qualityIdx)
	if err != nil {
		return reply.InternalError(fmt.Sprintf("Failed to build thumbnail of %s: %s", name, err))
	}

	return reply.OK(thumb, "image/jpeg")
}

func (s *Service) getImage(id ident.Ident) reply.Reply {
	name, _ := id.NthElement(1)
	elem, err := ident.Parse(name).AsElement()
	if err != nil {
		return reply.BadRequest(fmt.Sprintf("Invalid image name: %s", err))
	}

	raw, err := s.db.GetImage(elem)
	if err != nil {
		return reply.InternalError(fmt.Sprintf("Failed to fetch image %s: %s", name, err))
	}
	if len(raw) == 0 {
		return reply.NotFound(fmt.Sprintf("Image not found: %s", name))
	}

	if isSVG(raw) {
		return reply.OK(raw, "image/svg+xml")
	}

	mime := detectImageMime(raw)
	if mime == "" {
		return reply.NotFound(fmt.Sprintf("Image %s is not a recognized format", name))
	}

	return reply.OK(raw, mime)
}

// getCSS serves the global "css" string resource; the URL path element
// ("cms.css") is just the stable public file name it is exposed under.
func (s *Service) getCSS() reply.Reply {
	name := ident.MustElement("css", false)

	raw, err := s.db.GetString(name)
	if err != nil {
		return reply.InternalError(fmt.Sprintf("Failed to fetch cms.css: %s", err))
	}
	if len(raw) == 0 {
		return reply.NotFound("cms.css not found")
	}

	return reply.OK(raw, "text/css; charset=UTF-8")
}

func (s *Service) getSitemap(host string, https bool) reply.Reply {
	protocol := protocolFor(https)
	comp := ident.URLComponents{Protocol: protocol, Domain: s.domain, Base: s.urlBase}

	var userEntries []sitemap.URLEntry

	siteMapName, err := ident.Parse("site-map").AsElement()
	if err == nil {
		if raw, err := s.db.GetString(siteMapName); err == nil && len(raw) > 0 {
			userEntries = sitemap.ParseUserEntries(string(raw), comp)
		}
	}

	body, err := sitemap.Generate(s.db, comp, userEntries)
	if err != nil {
		return reply.InternalError(fmt.Sprintf("Failed to build sitemap: %s", err))
	}

	return reply.OK(body, "application/xml; charset=UTF-8")
}
