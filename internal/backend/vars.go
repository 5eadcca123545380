package backend

import (
	"html"
	"strings"

	"github.com/mbuesch/go-cms/internal/dbclient"
	"github.com/mbuesch/go-cms/internal/ident"
	"github.com/mbuesch/go-cms/internal/navtree"
	"github.com/mbuesch/go-cms/internal/pagegen"
	"github.com/mbuesch/go-cms/internal/resolver"
)

// pageContext carries the per-request facts the resolver's standard
// variable environment (§4.6) is built from.
type pageContext struct {
	page      ident.CheckedIdent
	protocol  string
	domain    string
	base      string
	imagesDir string
	thumbsDir string
	debug     bool
	q         query
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}

	return "0"
}

// standardVars builds the fixed, per-request resolver variables named in
// §4.6: PAGEIDENT, CMS_PAGEIDENT, PROTOCOL, GROUP, PAGE, DOMAIN, CMS_BASE,
// IMAGES_DIR, THUMBS_DIR, DEBUG. Every value is run through resolver.Escape
// before being stored, since downstream expansion never re-escapes a
// variable lookup result itself (only statement results get that
// treatment the other way around).
func standardVars(ctx pageContext) map[string]string {
	group := ""
	if first, ok := ctx.page.Downgrade().FirstElement(); ok {
		group = first
	}

	comp := ident.URLComponents{Base: ctx.base}

	return map[string]string{
		"PAGEIDENT":     resolver.Escape(ctx.page.Downgrade().String()),
		"CMS_PAGEIDENT": resolver.Escape(ctx.page.URL(comp)),
		"PROTOCOL":      resolver.Escape(ctx.protocol),
		"GROUP":         resolver.Escape(group),
		"PAGE":          resolver.Escape(ctx.page.Downgrade().String()),
		"DOMAIN":        resolver.Escape(ctx.domain),
		"CMS_BASE":      resolver.Escape(ctx.base),
		"IMAGES_DIR":    resolver.Escape(ctx.imagesDir),
		"THUMBS_DIR":    resolver.Escape(ctx.thumbsDir),
		"DEBUG":         resolver.Escape(boolFlag(ctx.debug)),
	}
}

// queryKeyFromVarName extracts the part of a "Q_foo"/"QRAW_foo" variable
// name after its first underscore, which both the "Q" and "QRAW" prefix
// families use as the actual query-parameter name.
func queryKeyFromVarName(name string) string {
	if idx := strings.IndexByte(name, '_'); idx >= 0 {
		return name[idx+1:]
	}

	return ""
}

// prefixFuncs installs the "Q_"/"QRAW_" query-parameter variable families
// from §4.6: Q_ is HTML-escaped, QRAW_ passes the raw value through. Both
// results are additionally resolver-escaped, same as every other variable.
func prefixFuncs(q query) map[string]func(name string) string {
	return map[string]func(string) string{
		"Q": func(name string) string {
			return resolver.Escape(html.EscapeString(q.get(queryKeyFromVarName(name))))
		},
		"QRAW": func(name string) string {
			return resolver.Escape(q.get(queryKeyFromVarName(name)))
		},
	}
}

// newPageResolver builds a Resolver for ctx.page wired with the standard
// variable environment, the Q_/QRAW_ prefix families, and the "pagelist"
// statement's navigation-subtree callback. extraVars are merged in on top
// of the standard set (used by the error-page flow to add HTTP_STATUS and
// friends). The returned vars map is the live map backing the resolver, so
// callers may mutate it (e.g. to register TITLE once known) between
// sequential Run calls on the same Resolver instance.
func newPageResolver(db *dbclient.Client, ctx pageContext, extraVars map[string]string) (*resolver.Resolver, map[string]string) {
	vars := standardVars(ctx)
	for k, v := range extraVars {
		vars[k] = v
	}

	r := resolver.New(db, ctx.page, vars, ctx.debug)
	r.SetPrefixFuncs(prefixFuncs(ctx.q))
	r.SetPagelistFunc(func(base string) (string, error) {
		baseID, err := ident.Parse(base).Cleaned().CheckUser()
		if err != nil {
			return "", nil //nolint:nilerr // an invalid pagelist base simply renders nothing
		}

		nodes, err := navtree.BuildSubtree(db, baseID, ctx.page)
		if err != nil {
			return "", err
		}

		return pagegen.RenderNav(nodes, 1, ctx.base), nil
	})

	return r, vars
}
