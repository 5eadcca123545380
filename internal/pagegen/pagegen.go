// Package pagegen assembles the final XHTML page from a resolved body,
// the navigation tree, and the site's fixed page skeleton: XML prolog,
// DOCTYPE, head block, title bar, navigation bar, and footer.
package pagegen

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/mbuesch/go-cms/internal/ident"
	"github.com/mbuesch/go-cms/internal/navtree"
	"github.com/mbuesch/go-cms/internal/resolver"
)

// Page carries everything the generator needs to assemble one page.
type Page struct {
	Title        string
	Domain       string
	URLBase      string
	CSSHref      string
	SitemapHref  string
	ExtraHeaders string
	Nav          []*navtree.Node
	Home         string
	Body         string
	Stamp        time.Time
	GeneratorTag string
	// PageURL is the full absolute URL of the page being rendered
	// (protocol + domain + path), used only for the W3C validator links.
	PageURL string
}

const defaultHTMLAlloc = 1024 * 64

// footerStampLayout renders the page's stamp as "%A %d %B %Y %H:%M" per
// the spec's footer format, in Go's reference-time layout syntax.
const footerStampLayout = "Monday 02 January 2006 15:04"

func makeIndent(indent int) string {
	const maxIndent = 64
	if indent > maxIndent {
		indent = maxIndent
	}

	return strings.Repeat("  ", indent)
}

// Generate renders the complete XHTML document for p.
func Generate(p Page) string {
	var b strings.Builder
	b.Grow(defaultHTMLAlloc)

	writeHTML(&b, p)

	return b.String()
}

func writeHTML(b *strings.Builder, p Page) {
	fmt.Fprint(b, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprint(b, `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" `+
		`"http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">`+"\n")
	fmt.Fprint(b, `<html xmlns="http://www.w3.org/1999/xhtml" lang="en" xml:lang="en">`+"\n")

	writeHead(b, p)
	writeBody(b, p)

	fmt.Fprint(b, "</html>\n")
}

func writeHead(b *strings.Builder, p Page) {
	generatorTag := p.GeneratorTag
	if generatorTag == "" {
		generatorTag = "go-cms"
	}

	fmt.Fprint(b, "<head>\n")
	fmt.Fprintf(b, "  <!-- Generated by %s -->\n", html.EscapeString(generatorTag))
	fmt.Fprintf(b, `  <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />`+"\n")
	fmt.Fprintf(b, `  <meta name="date" content="%s" />`+"\n", p.Stamp.UTC().Format("2006-01-02T15:04:05Z"))
	fmt.Fprint(b, `  <meta name="robots" content="all" />`+"\n")
	fmt.Fprintf(b, "  <title>%s</title>\n", html.EscapeString(p.Title))

	if p.CSSHref != "" {
		fmt.Fprintf(b, `  <link rel="stylesheet" type="text/css" href="%s" />`+"\n", html.EscapeString(p.CSSHref))
	}
	if p.SitemapHref != "" {
		fmt.Fprintf(b, `  <link rel="sitemap" type="application/xml" href="%s" />`+"\n", html.EscapeString(p.SitemapHref))
	}

	if p.ExtraHeaders != "" {
		for _, line := range strings.Split(strings.TrimRight(p.ExtraHeaders, "\n"), "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	fmt.Fprint(b, "</head>\n")
}

func writeBody(b *strings.Builder, p Page) {
	fmt.Fprint(b, "<body>\n")

	fmt.Fprint(b, `  <div class="titlebar">`+"\n")
	fmt.Fprint(b, `    <div class="logo">`+"\n")
	fmt.Fprintf(b, "      <a href=\"%s\">\n", html.EscapeString(p.URLBase))
	fmt.Fprintf(b, "        <img alt=\"logo\" src=\"%s/__images/logo.png\" />\n", html.EscapeString(p.URLBase))
	fmt.Fprint(b, "      </a>\n")
	fmt.Fprint(b, "    </div>\n")
	fmt.Fprintf(b, "    <div class=\"title\">%s</div>\n", html.EscapeString(p.Title))
	fmt.Fprint(b, "  </div>\n")

	if p.Home != "" {
		fmt.Fprint(b, `  <div class="navhome">`+"\n")
		b.WriteString(p.Home)
		b.WriteByte('\n')
		fmt.Fprint(b, "  </div>\n")
	}

	b.WriteString(RenderNav(p.Nav, 1, p.URLBase))

	fmt.Fprint(b, `  <div class="main">`+"\n")
	fmt.Fprint(b, "  <!-- BEGIN CONTENT -->\n")
	b.WriteString(p.Body)
	b.WriteByte('\n')
	fmt.Fprint(b, "  <!-- END CONTENT -->\n")
	fmt.Fprint(b, "  </div>\n")

	fmt.Fprintf(b, `  <div class="footer">Updated: %s</div>`+"\n", p.Stamp.UTC().Format(footerStampLayout))
	writeValidatorBlock(b, p.PageURL)

	fmt.Fprint(b, "</body>\n")
}

// writeValidatorBlock emits links to the W3C HTML and CSS validators,
// pre-filled with the page's own full URL, component-encoded.
func writeValidatorBlock(b *strings.Builder, pageURL string) {
	encoded := url.QueryEscape(pageURL)

	fmt.Fprint(b, `  <div class="valid">`+"\n")
	fmt.Fprintf(b, `    <a href="https://validator.w3.org/check?uri=%s">Valid XHTML 1.0</a>`+"\n", encoded)
	fmt.Fprintf(b, `    <a href="https://jigsaw.w3.org/css-validator/validator?uri=%s">Valid CSS</a>`+"\n", encoded)
	fmt.Fprint(b, "  </div>\n")
}

// RenderNav renders nodes as a navigation bar starting at the given
// indent level, with links rooted under base. It is used both for the
// page's own navigation bar and, wrapped at indent 1, for the "pagelist"
// statement's rendered subtree — the HTML shape is identical in both cases.
func RenderNav(nodes []*navtree.Node, indent int, base string) string {
	if len(nodes) == 0 {
		return ""
	}

	var b strings.Builder

	pad := makeIndent(indent)
	fmt.Fprintf(&b, "%s<div class=\"navbar\">\n", pad)

	comp := ident.URLComponents{Base: base}
	for _, n := range nodes {
		writeNavElem(&b, n, indent+1, comp)
	}

	fmt.Fprintf(&b, "%s</div>\n", pad)

	return b.String()
}

func writeNavElem(b *strings.Builder, n *navtree.Node, indent int, comp ident.URLComponents) {
	pad := makeIndent(indent)

	class := "navelem"
	if n.Active {
		class = "navelem navactive"
	}

	fmt.Fprintf(b, "%s<div class=\"%s\">\n", pad, class)
	fmt.Fprintf(b, "%s  <a href=\"%s\">%s</a>\n", pad, html.EscapeString(n.ID.URL(comp)), html.EscapeString(n.Label))

	if len(n.Children) > 0 {
		fmt.Fprintf(b, "%s  <div class=\"navgroup\">\n", pad)
		for _, c := range n.Children {
			writeNavElem(b, c, indent+2, comp)
		}
		fmt.Fprintf(b, "%s  </div>\n", pad)
	}

	fmt.Fprintf(b, "%s</div>\n", pad)
}

// maxIndexIndent is the largest indent level generate_index tolerates;
// beyond it the entry is almost certainly a runaway macro rather than a
// deliberately deep outline, so it is rejected instead of silently
// building an enormous list.
const maxIndexIndent = 1024

// GenerateIndex walks anchors in emission order and builds the nested
// "<ul><li>...</li></ul>" site-index block the "index" statement's
// placeholder is spliced with. Entries with NoIndex set or empty text are
// skipped; an indent beyond maxIndexIndent is rejected.
func GenerateIndex(anchors []resolver.AnchorEntry) (string, error) {
	var filtered []resolver.AnchorEntry
	for _, a := range anchors {
		if a.NoIndex || strings.TrimSpace(a.Text) == "" {
			continue
		}
		if a.Indent > maxIndexIndent {
			return "", fmt.Errorf("pagegen: anchor %q indent %d exceeds maximum of %d", a.Name, a.Indent, maxIndexIndent)
		}
		if a.Indent < 0 {
			a.Indent = 0
		}
		filtered = append(filtered, a)
	}

	if len(filtered) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("<ul>")

	depth := 0
	liOpen := []bool{false}

	for _, a := range filtered {
		for depth < a.Indent {
			if !liOpen[depth] {
				b.WriteString("<li>")
				liOpen[depth] = true
			}
			b.WriteString("<ul>")
			depth++
			liOpen = append(liOpen, false)
		}
		for depth > a.Indent {
			if liOpen[depth] {
				b.WriteString("</li>")
			}
			b.WriteString("</ul>")
			liOpen = liOpen[:depth]
			depth--
		}

		if liOpen[depth] {
			b.WriteString("</li>")
		}
		fmt.Fprintf(&b, `<li><a href="#%s">%s</a>`, html.EscapeString(a.Name), html.EscapeString(a.Text))
		liOpen[depth] = true
	}

	for depth > 0 {
		if liOpen[depth] {
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
		liOpen = liOpen[:depth]
		depth--
	}
	if liOpen[0] {
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")

	return b.String(), nil
}
