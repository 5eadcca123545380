// Package sitemap renders the sitemap.xml document listing every visible
// page in the tree plus any user-supplied extra URLs.
package sitemap

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mbuesch/go-cms/internal/dbclient"
	"github.com/mbuesch/go-cms/internal/ident"
)

// MaxDepth bounds the sitemap walk the same way navtree.MaxDepth bounds
// the navigation-tree walk.
const MaxDepth = 64

// DBClient is the subset of dbclient.Client the sitemap walker needs.
type DBClient interface {
	GetSubPages(id ident.CheckedIdent) ([]dbclient.SubPageInfo, error)
	GetPage(id ident.CheckedIdent, wantTitle, wantData, wantStamp, wantPrio, wantRedirect, wantNavStop, wantNavLabel bool) (dbclient.PageFields, error)
}

type URLEntry struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
	Priority   string   `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string      `xml:"xmlns,attr"`
	URLs    []URLEntry `xml:"url"`
}

// mainGroupDepth is the "main group" depth named in spec §4.5: entries at
// this depth get a fixed changefreq/priority instead of a lastmod.
const mainGroupDepth = 1

// entryForDepth fills in the changefreq/priority/lastmod fields of a url
// entry per §4.5's per-depth rule: the main group (depth 1) is weighted
// lower and re-crawled monthly regardless of its stamp; every other depth
// carries its actual lastmod at a flat priority.
func entryForDepth(depth int, stamp *uint64) (lastMod, changeFreq, priority string) {
	if depth == mainGroupDepth {
		return "", "monthly", "0.3"
	}

	if stamp != nil && *stamp > 0 {
		lastMod = time.Unix(int64(*stamp), 0).UTC().Format("2006-01-02") //nolint:gosec // Stamp is a Unix timestamp read from the filesystem
	}

	return lastMod, "", "0.7"
}

// ParseUserEntries parses the "site-map" string resource: one
// "loc [priority [changefreq]]" per non-blank, non-"#"-comment line. loc is
// joined with comp to form an absolute URL.
func ParseUserEntries(siteMap string, comp ident.URLComponents) []URLEntry {
	var entries []URLEntry

	scanner := bufio.NewScanner(strings.NewReader(siteMap))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		entry := URLEntry{Loc: joinLoc(comp, fields[0])}
		if len(fields) >= 2 {
			if _, err := strconv.ParseFloat(fields[1], 64); err == nil {
				entry.Priority = fields[1]
			}
		}
		if len(fields) >= 3 {
			entry.ChangeFreq = fields[2]
		}

		entries = append(entries, entry)
	}

	return entries
}

func joinLoc(comp ident.URLComponents, loc string) string {
	if strings.Contains(loc, "://") {
		return loc
	}

	protocol := comp.Protocol
	if protocol == "" {
		protocol = "https"
	}

	return protocol + "://" + comp.Domain + loc
}

// Generate renders the complete sitemap.xml body. userEntries are
// extra, already-built entries (typically sourced via ParseUserEntries
// from the global "site-map" string resource) appended after the
// auto-generated page tree.
func Generate(client DBClient, comp ident.URLComponents, userEntries []URLEntry) ([]byte, error) {
	var entries []URLEntry

	if err := walk(client, ident.Root, comp, 0, &entries); err != nil {
		return nil, err
	}

	entries = append(entries, userEntries...)

	set := urlSet{
		Xmlns: "https://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  entries,
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sitemap: marshal: %w", err)
	}

	return append([]byte(xml.Header), out...), nil
}

func walk(client DBClient, parent ident.CheckedIdent, comp ident.URLComponents, depth int, out *[]URLEntry) error {
	if depth >= MaxDepth {
		return fmt.Errorf("sitemap: max depth %d exceeded at %s", MaxDepth, parent.Downgrade())
	}

	fields, err := client.GetPage(parent, false, false, true, false, false, true, false)
	if err != nil {
		return fmt.Errorf("sitemap: fields of %s: %w", parent.Downgrade(), err)
	}

	lastMod, changeFreq, priority := entryForDepth(depth, fields.Stamp)
	*out = append(*out, URLEntry{
		Loc:        parent.URL(comp),
		LastMod:    lastMod,
		ChangeFreq: changeFreq,
		Priority:   priority,
	})

	if fields.NavStop != nil && *fields.NavStop {
		return nil
	}

	subs, err := client.GetSubPages(parent)
	if err != nil {
		return fmt.Errorf("sitemap: subpages of %s: %w", parent.Downgrade(), err)
	}

	for _, sub := range subs {
		elem, err := ident.Parse(sub.Name).AsElement()
		if err != nil {
			continue
		}
		childID, err := parent.Downgrade().CloneAppend(elem.Downgrade().String()).CheckUser()
		if err != nil {
			continue
		}

		if err := walk(client, childID, comp, depth+1, out); err != nil {
			return err
		}
	}

	return nil
}
