// Package fsdb implements the page database service's storage layer: a
// filesystem-backed tree of pages, macros, strings and images, an
// in-memory LRU cache in front of it, and an fsnotify-driven invalidation
// loop that clears the cache whenever the tree changes on disk.
package fsdb

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mbuesch/go-cms/internal/ident"
)

// Default field values used when the corresponding file is absent.
const (
	DefaultPrio  uint64 = 500
	DefaultStamp uint64 = 0
)

var elemMacros = ident.MustElement("__macros", true)

// PageInfo describes one subpage entry as returned by GetSubPages.
type PageInfo struct {
	Name     string
	NavLabel string
	NavStop  bool
	Stamp    uint64
	Prio     uint64
}

// FSIntf is the low-level, uncached filesystem interface onto the page
// tree. Every method returns an empty or default value (not an error)
// when the backing file or directory does not exist (DefaultStamp and
// DefaultPrio for the stamp and priority getters), matching the CMS's
// forgiving-by-default read semantics; only malformed existing data or
// I/O failures produce an error.
type FSIntf struct {
	pagesDir   string
	macrosDir  string
	stringsDir string
	imagesDir  string
}

// New validates that path contains the required pages/, macros/ and
// strings/ subdirectories and returns an FSIntf rooted there. images/ is
// optional and its absence is not an error.
func New(path string) (*FSIntf, error) {
	f := &FSIntf{
		pagesDir:   filepath.Join(path, "pages"),
		macrosDir:  filepath.Join(path, "macros"),
		stringsDir: filepath.Join(path, "strings"),
		imagesDir:  filepath.Join(path, "images"),
	}

	for _, dir := range []string{f.pagesDir, f.macrosDir, f.stringsDir} {
		fi, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("fsdb: required directory %s: %w", dir, err)
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("fsdb: %s is not a directory", dir)
		}
	}

	return f, nil
}

// Roots returns the four top-level directories this FSIntf watches, for
// registering fsnotify watches.
func (f *FSIntf) Roots() []string {
	return []string{f.pagesDir, f.macrosDir, f.stringsDir, f.imagesDir}
}

func readFileOrEmpty(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("fsdb: read %s: %w", path, err)
	}

	return b, nil
}

func readStringTrimmed(path string) (string, error) {
	b, err := readFileOrEmpty(path)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

// parseNumber parses a decimal integer, or a "0x"/"0X"-prefixed
// hexadecimal integer, as found in priority and nav_stop files.
func parseNumber(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(rest, 16, 64)
	}
	if rest, ok := strings.CutPrefix(s, "0X"); ok {
		return strconv.ParseUint(rest, 16, 64)
	}

	return strconv.ParseUint(s, 10, 64)
}

func readU64OrDefault(path string, def uint64) (uint64, error) {
	s, err := readStringTrimmed(path)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return def, nil
	}

	n, err := parseNumber(s)
	if err != nil {
		return 0, fmt.Errorf("fsdb: parse number in %s: %w", path, err)
	}

	return n, nil
}

func readBoolOrDefault(path string, def bool) (bool, error) {
	s, err := readStringTrimmed(path)
	if err != nil {
		return false, err
	}
	if s == "" {
		return def, nil
	}

	n, err := parseNumber(s)
	if err != nil {
		return false, fmt.Errorf("fsdb: parse bool in %s: %w", path, err)
	}

	return n != 0, nil
}

func fileNonEmpty(path string) bool {
	fi, err := os.Stat(path)

	return err == nil && fi.Size() > 0
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// GetPage returns the raw, unresolved content.html text of id, or nil if absent.
func (f *FSIntf) GetPage(id ident.CheckedIdent) ([]byte, error) {
	return readFileOrEmpty(id.ToFsPath(f.pagesDir, ident.TailOne(ident.MustElement("content.html", false))))
}

// GetPageRedirect returns the page's redirect target, or "" if none.
func (f *FSIntf) GetPageRedirect(id ident.CheckedIdent) (string, error) {
	return readStringTrimmed(id.ToFsPath(f.pagesDir, ident.TailOne(ident.MustElement("redirect", false))))
}

// GetPageTitle returns the page's title, falling back to its nav_label
// when no title file is present.
func (f *FSIntf) GetPageTitle(id ident.CheckedIdent) (string, error) {
	title, err := readStringTrimmed(id.ToFsPath(f.pagesDir, ident.TailOne(ident.MustElement("title", false))))
	if err != nil {
		return "", err
	}
	if title != "" {
		return title, nil
	}

	return f.GetPageNavLabel(id)
}

// GetPageStamp returns the last-modified time of content.html, or
// DefaultStamp if the page has no content file.
func (f *FSIntf) GetPageStamp(id ident.CheckedIdent) (uint64, error) {
	path := id.ToFsPath(f.pagesDir, ident.TailOne(ident.MustElement("content.html", false)))

	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultStamp, nil
		}

		return 0, fmt.Errorf("fsdb: stat %s: %w", path, err)
	}

	return uint64(fi.ModTime().Unix()), nil //nolint:gosec // Unix timestamps fit in uint64 until year 292277026596
}

// GetPagePrio returns the page's nav-sort priority, DefaultPrio if unset.
func (f *FSIntf) GetPagePrio(id ident.CheckedIdent) (uint64, error) {
	return readU64OrDefault(id.ToFsPath(f.pagesDir, ident.TailOne(ident.MustElement("priority", false))), DefaultPrio)
}

// GetPageNavStop reports whether subpage navigation should stop at id.
func (f *FSIntf) GetPageNavStop(id ident.CheckedIdent) (bool, error) {
	return readBoolOrDefault(id.ToFsPath(f.pagesDir, ident.TailOne(ident.MustElement("nav_stop", false))), false)
}

// GetPageNavLabel returns the page's navigation label, or "" if unset.
func (f *FSIntf) GetPageNavLabel(id ident.CheckedIdent) (string, error) {
	return readStringTrimmed(id.ToFsPath(f.pagesDir, ident.TailOne(ident.MustElement("nav_label", false))))
}

// GetSubPages lists the visible child pages of id: directory entries that
// are not dotfiles, not "__"-prefixed, are directories, carry no hidden
// marker file (presence alone hides, even zero-byte), and have no
// non-empty redirect.
func (f *FSIntf) GetSubPages(id ident.CheckedIdent) ([]PageInfo, error) {
	dir := id.ToFsPath(f.pagesDir, ident.TailNone())

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("fsdb: readdir %s: %w", dir, err)
	}

	var out []PageInfo
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "__") {
			continue
		}
		if !e.IsDir() {
			continue
		}

		childElem, err := ident.Parse(name).AsElement()
		if err != nil {
			continue
		}
		childID, err := id.Downgrade().CloneAppend(childElem.Downgrade().String()).CheckUser()
		if err != nil {
			continue
		}

		if fileExists(filepath.Join(dir, name, "hidden")) {
			continue
		}
		if fileNonEmpty(filepath.Join(dir, name, "redirect")) {
			continue
		}

		navLabel, err := f.GetPageNavLabel(childID)
		if err != nil {
			return nil, err
		}
		navStop, err := f.GetPageNavStop(childID)
		if err != nil {
			return nil, err
		}
		stamp, err := f.GetPageStamp(childID)
		if err != nil {
			return nil, err
		}
		prio, err := f.GetPagePrio(childID)
		if err != nil {
			return nil, err
		}

		out = append(out, PageInfo{
			Name:     name,
			NavLabel: navLabel,
			NavStop:  navStop,
			Stamp:    stamp,
			Prio:     prio,
		})
	}

	return out, nil
}

// GetMacro resolves a macro call by name relative to id, walking upward
// from id's own directory (preferring the closest ancestor's
// __macros/<name> file) before falling back to the global macros/<name>.
func (f *FSIntf) GetMacro(id ident.CheckedIdent, name ident.CheckedIdentElem) ([]byte, error) {
	depth := id.Downgrade().ElementCount()

	for rstrip := 0; rstrip <= depth; rstrip++ {
		path, err := id.ToStrippedFsPath(f.pagesDir, ident.StripRight(rstrip), ident.TailTwo(elemMacros, name))
		if err != nil {
			break
		}
		if fileExists(path) {
			return readFileOrEmpty(path)
		}
	}

	return readFileOrEmpty(filepath.Join(f.macrosDir, name.Downgrade().String()))
}

// GetString returns the contents of global strings/<name>, or nil if absent.
func (f *FSIntf) GetString(name ident.CheckedIdentElem) ([]byte, error) {
	return readFileOrEmpty(filepath.Join(f.stringsDir, name.Downgrade().String()))
}

// GetImage returns the contents of global images/<name>, or nil if absent.
func (f *FSIntf) GetImage(name ident.CheckedIdentElem) ([]byte, error) {
	return readFileOrEmpty(filepath.Join(f.imagesDir, name.Downgrade().String()))
}

// GetHeaders concatenates header.html from the root directory down
// through each ancestor to id's own directory, root first, producing the
// combined <head> extra markup for a page.
func (f *FSIntf) GetHeaders(id ident.CheckedIdent) ([]byte, error) {
	depth := id.Downgrade().ElementCount()

	var parts [][]byte
	for rstrip := depth; rstrip >= 0; rstrip-- {
		path, err := id.ToStrippedFsPath(f.pagesDir, ident.StripRight(rstrip), ident.TailOne(ident.MustElement("header.html", false)))
		if err != nil {
			continue
		}

		b, err := readFileOrEmpty(path)
		if err != nil {
			return nil, err
		}
		if len(b) > 0 {
			parts = append(parts, b)
		}
	}

	var buf strings.Builder
	for _, p := range parts {
		buf.Write(p) //nolint:errcheck // strings.Builder.Write never errors
	}

	return []byte(buf.String()), nil
}

// ReadLines splits the contents of a line-oriented string file (e.g. a
// user-supplied site-map entries list) into its non-empty, trimmed lines.
func ReadLines(b []byte) []string {
	var out []string

	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}
