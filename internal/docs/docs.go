// Package docs extracts documentation fragments from docset HTML on demand.
package docs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dcdpr/bookworm/internal/docset"
	"github.com/dcdpr/bookworm/internal/index"
)

var (
	// ErrMissingDocs means the docset root is absent or not a directory.
	ErrMissingDocs = errors.New("missing docs")

	// ErrNotFound means the queried location or in-page element does not exist.
	ErrNotFound = errors.New("not found")
)

// Item is a resolved documentation fragment. It is constructed fresh on
// every resolve call and never cached.
type Item struct {
	Path          string      `json:"path"`
	Kind          docset.Kind `json:"kind"`
	TypeInfo      string      `json:"type_info,omitempty"`
	Documentation string      `json:"documentation,omitempty"`
	SrcPath       string      `json:"src_path,omitempty"`
}

// Docs resolves items against the live HTML of one docset. It only reads
// already-materialized files, so concurrent resolution is safe.
type Docs struct {
	root  string
	store *index.Store
}

func New(root string, store *index.Store) (*Docs, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrMissingDocs, root)
	}
	return &Docs{root: root, store: store}, nil
}

// Item resolves the entry at the given location. Without a fragment the
// page's main content becomes the documentation, with the trait
// implementation details stripped out to reduce noise. With a fragment the
// anchored element becomes the type info and the nearest docblock, if any,
// becomes the documentation.
func (d *Docs) Item(location string) (*Item, error) {
	name, kind, err := d.store.Lookup(location)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, err
	}

	file, fragment := location, ""
	if i := strings.LastIndex(location, "#"); i >= 0 {
		file, fragment = location[:i], location[i+1:]
	}

	f, err := os.Open(filepath.Join(d.root, filepath.FromSlash(file)))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}

	selector := "#main-content"
	if fragment != "" {
		selector = fmt.Sprintf("[id=%q]", fragment)
	}

	element := doc.Find(selector).First()
	if element.Length() == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, selector, file)
	}

	item := &Item{Path: name, Kind: kind}

	if fragment == "" {
		element.Find("#trait-implementations-list .impl-items").Remove()
		item.Documentation, _ = element.Html()
	} else {
		item.TypeInfo, _ = element.Html()
		if docblock := findDocblock(element); docblock != nil {
			item.Documentation, _ = docblock.Html()
		}
	}

	item.SrcPath = d.resolveSrc(element, file)

	return item, nil
}

// findDocblock locates the prose documentation associated with an element:
// the element itself, then its following siblings, then the same chain on
// each ancestor. The walk is iterative and terminates when no parent
// remains, so document depth bounds it.
func findDocblock(element *goquery.Selection) *goquery.Selection {
	for node := element; node.Length() > 0; {
		if node.HasClass("docblock") {
			return node
		}
		if next := node.Next(); next.Length() > 0 {
			node = next
			continue
		}
		node = node.Parent()
	}
	return nil
}

// resolveSrc finds the source-code cross-reference for an element. It is a
// best-effort enrichment: any failure (missing link, broken path, target
// outside the docset) yields an empty result rather than an error.
func (d *Docs) resolveSrc(element *goquery.Selection, file string) string {
	href, ok := element.Find("a.src").First().Attr("href")
	if !ok {
		return ""
	}

	src, fragment, _ := strings.Cut(href, "#")

	resolved, err := filepath.Abs(filepath.Join(
		d.root, filepath.FromSlash(path.Dir(file)), filepath.FromSlash(src),
	))
	if err != nil {
		return ""
	}
	if _, err := os.Stat(resolved); err != nil {
		return ""
	}

	rootAbs, err := filepath.Abs(d.root)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(rootAbs, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}

	srcPath := "/" + filepath.ToSlash(rel)
	if fragment != "" {
		srcPath += "#" + fragment
	}
	return srcPath
}
