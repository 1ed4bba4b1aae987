// Package engine ties acquisition, indexing, search and resolution together
// behind one explicitly constructed handle. It replaces any notion of
// process-global state: the HTTP client, registry client and cache root are
// owned by the Engine and passed in at construction.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dcdpr/bookworm/internal/crates"
	"github.com/dcdpr/bookworm/internal/dl"
	"github.com/dcdpr/bookworm/internal/docs"
	"github.com/dcdpr/bookworm/internal/docset"
	"github.com/dcdpr/bookworm/internal/index"
)

// indexFile is the per-docset database name, stored inside the docset root.
const indexFile = "index.sqlite"

type Options struct {
	// CratesDir is where unpacked docsets and their indexes live.
	CratesDir string

	// DocsRSBaseURL and CratesIOBaseURL override the upstream endpoints.
	DocsRSBaseURL   string
	CratesIOBaseURL string

	UserAgent string
	Timeout   time.Duration
}

// TypeDefinition is one search result: the resolved item plus the resource
// URIs a caller can use to retrieve it again.
type TypeDefinition struct {
	docs.Item
	DocsResource string `json:"docs_resource"`
	SrcResource  string `json:"src_resource,omitempty"`
}

type Engine struct {
	cratesDir string
	docsRSURL string
	userAgent string

	http   *http.Client
	crates *crates.Client

	// ensures serializes docset acquisition and index rebuilds per
	// crate@version. Rebuilds drop and recreate the table, so two must
	// never run concurrently against the same store.
	ensures singleflight.Group
}

func New(opts Options) *Engine {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	cratesDir := opts.CratesDir
	if cratesDir == "" {
		cratesDir = filepath.Join(os.TempDir(), "bookworm", "crates")
	}

	return &Engine{
		cratesDir: cratesDir,
		docsRSURL: opts.DocsRSBaseURL,
		userAgent: opts.UserAgent,
		http:      client,
		crates: &crates.Client{
			BaseURL:   opts.CratesIOBaseURL,
			HTTP:      client,
			UserAgent: opts.UserAgent,
		},
	}
}

// Ensure downloads and indexes a crate's docset if needed, returning the
// docset root. Docset directories are keyed by archive ETag and therefore
// immutable, so an existing index file is trusted as-is.
func (e *Engine) Ensure(ctx context.Context, name, version string) (string, error) {
	if version == "" {
		version = "latest"
	}

	v, err, _ := e.ensures.Do(name+"@"+version, func() (any, error) {
		root, err := dl.Download(ctx, dl.Config{
			Root:      e.cratesDir,
			CrateName: name,
			Version:   version,
			BaseURL:   e.docsRSURL,
			Client:    e.http,
			UserAgent: e.userAgent,
		})
		if err != nil {
			return nil, fmt.Errorf("downloading %s@%s: %w", name, version, err)
		}

		if _, err := os.Stat(filepath.Join(root, indexFile)); err == nil {
			return root, nil
		}

		if err := e.Index(root, filepath.Join(root, indexFile)); err != nil {
			return nil, fmt.Errorf("indexing %s@%s: %w", name, version, err)
		}
		return root, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Index fully rebuilds the search index at output from the docset at source.
func (e *Engine) Index(source, output string) error {
	start := time.Now()

	entries, err := docset.Walk(source)
	if err != nil {
		return err
	}

	store, err := index.Open(output)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Build(entries); err != nil {
		return err
	}

	slog.Info("indexed docset", "source", source, "entries", len(entries), "elapsed", time.Since(start))
	return nil
}

// SearchItems runs a fuzzy, kind-filtered search over a crate's docset and
// resolves each hit into a full item.
func (e *Engine) SearchItems(ctx context.Context, name, version, query string, kinds []docset.Kind, limit int) ([]TypeDefinition, error) {
	slog.Info("search items", "crate", name, "version", version, "query", query, "kinds", kinds, "limit", limit)

	root, err := e.Ensure(ctx, name, version)
	if err != nil {
		return nil, err
	}

	store, err := index.Open(filepath.Join(root, indexFile))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	locations, err := store.Search(query, kinds, limit)
	if err != nil {
		return nil, err
	}

	resolver, err := docs.New(root, store)
	if err != nil {
		return nil, err
	}

	if version == "" {
		version = "latest"
	}

	definitions := make([]TypeDefinition, 0, len(locations))
	for _, location := range locations {
		item, err := resolver.Item(location)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", location, err)
		}

		def := TypeDefinition{
			Item:         *item,
			DocsResource: fmt.Sprintf("crate://%s/%s/items/%s", name, version, location),
		}
		if item.SrcPath != "" {
			def.SrcResource = fmt.Sprintf("crate://%s/%s%s", name, version, item.SrcPath)
		}
		definitions = append(definitions, def)
	}

	return definitions, nil
}

// Item resolves one documentation item by its docset-relative location
// (optionally `#`-suffixed with an in-page anchor).
func (e *Engine) Item(ctx context.Context, name, version, location string) (*docs.Item, error) {
	root, err := e.Ensure(ctx, name, version)
	if err != nil {
		return nil, err
	}

	store, err := index.Open(filepath.Join(root, indexFile))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	resolver, err := docs.New(root, store)
	if err != nil {
		return nil, err
	}
	return resolver.Item(location)
}

// SearchCrates queries the registry for crates matching the query.
func (e *Engine) SearchCrates(ctx context.Context, query string, limit int) ([]crates.Info, error) {
	return e.crates.Search(ctx, query, limit)
}

// Versions returns the published versions of a crate.
func (e *Engine) Versions(ctx context.Context, name string) ([]crates.Version, error) {
	return e.crates.Versions(ctx, name)
}

// Readme returns the rendered readme HTML for a crate version, resolving
// "latest" through the registry's version list first.
func (e *Engine) Readme(ctx context.Context, name, version string) (string, error) {
	if version == "" || version == "latest" {
		versions, err := e.crates.Versions(ctx, name)
		if err != nil {
			return "", err
		}
		version = ""
		for _, v := range versions {
			if !v.Yanked {
				version = v.Num
				break
			}
		}
		if version == "" {
			return "", fmt.Errorf("no published versions for %s", name)
		}
	}
	return e.crates.Readme(ctx, name, version)
}
