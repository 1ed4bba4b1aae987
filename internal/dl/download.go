// Package dl acquires crate docsets from docs.rs: download the zip archive,
// unpack it, and prune non-primary platform subtrees. Docsets are cached on
// disk keyed by the archive's ETag, so a present directory is never
// re-downloaded.
package dl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

const defaultBaseURL = "https://docs.rs"

type Config struct {
	// Root is the directory docsets are unpacked under.
	Root string

	CrateName string

	// Version defaults to "latest", which docs.rs resolves via redirect.
	Version string

	// BaseURL overrides the docs.rs endpoint, mainly for tests.
	BaseURL string

	Client    *http.Client
	UserAgent string
}

// Download fetches and unpacks the documentation archive for a crate,
// returning the docset root. The destination is {root}/{name}/{version}/{etag};
// if it already exists the network is not touched beyond the ETag probe.
func Download(ctx context.Context, cfg Config) (string, error) {
	if cfg.CrateName == "" {
		return "", fmt.Errorf("missing crate name")
	}

	version := cfg.Version
	if version == "" {
		version = "latest"
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	root := cfg.Root
	if root == "" {
		root = filepath.Join(os.TempDir(), "bookworm", "crates")
	}

	url := fmt.Sprintf("%s/crate/%s/%s/download", base, cfg.CrateName, version)

	etag, err := fetchETag(ctx, client, url, cfg.UserAgent)
	if err != nil {
		return "", err
	}

	destination := filepath.Join(root, cfg.CrateName, version, etag)
	if info, err := os.Stat(destination); err == nil && info.IsDir() {
		return destination, nil
	}

	data, err := fetchArchive(ctx, client, url, cfg.UserAgent)
	if err != nil {
		return "", err
	}

	if err := unzip(data, destination); err != nil {
		return "", err
	}
	if err := sanitize(destination, cfg.CrateName); err != nil {
		return "", err
	}

	return destination, nil
}

func fetchETag(ctx context.Context, client *http.Client, url, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probing %s: %w", url, err)
	}
	defer resp.Body.Close()

	return strings.ReplaceAll(resp.Header.Get("ETag"), `"`, ""), nil
}

func fetchArchive(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("docs.rs returned %d for %s: %s", resp.StatusCode, url, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return data, nil
}

func unzip(data []byte, destination string) error {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	for _, src := range archive.File {
		if src.FileInfo().IsDir() {
			continue
		}

		// Reject entries that would escape the destination.
		out := filepath.Join(destination, filepath.FromSlash(src.Name))
		if !strings.HasPrefix(out, destination+string(filepath.Separator)) {
			continue
		}

		if err := extractFile(src, out); err != nil {
			return err
		}
	}

	return nil
}

func extractFile(src *zip.File, out string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(out), err)
	}

	r, err := src.Open()
	if err != nil {
		return fmt.Errorf("opening %s in archive: %w", src.Name, err)
	}
	defer r.Close()

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("extracting %s: %w", src.Name, err)
	}
	return nil
}

// sanitize removes top-level platform directories other than the primary
// one. Generated docsets can contain more than the default platform; only
// the main platform's tree is indexed.
func sanitize(dir, crateName string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		switch entry.Name() {
		case crateName, "src", "implementors":
		default:
			if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
				return fmt.Errorf("removing %s: %w", entry.Name(), err)
			}
		}
	}

	return nil
}
