package docset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrSourceNotFound means the docset root path does not exist.
	ErrSourceNotFound = errors.New("source path does not exist")

	// ErrSourceNotDirectory means the docset root path is not a directory.
	ErrSourceNotDirectory = errors.New("source path is not a directory")
)

// Entry is one indexable symbol: a fully qualified `::`-separated name, a
// kind, and a docset-relative location. Nested items (methods, variants)
// carry the in-page anchor as a `#`-suffixed fragment on Path.
type Entry struct {
	Name string
	Kind Kind
	Path string
}

// Top-level directories that never contain indexable documentation: the
// crate's own source mirror and the trait implementor cross-reference.
var rootSkipDirs = map[string]bool{
	"src":          true,
	"implementors": true,
}

// Walk traverses a docset directory tree and returns all index entries.
// The order of entries is not significant; the store re-sorts on query.
func Walk(root string) ([]Entry, error) {
	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotDirectory, root)
	}

	return walkDir(root, root, "")
}

func walkDir(root, dir, modulePath string) ([]Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var all []Entry
	for _, de := range dirents {
		full := filepath.Join(dir, de.Name())

		var entries []Entry
		if de.IsDir() {
			child := modulePath
			if modulePath == "" {
				if rootSkipDirs[de.Name()] {
					continue
				}

				// The crate's own root package directory restates the crate
				// name and does not contribute a module segment.
				rel, err := filepath.Rel(root, full)
				if err != nil {
					rel = full
				}
				if filepath.ToSlash(rel) != de.Name() {
					child = de.Name()
				}
			} else {
				child = modulePath + "::" + de.Name()
			}

			entries, err = walkDir(root, full, child)
		} else {
			entries, err = classifyFile(root, full, modulePath)
		}
		if err != nil {
			return nil, err
		}

		all = append(all, entries...)
	}

	return all, nil
}

// classifyFile turns one file into its index entries: nothing for
// non-content pages, a single module or symbol entry, plus nested method
// and variant entries for symbol kinds that can contain them.
func classifyFile(root, filePath, modulePath string) ([]Entry, error) {
	if filepath.Ext(filePath) != ".html" {
		return nil, nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filePath, err)
	}
	redirect, err := isRedirection(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("checking %s for redirection: %w", filePath, err)
	}
	if redirect {
		return nil, nil
	}

	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		rel = filePath
	}
	rel = filepath.ToSlash(rel)

	parts := strings.Split(filepath.Base(filePath), ".")
	var entries []Entry

	switch {
	case len(parts) == 2 && parts[0] == "index":
		module := path.Dir(rel)
		if module == "." {
			module = ""
		}
		module = strings.ReplaceAll(module, "/", "::")

		entries = append(entries, Entry{Name: module, Kind: KindModule, Path: rel})

	case len(parts) == 3:
		kind, err := ParseKind(parts[0])
		if err != nil {
			return nil, err
		}

		name := parts[1]
		if modulePath != "" {
			name = modulePath + "::" + parts[1]
		}

		nested, err := nestedEntries(filePath, rel, name, kind)
		if err != nil {
			return nil, err
		}
		entries = append(entries, nested...)

		entries = append(entries, Entry{Name: name, Kind: kind, Path: rel})
	}

	return entries, nil
}

// isRedirection reports whether the file is a rustdoc redirection page. It
// scans line-by-line through a small buffer for the sentinel title, stopping
// at the end of the head section so large HTML bodies are never read.
func isRedirection(r io.Reader) (bool, error) {
	// 512 bytes covers the head section of redirection pages in one read.
	br := bufio.NewReaderSize(r, 512)

	var head strings.Builder
	for {
		line, err := br.ReadString('\n')
		head.WriteString(line)
		if strings.Contains(line, "</head>") {
			break
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, err
		}
	}

	return strings.Contains(head.String(), "<title>Redirection</title>"), nil
}
