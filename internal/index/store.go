// Package index persists docset entries in the searchIndex SQLite table
// and serves fuzzy, kind-filtered, deterministically ranked lookups.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dcdpr/bookworm/internal/docset"
)

var (
	// ErrNotIndexed means the searchIndex table does not exist yet. Callers
	// treat this as "no index built", not as corruption.
	ErrNotIndexed = errors.New("docset is not indexed")

	// ErrNotFound means no entry matches the queried location.
	ErrNotFound = errors.New("entry not found")
)

// Store is a handle to one docset's search index. A Store is read-only
// after Build; concurrent searches are safe, concurrent rebuilds are not.
type Store struct {
	conn *sql.DB
}

func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_busy_timeout=5000"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// Build drops and recreates the searchIndex table, then inserts all entries
// in one transaction. Every build is a full rebuild; entries that collide on
// (name, type, path) are deduplicated by the unique index.
func (s *Store) Build(entries []docset.Entry) error {
	if _, err := s.conn.Exec(`DROP TABLE IF EXISTS searchIndex`); err != nil {
		return fmt.Errorf("dropping searchIndex: %w", err)
	}
	if _, err := s.conn.Exec(
		`CREATE TABLE searchIndex(id INTEGER PRIMARY KEY, name TEXT, type TEXT, path TEXT)`,
	); err != nil {
		return fmt.Errorf("creating searchIndex: %w", err)
	}
	if _, err := s.conn.Exec(
		`CREATE UNIQUE INDEX anchor ON searchIndex (name, type, path)`,
	); err != nil {
		return fmt.Errorf("creating anchor index: %w", err)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO searchIndex (name, type, path) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Name, string(e.Kind), e.Path); err != nil {
			return fmt.Errorf("inserting %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Search returns the locations matching query, best first.
//
// The query is normalized into a case-insensitive LIKE pattern: spaces
// become wildcard gaps, and unless the caller already anchored the pattern
// with a leading or trailing wildcard it is wrapped on both ends. An empty
// query matches everything. The pattern applies to the entry name or to its
// location, so module segments of the file path alone can match.
//
// Ranking is tiered on the wildcard-stripped query: exact name, exact
// location, name suffix, name prefix, location suffix, location prefix,
// then everything else; ties break on name length, then location length.
// A limit <= 0 means unbounded.
func (s *Store) Search(query string, kinds []docset.Kind, limit int) ([]string, error) {
	if len(kinds) == 0 {
		kinds = docset.AllKinds()
	}

	exact := strings.ReplaceAll(query, "%", "")
	var fuzzy string
	switch {
	case query == "":
		fuzzy = "%"
	case strings.HasPrefix(query, "%") || strings.HasSuffix(query, "%"):
		fuzzy = query
	default:
		fuzzy = "%" + strings.ReplaceAll(query, " ", "%") + "%"
	}

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	placeholders := make([]string, len(kinds))
	args := []any{fuzzy, fuzzy}
	for i, k := range kinds {
		placeholders[i] = "?"
		args = append(args, string(k))
	}
	args = append(args, exact, exact, exact, exact, exact, exact, limit)

	rows, err := s.conn.Query(fmt.Sprintf(`
		SELECT path
		FROM searchIndex
		WHERE (name LIKE ? OR path LIKE ?) AND type IN (%s)
		ORDER BY
			CASE
				WHEN name = ? THEN 0
				WHEN path = ? THEN 1
				WHEN name LIKE '%%' || ? THEN 2
				WHEN name LIKE ? || '%%' THEN 3
				WHEN path LIKE '%%' || ? THEN 4
				WHEN path LIKE ? || '%%' THEN 5
				ELSE 6
			END,
			length(name), length(path) ASC
		LIMIT ?`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, wrapTableMissing(err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Lookup returns the name and kind indexed at the given location, including
// any `#`-suffixed fragment.
func (s *Store) Lookup(path string) (string, docset.Kind, error) {
	var name, kind string
	err := s.conn.QueryRow(
		`SELECT name, type FROM searchIndex WHERE path = ?`, path,
	).Scan(&name, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return "", "", wrapTableMissing(err)
	}
	return name, docset.Kind(kind), nil
}

// Count returns the number of indexed entries.
func (s *Store) Count() (int, error) {
	var n int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM searchIndex`).Scan(&n)
	if err != nil {
		return 0, wrapTableMissing(err)
	}
	return n, nil
}

func wrapTableMissing(err error) error {
	if strings.Contains(err.Error(), "no such table: searchIndex") {
		return ErrNotIndexed
	}
	return err
}
