package index

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/dcdpr/bookworm/internal/docset"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testEntries() []docset.Entry {
	return []docset.Entry{
		{Name: "mycrate", Kind: docset.KindModule, Path: "mycrate/index.html"},
		{Name: "foo::Bar", Kind: docset.KindStruct, Path: "mycrate/foo/struct.Bar.html"},
		{Name: "foo::Bar::baz", Kind: docset.KindMethod, Path: "mycrate/foo/struct.Bar.html#method.baz"},
		{Name: "value::Value", Kind: docset.KindEnum, Path: "mycrate/value/enum.Value.html"},
		{Name: "value::Value::Array", Kind: docset.KindVariant, Path: "mycrate/value/enum.Value.html#variant.Array"},
		{Name: "spawn", Kind: docset.KindFunction, Path: "mycrate/fn.spawn.html"},
	}
}

func TestBuildAndLookup(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	if err := store.Build(testEntries()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	name, kind, err := store.Lookup("mycrate/value/enum.Value.html#variant.Array")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if name != "value::Value::Array" || kind != docset.KindVariant {
		t.Errorf("got (%s, %s), want (value::Value::Array, Variant)", name, kind)
	}

	_, _, err = store.Lookup("mycrate/enum.Missing.html")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// dumpRows reads every (name, type, path) row in a deterministic order,
// ignoring ids.
func dumpRows(t *testing.T, store *Store) []docset.Entry {
	t.Helper()

	rows, err := store.conn.Query(
		`SELECT name, type, path FROM searchIndex ORDER BY name, type, path`,
	)
	if err != nil {
		t.Fatalf("dumping rows: %v", err)
	}
	defer rows.Close()

	var entries []docset.Entry
	for rows.Next() {
		var name, kind, path string
		if err := rows.Scan(&name, &kind, &path); err != nil {
			t.Fatalf("scanning row: %v", err)
		}
		entries = append(entries, docset.Entry{Name: name, Kind: docset.Kind(kind), Path: path})
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	return entries
}

func TestBuildIsFullRebuild(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	if err := store.Build(testEntries()); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	first := dumpRows(t, store)

	if err := store.Build(testEntries()); err != nil {
		t.Fatalf("second Build: %v", err)
	}
	second := dumpRows(t, store)

	if len(first) != len(testEntries()) {
		t.Fatalf("got %d rows after first build, want %d", len(first), len(testEntries()))
	}
	if !slices.Equal(first, second) {
		t.Errorf("rebuild changed rows:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestBuildDeduplicates(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	dup := docset.Entry{Name: "foo::Bar", Kind: docset.KindStruct, Path: "mycrate/foo/struct.Bar.html"}
	if err := store.Build([]docset.Entry{dup, dup}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	n, err := store.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("got %d rows, want 1", n)
	}
}

func TestSearchNotIndexed(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	_, err := store.Search("anything", nil, 0)
	if !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("expected ErrNotIndexed, got %v", err)
	}
}

func TestSearchEmptyQueryReturnsEverything(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	if err := store.Build(testEntries()); err != nil {
		t.Fatal(err)
	}

	paths, err := store.Search("", nil, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(paths) != len(testEntries()) {
		t.Fatalf("got %d results, want %d", len(paths), len(testEntries()))
	}

	seen := map[string]int{}
	for _, p := range paths {
		seen[p]++
	}
	for p, n := range seen {
		if n != 1 {
			t.Errorf("path %s returned %d times", p, n)
		}
	}
}

func TestSearchKindFilter(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	if err := store.Build(testEntries()); err != nil {
		t.Fatal(err)
	}

	paths, err := store.Search("", []docset.Kind{docset.KindMethod}, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %v, want only the method entry", paths)
	}
	if paths[0] != "mycrate/foo/struct.Bar.html#method.baz" {
		t.Errorf("unexpected path %s", paths[0])
	}
}

func TestSearchRanking(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	if err := store.Build(testEntries()); err != nil {
		t.Fatal(err)
	}

	t.Run("exact_name_first", func(t *testing.T) {
		paths, err := store.Search("foo::Bar", nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) == 0 || paths[0] != "mycrate/foo/struct.Bar.html" {
			t.Errorf("exact name match not ranked first: %v", paths)
		}
	})

	t.Run("suffix_beats_longer", func(t *testing.T) {
		paths, err := store.Search("Bar", nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) < 2 {
			t.Fatalf("expected both Bar entries, got %v", paths)
		}
		if paths[0] != "mycrate/foo/struct.Bar.html" {
			t.Errorf("foo::Bar should outrank foo::Bar::baz: %v", paths)
		}
		if paths[1] != "mycrate/foo/struct.Bar.html#method.baz" {
			t.Errorf("foo::Bar::baz should be second: %v", paths)
		}
	})

	t.Run("case_insensitive", func(t *testing.T) {
		paths, err := store.Search("bar", nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) == 0 {
			t.Error("lowercase query should match Bar entries")
		}
	})

	t.Run("space_becomes_gap", func(t *testing.T) {
		paths, err := store.Search("value array", nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 1 || paths[0] != "mycrate/value/enum.Value.html#variant.Array" {
			t.Errorf("wildcard gap should match the variant: %v", paths)
		}
	})

	t.Run("path_only_match", func(t *testing.T) {
		// "mycrate" appears in every location string but only one name.
		paths, err := store.Search("mycrate/fn", nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 1 || paths[0] != "mycrate/fn.spawn.html" {
			t.Errorf("location-only match failed: %v", paths)
		}
	})

	t.Run("limit", func(t *testing.T) {
		paths, err := store.Search("", nil, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 2 {
			t.Errorf("got %d results, want 2", len(paths))
		}
	})
}
