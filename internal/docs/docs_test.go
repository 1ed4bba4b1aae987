package docs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dcdpr/bookworm/internal/docset"
	"github.com/dcdpr/bookworm/internal/index"
)

const enumPage = `<!DOCTYPE html><html><head><title>Value</title></head><body>
<div id="main-content">
  <span class="sub-heading"><a class="src" href="../../src/mycrate/value.rs.html#42">Source</a></span>
  <div class="docblock"><p>Represents any valid JSON value.</p></div>
  <section id="variant.Array" class="variant"><h3>Array(Vec&lt;Value&gt;)</h3></section>
  <div class="docblock"><p>Represents a JSON array.</p></div>
  <section id="variant.Null" class="variant"><h3>Null</h3></section>
  <div id="trait-implementations-list">
    <div class="impl-items"><p>noise to be stripped</p></div>
  </div>
</div>
</body></html>`

const bareParagraphPage = `<!DOCTYPE html><html><head><title>Bare</title></head><body>
<p>no main content container here</p>
</body></html>`

// writeFixture creates a docset with an indexed enum page and returns the
// root and an open store.
func writeFixture(t *testing.T) (string, *index.Store) {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"mycrate/value/enum.Value.html": enumPage,
		"mycrate/bare.Broken.html":      bareParagraphPage,
		"src/mycrate/value.rs.html":     "<html><head></head><body>source</body></html>",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	store, err := index.Open(filepath.Join(root, "index.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	err = store.Build([]docset.Entry{
		{Name: "value::Value", Kind: docset.KindEnum, Path: "mycrate/value/enum.Value.html"},
		{Name: "value::Value::Array", Kind: docset.KindVariant, Path: "mycrate/value/enum.Value.html#variant.Array"},
		{Name: "value::Value::Null", Kind: docset.KindVariant, Path: "mycrate/value/enum.Value.html#variant.Null"},
		{Name: "Broken", Kind: docset.KindStruct, Path: "mycrate/bare.Broken.html"},
	})
	if err != nil {
		t.Fatal(err)
	}

	return root, store
}

func TestNewMissingDocs(t *testing.T) {
	t.Parallel()

	_, store := writeFixture(t)
	_, err := New(filepath.Join(t.TempDir(), "nope"), store)
	if !errors.Is(err, ErrMissingDocs) {
		t.Fatalf("expected ErrMissingDocs, got %v", err)
	}
}

func TestItemWholePage(t *testing.T) {
	t.Parallel()

	root, store := writeFixture(t)
	d, err := New(root, store)
	if err != nil {
		t.Fatal(err)
	}

	item, err := d.Item("mycrate/value/enum.Value.html")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}

	if item.Path != "value::Value" || item.Kind != docset.KindEnum {
		t.Errorf("got (%s, %s), want (value::Value, Enum)", item.Path, item.Kind)
	}
	if item.TypeInfo != "" {
		t.Errorf("whole-page resolution should not set type info: %q", item.TypeInfo)
	}
	if !strings.Contains(item.Documentation, "valid JSON value") {
		t.Errorf("documentation missing page prose: %q", item.Documentation)
	}
	if strings.Contains(item.Documentation, "noise to be stripped") {
		t.Errorf("trait implementation details not stripped: %q", item.Documentation)
	}
}

func TestItemFragment(t *testing.T) {
	t.Parallel()

	root, store := writeFixture(t)
	d, err := New(root, store)
	if err != nil {
		t.Fatal(err)
	}

	item, err := d.Item("mycrate/value/enum.Value.html#variant.Array")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}

	if !strings.HasSuffix(item.Path, "::Array") {
		t.Errorf("path = %q, want ::Array suffix", item.Path)
	}
	if item.Kind != docset.KindVariant {
		t.Errorf("kind = %s, want Variant", item.Kind)
	}
	if item.TypeInfo == "" || !strings.Contains(item.TypeInfo, "Array(Vec") {
		t.Errorf("type info missing variant signature: %q", item.TypeInfo)
	}
	if !strings.Contains(item.Documentation, "JSON array") {
		t.Errorf("sibling docblock not found: %q", item.Documentation)
	}
}

func TestItemFragmentDocblockFromAncestorChain(t *testing.T) {
	t.Parallel()

	root, store := writeFixture(t)
	d, err := New(root, store)
	if err != nil {
		t.Fatal(err)
	}

	// variant.Null has no docblock of its own; the walk continues through
	// following siblings without ever failing.
	item, err := d.Item("mycrate/value/enum.Value.html#variant.Null")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.TypeInfo == "" {
		t.Error("expected type info for variant.Null")
	}
}

func TestItemNotFound(t *testing.T) {
	t.Parallel()

	root, store := writeFixture(t)
	d, err := New(root, store)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("unindexed_location", func(t *testing.T) {
		_, err := d.Item("mycrate/value/enum.Missing.html")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing_fragment_element", func(t *testing.T) {
		// Indexed under a fragment that does not exist in the page.
		err := store.Build([]docset.Entry{
			{Name: "value::Value::Gone", Kind: docset.KindVariant, Path: "mycrate/value/enum.Value.html#variant.Gone"},
		})
		if err != nil {
			t.Fatal(err)
		}
		_, err = d.Item("mycrate/value/enum.Value.html#variant.Gone")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing_main_content", func(t *testing.T) {
		err := store.Build([]docset.Entry{
			{Name: "Broken", Kind: docset.KindStruct, Path: "mycrate/bare.Broken.html"},
		})
		if err != nil {
			t.Fatal(err)
		}
		_, err = d.Item("mycrate/bare.Broken.html")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestResolveSrc(t *testing.T) {
	t.Parallel()

	root, store := writeFixture(t)
	d, err := New(root, store)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("resolved", func(t *testing.T) {
		item, err := d.Item("mycrate/value/enum.Value.html")
		if err != nil {
			t.Fatal(err)
		}
		if item.SrcPath != "/src/mycrate/value.rs.html#42" {
			t.Errorf("src path = %q, want /src/mycrate/value.rs.html#42", item.SrcPath)
		}
	})

	t.Run("broken_link_is_absent", func(t *testing.T) {
		page := strings.ReplaceAll(enumPage, "value.rs.html", "missing.rs.html")
		path := filepath.Join(root, "mycrate", "value", "enum.Other.html")
		if err := os.WriteFile(path, []byte(page), 0644); err != nil {
			t.Fatal(err)
		}
		err := store.Build([]docset.Entry{
			{Name: "value::Other", Kind: docset.KindEnum, Path: "mycrate/value/enum.Other.html"},
		})
		if err != nil {
			t.Fatal(err)
		}

		item, err := d.Item("mycrate/value/enum.Other.html")
		if err != nil {
			t.Fatal(err)
		}
		if item.SrcPath != "" {
			t.Errorf("broken source link should resolve to absent, got %q", item.SrcPath)
		}
	})
}
