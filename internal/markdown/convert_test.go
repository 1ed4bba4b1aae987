package markdown

import (
	"strings"
	"testing"
)

func TestConvert(t *testing.T) {
	t.Parallel()

	conv := NewConverter()

	got, err := conv.Convert(`<h1>Value</h1><p>A JSON value with <code>is_object</code>.</p>`)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(got, "# Value") {
		t.Errorf("heading not converted: %q", got)
	}
	if !strings.Contains(got, "`is_object`") {
		t.Errorf("inline code not converted: %q", got)
	}
}

func TestConvertEmpty(t *testing.T) {
	t.Parallel()

	conv := NewConverter()
	for _, html := range []string{"", "   \n\t"} {
		got, err := conv.Convert(html)
		if err != nil {
			t.Fatalf("Convert(%q): %v", html, err)
		}
		if got != "" {
			t.Errorf("Convert(%q) = %q, want empty", html, got)
		}
	}
}
