package engine

import (
	"fmt"
	"net/url"
	"strings"
)

// ItemRef identifies one documentation item inside a crate's docset.
type ItemRef struct {
	Crate    string
	Version  string
	Location string
}

// ParseItemURI parses a crate://{name}/{version}/items/{path}[#fragment]
// resource URI. The fragment, when present, is folded back into Location so
// it round-trips through the searchIndex path column.
func ParseItemURI(raw string) (ItemRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ItemRef{}, fmt.Errorf("parsing uri: %w", err)
	}

	if u.Scheme != "crate" {
		return ItemRef{}, fmt.Errorf("invalid uri scheme %q, expected \"crate\"", u.Scheme)
	}
	if u.Host == "" {
		return ItemRef{}, fmt.Errorf("missing crate name in %q", raw)
	}

	version, rest, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || version == "" {
		return ItemRef{}, fmt.Errorf("missing version in %q", raw)
	}

	location, ok := strings.CutPrefix(rest, "items/")
	if !ok || location == "" {
		return ItemRef{}, fmt.Errorf("missing items path in %q", raw)
	}

	if u.Fragment != "" {
		location += "#" + u.Fragment
	}

	return ItemRef{Crate: u.Host, Version: version, Location: location}, nil
}
