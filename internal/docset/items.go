package docset

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// itemRule is one nested-item extraction pass: for parent pages of the
// listed kinds, every id-bearing section matched under scope yields an
// entry of the given kind, anchored at that id.
type itemRule struct {
	appliesTo map[Kind]bool
	scope     string // selector for repeated containers; empty means the whole page
	section   string // selector for the id-bearing section within each container
	idPrefix  string
	kind      Kind
}

var itemRules = []itemRule{
	// Methods live in implementation blocks on struct, enum and trait pages.
	{
		appliesTo: map[Kind]bool{KindStruct: true, KindEnum: true, KindTrait: true},
		scope:     "div.impl-items details.toggle.method-toggle",
		section:   "section.method",
		idPrefix:  "method.",
		kind:      KindMethod,
	},
	// Variants appear on enum pages and on type-alias pages, since a type
	// alias may resolve to an enum. Alias pages without variant sections
	// simply yield nothing.
	{
		appliesTo: map[Kind]bool{KindEnum: true, KindType: true},
		section:   "section.variant",
		idPrefix:  "variant.",
		kind:      KindVariant,
	},
}

// nestedEntries extracts method and variant entries from a symbol page.
// Kinds without an applicable rule never cause the page DOM to be parsed.
func nestedEntries(filePath, relPath, parent string, kind Kind) ([]Entry, error) {
	var rules []itemRule
	for _, rule := range itemRules {
		if rule.appliesTo[kind] {
			rules = append(rules, rule)
		}
	}
	if len(rules) == 0 {
		return nil, nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}

	var entries []Entry
	for _, rule := range rules {
		emit := func(section *goquery.Selection) {
			id, ok := section.Attr("id")
			if !ok {
				return
			}
			name, ok := strings.CutPrefix(id, rule.idPrefix)
			if !ok {
				return
			}
			entries = append(entries, Entry{
				Name: parent + "::" + name,
				Kind: rule.kind,
				Path: relPath + "#" + id,
			})
		}

		if rule.scope == "" {
			doc.Find(rule.section).Each(func(_ int, s *goquery.Selection) {
				emit(s)
			})
			continue
		}

		doc.Find(rule.scope).Each(func(_ int, container *goquery.Selection) {
			section := container.Find(rule.section).First()
			if section.Length() > 0 {
				emit(section)
			}
		})
	}

	return entries, nil
}
