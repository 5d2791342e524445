package splitter

import (
	"slices"
	"strings"

	"github.com/dgallion1/wikigest/internal/adapter"
)

// Section is the part of a page that belongs to one language.
type Section struct {
	// Value is the boundary line without '=' characters, trimmed.
	Value string `json:"value"`
	// Text starts with the boundary line itself.
	Text string `json:"text"`
}

// Split cuts page markup into language sections at every line the adapter
// recognises as a boundary. Lines before the first boundary are dropped.
func Split(a adapter.Adapter, text string) []Section {
	var (
		sections []Section
		cur      *strings.Builder
		value    string
	)
	boundary := a.LanguageMatch()

	flush := func() {
		if cur != nil {
			sections = append(sections, Section{Value: value, Text: cur.String()})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if boundary.MatchString(line) {
			flush()
			cur = &strings.Builder{}
			cur.WriteString(line)
			value = adapter.SectionValue(line)
			continue
		}
		if cur != nil {
			cur.WriteByte('\n')
			cur.WriteString(line)
		}
	}
	flush()
	return sections
}

// Filter decides which pages and language sections are processed.
type Filter struct {
	// Namespaces limits pages to these namespaces. Empty accepts all.
	Namespaces []int `json:"namespaces,omitempty"`
	// Languages limits sections to these languages. Empty accepts all.
	Languages []string `json:"languages,omitempty"`
	// Equality requires an exact language match instead of a substring.
	Equality bool `json:"equality,omitempty"`
}

// PageValid reports whether a page should be processed at all.
func (f Filter) PageValid(ns int, title string) bool {
	if title == "" {
		return false
	}
	return len(f.Namespaces) == 0 || slices.Contains(f.Namespaces, ns)
}

// LanguageValid reports whether a section language passes the filter.
func (f Filter) LanguageValid(lang string) bool {
	if len(f.Languages) == 0 {
		return true
	}
	if f.Equality {
		return slices.Contains(f.Languages, lang)
	}
	for _, l := range f.Languages {
		if strings.Contains(lang, l) {
			return true
		}
	}
	return false
}
