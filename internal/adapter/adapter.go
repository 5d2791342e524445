package adapter

import (
	"regexp"
	"strings"
)

// Adapter knows how one wiki edition marks the start of a language section
// and how to pull the language name out of that boundary line.
type Adapter interface {
	Name() string
	// LanguageMatch matches a line that opens a language section.
	LanguageMatch() *regexp.Regexp
	// EntryLanguage extracts the language from a boundary value, which is
	// the boundary line with every '=' removed and trimmed.
	EntryLanguage(value string) string
}

var (
	baseBoundary = regexp.MustCompile(`^==[^=|\[\n\r\t.,'"+!?]+==`)
	// German headers carry the language as a {{Sprache|...}} argument, so
	// pipes are allowed.
	deBoundary = regexp.MustCompile(`^==[^=\[\n\r\t.,'"+!?]+==`)

	deSplit = regexp.MustCompile(`\{\{|\||\}\}`)
	plSplit = regexp.MustCompile(`\{\{|\}\}`)
)

// BaseName is the adapter used when none is named.
const BaseName = "base"

type splitAdapter struct {
	name     string
	boundary *regexp.Regexp
	split    *regexp.Regexp
	index    int
}

func (a *splitAdapter) Name() string                  { return a.name }
func (a *splitAdapter) LanguageMatch() *regexp.Regexp { return a.boundary }

func (a *splitAdapter) EntryLanguage(value string) string {
	if a.split == nil {
		return value
	}
	return piece(a.split.Split(value, -1), a.index)
}

func piece(parts []string, i int) string {
	if i < 0 || i >= len(parts) {
		return ""
	}
	return parts[i]
}

// Base treats the whole header value as the language, as English
// Wiktionary does with "==German==".
func Base() Adapter {
	return &splitAdapter{name: BaseName, boundary: baseBoundary}
}

// DEWiktionary handles "== Haus ({{Sprache|Deutsch}}) ==".
func DEWiktionary() Adapter {
	return &splitAdapter{name: "dewiktionary", boundary: deBoundary, split: deSplit, index: 2}
}

// PLWiktionary handles "== dom ({{język polski}}) ==".
func PLWiktionary() Adapter {
	return &splitAdapter{name: "plwiktionary", boundary: baseBoundary, split: plSplit, index: 1}
}

// SectionValue turns a boundary line into the value handed to EntryLanguage.
func SectionValue(line string) string {
	return strings.TrimSpace(strings.ReplaceAll(line, "=", ""))
}
