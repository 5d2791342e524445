package export

import (
	"errors"
	"fmt"

	"github.com/dgallion1/wikigest/internal/proptree"
)

// GrammarPart is a part of speech.
type GrammarPart string

const (
	Noun         GrammarPart = "noun"
	Verb         GrammarPart = "verb"
	Adjective    GrammarPart = "adjective"
	Adverb       GrammarPart = "adverb"
	Pronoun      GrammarPart = "pronoun"
	Preposition  GrammarPart = "preposition"
	Conjunction  GrammarPart = "conjunction"
	Interjection GrammarPart = "interjection"
	Numeral      GrammarPart = "numeral"
	Article      GrammarPart = "article"
	Particle     GrammarPart = "particle"
)

type Lexem struct {
	Lemma string      `json:"lemma"`
	Part  GrammarPart `json:"part"`
}

type LexemMeaning struct {
	Meaning string `json:"meaning"`
	Example string `json:"example,omitempty"`
}

type LexemTranslation struct {
	Lexem    string         `json:"lexem"`
	Part     GrammarPart    `json:"part"`
	Lang     string         `json:"lang"`
	Meanings []LexemMeaning `json:"meanings"`
}

// LexemExport is the structured record produced from one parsed entry.
type LexemExport struct {
	Lexem       Lexem            `json:"lexem"`
	Translation LexemTranslation `json:"translation"`
}

// Exporter turns a parsed entry into a lexeme record. It reports false
// when the tree has nothing it understands.
type Exporter interface {
	Name() string
	Export(title string, tree *proptree.Tree) (*LexemExport, bool)
}

// DefaultName is the exporter used when none is named.
const DefaultName = "en-de"

var ErrUnknown = errors.New("unknown exporter")

// ForName returns the named exporter.
func ForName(name string) (Exporter, error) {
	switch name {
	case "", DefaultName:
		return EnglishGerman{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
}
