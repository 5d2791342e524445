package export

import (
	"strings"

	"github.com/dgallion1/wikigest/internal/proptree"
	"golang.org/x/net/html"
)

// germanParts maps English Wiktionary headers to parts of speech, in the
// order they are probed.
var germanParts = []struct {
	header string
	part   GrammarPart
}{
	{"Adjective", Adjective},
	{"Adverb", Adverb},
	{"Noun", Noun},
	{"Verb", Verb},
}

// EnglishGerman exports German entries from English Wiktionary, translating
// them into English meanings.
type EnglishGerman struct{}

func (EnglishGerman) Name() string { return DefaultName }

func (EnglishGerman) Export(title string, tree *proptree.Tree) (*LexemExport, bool) {
	germans := tree.Trees("German")
	if len(germans) == 0 {
		return nil, false
	}
	german := germans[0]

	for _, gp := range germanParts {
		if !german.Has(gp.header) {
			continue
		}
		return &LexemExport{
			Lexem: Lexem{Lemma: title, Part: gp.part},
			Translation: LexemTranslation{
				Lexem:    title,
				Part:     gp.part,
				Lang:     "en",
				Meanings: meanings(german, gp.header),
			},
		}, true
	}
	return nil, false
}

func meanings(scope *proptree.Tree, header string) []LexemMeaning {
	var out []LexemMeaning
	add := func(s string) {
		if s = stripHTML(s); s != "" {
			out = append(out, LexemMeaning{Meaning: s})
		}
	}
	for _, s := range scope.Texts(header) {
		add(s)
	}
	for _, t := range scope.Trees(header) {
		for _, s := range t.Texts(proptree.TextKey) {
			add(s)
		}
	}
	return out
}

// stripHTML drops inline markup and <ref> citations and decodes entities.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return textContent(doc)
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "ref" || n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
