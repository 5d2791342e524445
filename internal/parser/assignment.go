package parser

import (
	"strings"

	"github.com/dgallion1/wikigest/internal/proptree"
)

// outsideAssignment matches "key: value" and splits on the first colon only,
// so "time: 10:30" keeps its value whole.
type outsideAssignment struct{}

func (outsideAssignment) name() string { return "outsideAssignment" }

func (outsideAssignment) tryParse(text string, _ ExprOptions) (Result, bool) {
	m := outsideAssignmentPattern.FindString(text)
	if m == "" || strings.ContainsAny(m, "{}") {
		return Result{}, false
	}
	i := strings.IndexByte(text, ':')
	return Result{Parsed: []string{text[:i], text[i+1:]}}, true
}

// assignment matches "key = value" template parameters. Every '=' splits,
// and each piece after the first becomes a child.
type assignment struct{}

func (assignment) name() string { return "assignment" }

func (assignment) tryParse(text string, _ ExprOptions) (Result, bool) {
	if !assignmentPattern.MatchString(text) {
		return Result{}, false
	}
	parts := strings.Split(text, "=")
	if strings.ContainsAny(parts[0], "{}") {
		return Result{}, false
	}
	return Result{Parsed: parts}, true
}

// textWithChild matches narrative text followed by deeper bullets. The text
// lands under #text and the bullets become its children.
type textWithChild struct{}

func (textWithChild) name() string { return "textWithChild" }

func (textWithChild) tryParse(text string, opts ExprOptions) (Result, bool) {
	parts := childSplit(opts.SplitLevel).Split(text, -1)
	if len(parts) < 2 {
		return Result{}, false
	}
	return Result{Parsed: append([]string{proptree.TextKey}, parts...)}, true
}

// textLine peels off the first line as text and leaves the rest.
type textLine struct{}

func (textLine) name() string { return "textLine" }

func (textLine) tryParse(text string, _ ExprOptions) (Result, bool) {
	i := strings.IndexByte(text, '\n')
	if i < 0 {
		return Result{}, false
	}
	return Result{Parsed: []string{text[:i]}, Rest: text[i+1:], IsText: true}, true
}
