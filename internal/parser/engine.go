package parser

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dgallion1/wikigest/internal/proptree"
)

// DefaultMaxDepth bounds how deeply list children are re-parsed.
const DefaultMaxDepth = 64

// Options controls a single Parse call. The zero value is usable.
type Options struct {
	// Debug emits slog debug records for every header and match. It never
	// changes the result.
	Debug bool
	// StripCategories removes [[Category: ...]] links from merged text.
	StripCategories bool
	// MaxDepth caps list nesting; deeper fragments are kept as plain text.
	MaxDepth int
	Logger   *slog.Logger
}

type engine struct {
	opts Options
	log  *slog.Logger
}

func newEngine(opts Options) *engine {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &engine{opts: opts, log: log}
}

// Parse converts one entry's markup into a property tree. Headers open
// nested scopes and the text between them is fed through the expression
// chain. Empty input returns nil.
func Parse(text string, opts Options) *proptree.Tree {
	if text == "" {
		return nil
	}
	e := newEngine(opts)

	root := proptree.New()
	stack := []*proptree.Tree{root}
	current := 0
	var pending strings.Builder

	flush := func() {
		if pending.Len() == 0 {
			return
		}
		for _, frag := range bulletSplit1.Split(pending.String(), -1) {
			if frag != "" {
				e.parseFragment(frag, stack[len(stack)-1], 1)
			}
		}
		pending.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		level := headerLevel(line)
		if level == 0 {
			pending.WriteByte('\n')
			pending.WriteString(line)
			continue
		}

		flush()
		title := headerTitle(line)
		e.debug("found header", "level", level, "title", title)

		if level <= current {
			for n := current - level + 1; n > 0 && len(stack) > 1; n-- {
				stack = stack[:len(stack)-1]
			}
		}
		stack = append(stack, stack[len(stack)-1].Child(title))
		current = level
	}
	flush()

	return root
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader, opts Options) (*proptree.Tree, error) {
	var sb strings.Builder
	if _, err := io.Copy(&sb, bufio.NewReader(r)); err != nil {
		return nil, fmt.Errorf("read markup: %w", err)
	}
	return Parse(sb.String(), opts), nil
}

// parseFragment offers text to the chain until nothing is left, re-offering
// each match's rest at the same level.
func (e *engine) parseFragment(text string, scope *proptree.Tree, level int) {
	exprOpts := ExprOptions{
		Debug:           e.opts.Debug,
		StripCategories: e.opts.StripCategories,
		SplitLevel:      level,
	}

	for {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		if level > e.opts.MaxDepth {
			e.debug("depth limit reached", "level", level)
			e.mergeText(scope, text)
			return
		}

		res, name, ok := matchFragment(text, exprOpts)
		if !ok {
			e.mergeText(scope, text)
			return
		}
		e.debug("matched expression", "matcher", name, "level", level, "parsed", len(res.Parsed))

		if res.IsText {
			e.mergeText(scope, res.Parsed[0])
		} else {
			e.attach(res.Parsed, scope, level)
		}
		text = res.Rest
	}
}

// attach merges a fresh child scope under parsed[0] and parses every
// remaining entry into it one level deeper.
func (e *engine) attach(parsed []string, scope *proptree.Tree, level int) {
	child := scope.Child(strings.TrimSpace(parsed[0]))

	next := level + 1
	split := childSplit(next)
	for _, c := range parsed[1:] {
		for _, piece := range split.Split(bulletEscape.Replace(c), -1) {
			e.parseFragment(piece, child, next)
		}
	}
}

func (e *engine) mergeText(scope *proptree.Tree, text string) {
	if e.opts.StripCategories {
		text = categoryPattern.ReplaceAllString(text, "")
	}
	text = markerStripper.Replace(text)
	if text != "" {
		scope.MergeText(proptree.TextKey, text)
	}
}

func (e *engine) debug(msg string, args ...any) {
	if e.opts.Debug {
		e.log.Debug(msg, args...)
	}
}
