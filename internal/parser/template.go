package parser

import "strings"

// outsideTemplate matches a template followed by one or more lines that
// belong to it, such as a section marker template and its ": (1.1) ..."
// definition lines.
type outsideTemplate struct{}

func (outsideTemplate) name() string { return "outsideTemplate" }

func (outsideTemplate) tryParse(text string, _ ExprOptions) (Result, bool) {
	var (
		matches []string
		match   strings.Builder
		level   int
		i       = 1
	)
	push := func() {
		matches = append(matches, match.String())
		match.Reset()
	}

scan:
	for ; i < len(text); i++ {
		prev, c := text[i-1], text[i]

		if prev == '{' && c == '{' {
			if level == 0 && i == 1 {
				match.WriteByte(prev)
			}
			level++
		}
		if prev == '}' && c == '}' {
			level--
			if level == 0 {
				match.WriteByte(c)
				if len(matches) == 0 {
					matches = append(matches, stripBraces(match.String()))
					match.Reset()
				}
				continue
			}
		}

		switch {
		case level > 0:
			match.WriteByte(c)
		case len(matches) > 0:
			if prev == '\n' && c == '{' {
				if len(matches) > 1 {
					push()
				}
				break scan
			}
			if prev == '\n' && c == ':' {
				push()
			} else {
				match.WriteByte(c)
			}
		case !isLeadingSeparator(c):
			break scan
		}
	}

	if len(matches) > 1 && match.Len() > 0 {
		push()
	}
	if len(matches) < 2 {
		return Result{}, false
	}
	return Result{Parsed: matches, Rest: text[i:]}, true
}

// template matches a single {{name|arg|...}} expression.
type template struct{}

func (template) name() string { return "template" }

func (template) tryParse(text string, _ ExprOptions) (Result, bool) {
	var match strings.Builder
	level := 0
	i := 1

	for ; i < len(text); i++ {
		prev, c := text[i-1], text[i]

		if prev == '{' && c == '{' {
			if level == 0 {
				match.WriteByte(prev)
			}
			level++
		}
		if prev == '}' && c == '}' {
			level--
			if level == 0 {
				match.WriteByte(c)
				break
			}
		}

		if level > 0 {
			match.WriteByte(c)
		} else if !isLeadingSeparator(c) {
			break
		}
	}

	if match.Len() == 0 {
		return Result{}, false
	}
	rest := ""
	if i+1 < len(text) {
		rest = text[i+1:]
	}
	return Result{Parsed: splitTemplateArgs(stripBraces(match.String())), Rest: rest}, true
}

// splitTemplateArgs splits on '|' except where the pipe starts a run of
// letters and pipes that runs straight into a closing brace, which keeps
// nested {{a|b}} arguments whole.
func splitTemplateArgs(s string) []string {
	var parts []string
	start := 0
	for j := 0; j < len(s); j++ {
		if s[j] != '|' || closesNested(s[j+1:]) {
			continue
		}
		parts = append(parts, s[start:j])
		start = j + 1
	}
	return append(parts, s[start:])
}

func closesNested(after string) bool {
	n := 0
	for _, r := range after {
		if r == '|' || isLetter(r) {
			n++
			continue
		}
		return n > 0 && r == '}'
	}
	return false
}

// parenthesizedTemplate matches a numbered definition label such as "(1.1)"
// followed by the templates that qualify it.
type parenthesizedTemplate struct{}

func (parenthesizedTemplate) name() string { return "parenthesizedTemplate" }

func (parenthesizedTemplate) tryParse(text string, _ ExprOptions) (Result, bool) {
	var (
		matches       []string
		match         strings.Builder
		level         int
		found, opened bool
	)
	push := func() {
		matches = append(matches, match.String())
		match.Reset()
	}

	for i := 1; i < len(text); i++ {
		prev, c := text[i-1], text[i]

		if prev == '(' && !found {
			match.WriteByte(prev)
			opened = true
		}
		if prev == ')' && opened && len(matches) == 0 {
			push()
			found = true
			opened = false
		}
		if !opened && !found && c != ' ' {
			break
		}
		if opened && !isLabelByte(c) {
			break
		}
		if found && c == '{' {
			if level == 0 {
				push()
			}
			level++
		}
		if found && prev == '}' {
			level--
			if level == 0 {
				push()
			}
		}
		match.WriteByte(c)
	}

	if !found {
		return Result{}, false
	}
	push()
	return Result{Parsed: matches}, true
}
