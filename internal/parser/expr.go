package parser

// Result is the outcome of one successful expression match.
//
// Parsed[0] is the property name and the remaining entries are child
// fragments to parse one list level deeper. When IsText is set, Parsed holds
// a single line of narrative text instead. Rest is unconsumed input that is
// parsed again at the same level.
type Result struct {
	Parsed []string
	Rest   string
	IsText bool
}

// ExprOptions is what a matcher sees of the parse state.
type ExprOptions struct {
	Debug           bool
	StripCategories bool
	SplitLevel      int
}

type matcher interface {
	name() string
	tryParse(text string, opts ExprOptions) (Result, bool)
}

// chain is tried in order and the first match wins. The order is part of
// the grammar: an outside template must be seen before its leading
// template is consumed on its own.
var chain = [...]matcher{
	outsideTemplate{},
	template{},
	parenthesizedTemplate{},
	outsideAssignment{},
	assignment{},
	textWithChild{},
	textLine{},
}

func matchFragment(text string, opts ExprOptions) (Result, string, bool) {
	for _, m := range chain {
		if res, ok := m.tryParse(text, opts); ok {
			return res, m.name(), true
		}
	}
	return Result{}, "", false
}
