package parser

import (
	"reflect"
	"testing"
)

func TestMatchers(t *testing.T) {
	tests := []struct {
		name    string
		m       matcher
		in      string
		level   int
		want    []string
		rest    string
		isText  bool
		noMatch bool
	}{
		{
			name: "outside template stops at next template",
			m:    outsideTemplate{},
			in:   "{{a}}\n: one\n: two\n{{b}}",
			want: []string{"a", "\n", " one\n", " two\n"},
			rest: "{{b}}",
		},
		{
			name:    "outside template needs definition lines",
			m:       outsideTemplate{},
			in:      "{{a|b}}",
			noMatch: true,
		},
		{
			name: "template with rest",
			m:    template{},
			in:   "{{a|b}} tail",
			want: []string{"a", "b"},
			rest: " tail",
		},
		{
			name: "template skips leading separators",
			m:    template{},
			in:   ", {{a}}",
			want: []string{"a"},
		},
		{
			name:    "template must lead",
			m:       template{},
			in:      "ab {{a}}",
			noMatch: true,
		},
		{
			name: "parenthesized range label",
			m:    parenthesizedTemplate{},
			in:   "(1.1-3) {{odmiana|x}}",
			want: []string{"(1.1-3)", " ", "{{odmiana|x}}"},
		},
		{
			name:    "parenthesized rejects words",
			m:       parenthesizedTemplate{},
			in:      "(see) {{a}}",
			noMatch: true,
		},
		{
			name: "outside assignment",
			m:    outsideAssignment{},
			in:   "Mianownik-lp: x: y",
			want: []string{"Mianownik-lp", " x: y"},
		},
		{
			name:    "outside assignment rejects templates",
			m:       outsideAssignment{},
			in:      "{{a}}: x",
			noMatch: true,
		},
		{
			name: "assignment splits every equals",
			m:    assignment{},
			in:   "key = {{x}} = y",
			want: []string{"key ", " {{x}} ", " y"},
		},
		{
			name:  "text with child at level two",
			m:     textWithChild{},
			in:    "intro ** one ## two",
			want:  []string{"#text", "intro", "one", "two"},
			level: 2,
		},
		{
			name:  "text with child at level three",
			m:     textWithChild{},
			in:    "intro *** one #* two",
			want:  []string{"#text", "intro", "one", "two"},
			level: 3,
		},
		{
			name:    "text with child ignores shallower bullets",
			m:       textWithChild{},
			in:      "intro ** one",
			level:   3,
			noMatch: true,
		},
		{
			name:   "text line",
			m:      textLine{},
			in:     "first\nsecond\nthird",
			want:   []string{"first"},
			rest:   "second\nthird",
			isText: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := tt.m.tryParse(tt.in, ExprOptions{SplitLevel: tt.level})
			if tt.noMatch {
				if ok {
					t.Fatalf("expected no match, got %+v", res)
				}
				return
			}
			if !ok {
				t.Fatal("expected a match")
			}
			if !reflect.DeepEqual(res.Parsed, tt.want) {
				t.Errorf("expected parsed %q, got %q", tt.want, res.Parsed)
			}
			if res.Rest != tt.rest {
				t.Errorf("expected rest %q, got %q", tt.rest, res.Rest)
			}
			if res.IsText != tt.isText {
				t.Errorf("expected isText %v, got %v", tt.isText, res.IsText)
			}
		})
	}
}

func TestSplitTemplateArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a|b|c", []string{"a", "b", "c"}},
		{"a||b", []string{"a", "", "b"}},
		{"x|{{y|z}}", []string{"x", "{{y|z}}"}},
		{"Mianownik lp = cena|Mianownik lm = ceny", []string{"Mianownik lp = cena", "Mianownik lm = ceny"}},
	}
	for _, tt := range tests {
		if got := splitTemplateArgs(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitTemplateArgs(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestChainOrder(t *testing.T) {
	// A template followed by definition lines belongs to the outside matcher.
	_, name, ok := matchFragment("{{a}}\n: one", ExprOptions{SplitLevel: 1})
	if !ok || name != "outsideTemplate" {
		t.Errorf("expected outsideTemplate, got %q", name)
	}
	_, name, ok = matchFragment("{{a}}", ExprOptions{SplitLevel: 1})
	if !ok || name != "template" {
		t.Errorf("expected template, got %q", name)
	}
	if _, _, ok := matchFragment("plain", ExprOptions{SplitLevel: 1}); ok {
		t.Error("expected plain text to fall through the chain")
	}
}
