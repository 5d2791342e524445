package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/dgallion1/wikigest/internal/parser"
	"github.com/dgallion1/wikigest/internal/proptree"
)

// Fixture is a regression page: markup and the tree it must parse to.
type Fixture struct {
	Text   string         `json:"text"`
	Parsed *proptree.Tree `json:"parsed"`
}

// Result is the outcome of checking one fixture.
type Result struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	// Diff is a unified diff from the expected tree to the parsed one.
	Diff string `json:"diff,omitempty"`
}

// Load reads a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return &f, nil
}

// Record parses text and writes it as a fixture, overwriting path.
func Record(path, text string, opts parser.Options) error {
	f := Fixture{Text: text, Parsed: parser.Parse(text, opts)}
	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// Check parses the fixture text and compares it with the expected tree.
func Check(name string, f *Fixture, opts parser.Options) (Result, error) {
	got := parser.Parse(f.Text, opts)
	res := Result{Name: name, OK: proptree.Equal(got, f.Parsed)}
	if res.OK {
		return res, nil
	}

	want, err := canonical(f.Parsed)
	if err != nil {
		return res, err
	}
	have, err := canonical(got)
	if err != nil {
		return res, err
	}
	base := filepath.Base(name)
	edits := myers.ComputeEdits(span.URIFromPath(base), want, have)
	res.Diff = fmt.Sprint(gotextdiff.ToUnified(base+" (expected)", base+" (parsed)", want, edits))
	return res, nil
}

// CheckFile loads and checks a fixture file.
func CheckFile(path string, opts parser.Options) (Result, error) {
	f, err := Load(path)
	if err != nil {
		return Result{Name: path}, err
	}
	return Check(path, f, opts)
}

// canonical renders a tree as indented JSON with sorted keys, one value per
// line, so diffs line up with the tree structure.
func canonical(t *proptree.Tree) (string, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tree: %w", err)
	}
	return string(data) + "\n", nil
}
