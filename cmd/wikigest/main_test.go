package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/wikigest/internal/store"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WIKIGEST_CONFIG", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func compactJSON(t *testing.T, s string) string {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("invalid json %q: %v", s, err)
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func TestParseCmd_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "foo.wiki", "== Foo ==\n{{bar|baz}}")
	out, err := run(t, "", "parse", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := compactJSON(t, out), `{"Foo":{"bar":{"#text":"baz"}}}`; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestParseCmd_Stdin(t *testing.T) {
	out, err := run(t, "time: 10:30", "parse", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"time"`) {
		t.Errorf("expected time key, got %s", out)
	}
}

func TestParseCmd_Markdown(t *testing.T) {
	out, err := run(t, "== Foo ==\n{{bar|baz}}", "parse", "--markdown", "--title", "Haus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"# Haus", "## Foo", "### bar", "baz"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestParseCmd_MissingFile(t *testing.T) {
	if _, err := run(t, "", "parse", filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCheckCmd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pass.json", `{"text":"== Foo ==\n{{bar|baz}}","parsed":{"Foo":{"bar":{"#text":"baz"}}}}`)

	out, err := run(t, "", "check", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "PASS") || !strings.Contains(out, "1 fixtures, 0 failed") {
		t.Errorf("unexpected output %q", out)
	}

	writeFile(t, dir, "fail.json", `{"text":"== Foo ==\n{{bar|qux}}","parsed":{"Foo":{"bar":{"#text":"baz"}}}}`)
	writeFile(t, dir, "notes.txt", "ignored")
	out, err = run(t, "", "check", dir)
	if !errors.Is(err, errMismatch) {
		t.Fatalf("expected errMismatch, got %v", err)
	}
	for _, want := range []string{"FAIL", `+      "#text": "qux"`, "2 fixtures, 1 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestRecordCmd(t *testing.T) {
	dir := t.TempDir()
	markup := writeFile(t, dir, "haus.wiki", "==German==\n===Noun===\n# house")
	fixturePath := filepath.Join(dir, "haus.json")

	if _, err := run(t, "", "record", markup, fixturePath); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := run(t, "", "check", fixturePath); err != nil {
		t.Errorf("expected recorded fixture to pass, got %v", err)
	}
}

const cliDump = `<mediawiki>
<page><title>Haus</title><ns>0</ns><id>1</id>
<revision><id>10</id><timestamp>2020-01-02T03:04:05Z</timestamp><text>==German==
===Noun===
# house

==Dutch==
# home</text></revision></page>
<page><title>Talk:Haus</title><ns>1</ns><id>2</id>
<revision><id>11</id><text>==German==
# chatter</text></revision></page>
</mediawiki>`

func TestSplitCmd(t *testing.T) {
	dir := t.TempDir()
	xmlPath := writeFile(t, dir, "dump.xml", cliDump)
	out := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "wiki.db")

	stdout, err := run(t, "", "split",
		"--xml", xmlPath,
		"--out", out,
		"--namespace", "0",
		"--adapters-dir", filepath.Join(dir, "none"),
		"--sqlite", dbPath,
		"--export",
		"German")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "1 pages, 1 saved, 0 failed") {
		t.Errorf("unexpected summary %q", stdout)
	}

	data, err := os.ReadFile(filepath.Join(out, "German", "Haus"))
	if err != nil {
		t.Fatalf("expected entry file: %v", err)
	}
	var e store.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatal(err)
	}
	if e.Title != "Haus" || e.Exported == nil {
		t.Errorf("unexpected entry %+v", e)
	}
	if _, err := os.Stat(filepath.Join(out, "Dutch")); !os.IsNotExist(err) {
		t.Error("expected Dutch to be filtered out")
	}

	db, err := store.OpenSQLite(context.Background(), dbPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.GetEntry(context.Background(), "Haus", "German"); err != nil {
		t.Errorf("expected entry in sqlite: %v", err)
	}
}

func TestSplitCmd_Raw(t *testing.T) {
	dir := t.TempDir()
	xmlPath := writeFile(t, dir, "dump.xml", cliDump)
	out := filepath.Join(dir, "out")

	if _, err := run(t, "", "split", "--xml", xmlPath, "--out", out, "--raw", "--adapters-dir", dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, path := range []string{"Haus", "Talk:Haus"} {
		if _, err := os.Stat(filepath.Join(out, path)); err != nil {
			t.Errorf("expected raw page %s: %v", path, err)
		}
	}
}

func TestSplitCmd_Errors(t *testing.T) {
	if _, err := run(t, "", "split"); err == nil {
		t.Error("expected error without --xml")
	}
	dir := t.TempDir()
	xmlPath := writeFile(t, dir, "dump.xml", cliDump)
	if _, err := run(t, "", "split", "--xml", xmlPath, "--out", dir, "--adapter", "klingon", "--adapters-dir", dir); err == nil {
		t.Error("expected error for unknown adapter")
	}
}

func TestAdaptersCmd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "frwiktionary.yaml", "name: frwiktionary\nboundary: '^== *\\{\\{langue\\|'\nsplit: '\\||\\}\\}'\nindex: 1\n")
	out, err := run(t, "", "adapters", "--adapters-dir", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"base", "dewiktionary", "plwiktionary", "frwiktionary"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %s in %q", name, out)
		}
	}
}

func TestColorDiff(t *testing.T) {
	got := colorDiff("--- a\n+++ b\n@@ -1 +1 @@\n-x\n+y\n z\n")
	for _, want := range []string{"--- a", "+++ b", "-x", "+y", " z"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("expected trailing newline")
	}
}
