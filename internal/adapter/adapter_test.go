package adapter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEntryLanguage(t *testing.T) {
	tests := []struct {
		adapter Adapter
		line    string
		want    string
	}{
		{Base(), "==German==", "German"},
		{DEWiktionary(), "== Haus ({{Sprache|Deutsch}}) ==", "Deutsch"},
		{PLWiktionary(), "== dom ({{język polski}}) ==", "język polski"},
		{DEWiktionary(), "== Haus ==", ""},
		{PLWiktionary(), "== dom ==", ""},
	}
	for _, tt := range tests {
		if !tt.adapter.LanguageMatch().MatchString(tt.line) {
			t.Errorf("%s: expected %q to be a boundary", tt.adapter.Name(), tt.line)
			continue
		}
		got := tt.adapter.EntryLanguage(SectionValue(tt.line))
		if got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.adapter.Name(), tt.want, got)
		}
	}
}

func TestLanguageMatch_Rejects(t *testing.T) {
	tests := []struct {
		adapter Adapter
		line    string
	}{
		{Base(), "===Noun==="},
		{Base(), "== Haus ({{Sprache|Deutsch}}) =="},
		{Base(), "==Etymology 1.=="},
		{DEWiktionary(), "=== {{Wortart|Substantiv|Deutsch}} ==="},
		{Base(), " ==German=="},
	}
	for _, tt := range tests {
		if tt.adapter.LanguageMatch().MatchString(tt.line) {
			t.Errorf("%s: expected %q not to be a boundary", tt.adapter.Name(), tt.line)
		}
	}
}

func TestRegistry_ForName(t *testing.T) {
	r := NewRegistry()

	a, err := r.ForName("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Name() != BaseName {
		t.Errorf("expected %q, got %q", BaseName, a.Name())
	}

	if _, err := r.ForName("klingon"); !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}

	var names []string
	for _, a := range r.List() {
		names = append(names, a.Name())
	}
	if got := strings.Join(names, ","); got != "base,dewiktionary,plwiktionary" {
		t.Errorf("expected sorted built-ins, got %s", got)
	}
}

func TestRegistry_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	single := "name: frwiktionary\nboundary: '^== \\{\\{langue\\|[a-z]+\\}\\} =='\nsplit: '\\{\\{|\\||\\}\\}'\nindex: 2\n"
	list := "- name: plain\n- name: eswiktionary\n  split: '\\{\\{|\\}\\}'\n  index: 1\n"
	if err := os.WriteFile(filepath.Join(dir, "fr.yaml"), []byte(single), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "more.yml"), []byte(list), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadDirectory(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fr, err := r.ForName("frwiktionary")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := "== {{langue|fr}} =="
	if !fr.LanguageMatch().MatchString(line) {
		t.Fatalf("expected %q to be a boundary", line)
	}
	if got := fr.EntryLanguage(SectionValue(line)); got != "fr" {
		t.Errorf("expected %q, got %q", "fr", got)
	}

	plain, err := r.ForName("plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plain.EntryLanguage("Latin"); got != "Latin" {
		t.Errorf("expected %q, got %q", "Latin", got)
	}
	if len(r.List()) != 6 {
		t.Errorf("expected 6 adapters, got %d", len(r.List()))
	}
}

func TestRegistry_LoadFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("name: bad\nsplit: '(['\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewRegistry().LoadFile(path); err == nil {
		t.Error("expected error for invalid regexp")
	}
}

func TestRegistry_LoadDirectoryMissing(t *testing.T) {
	if err := NewRegistry().LoadDirectory(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("expected nil for missing directory, got %v", err)
	}
}
