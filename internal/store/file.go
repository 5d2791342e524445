package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/wikigest/internal/dump"
	"golang.org/x/text/unicode/norm"
)

// ErrorsDir is the subdirectory that holds failed pages.
const ErrorsDir = "_errors"

// FileSink writes one pretty-printed JSON file per entry under a directory:
// <dir>/<lang>/<last title segment> for entries, <dir>/<title> for raw
// pages and <dir>/_errors/<seq> for failures.
type FileSink struct {
	dir    string
	logger *slog.Logger
}

// NewFileSink creates dir if needed.
func NewFileSink(dir string, logger *slog.Logger) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSink{dir: dir, logger: logger}, nil
}

// EntryPath returns where an entry is written.
func (s *FileSink) EntryPath(title, lang string) string {
	segments := strings.Split(title, "/")
	return filepath.Join(s.dir, safeName(lang), safeName(segments[len(segments)-1]))
}

// RawPath returns where a raw page is written. Slashes in the title become
// directories.
func (s *FileSink) RawPath(title string) string {
	parts := []string{s.dir}
	for _, seg := range strings.Split(title, "/") {
		parts = append(parts, safeName(seg))
	}
	return filepath.Join(parts...)
}

func (s *FileSink) SaveEntry(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.EntryPath(e.Title, e.Lang)
	s.logger.Debug("saving entry", "title", e.Title, "lang", e.Lang, "path", path)
	return writeJSON(path, e)
}

func (s *FileSink) SaveRaw(ctx context.Context, p *dump.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeJSON(s.RawPath(p.Title), p)
}

func (s *FileSink) SaveError(ctx context.Context, seq int, p *dump.Page, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, ErrorsDir, strconv.Itoa(seq))
	s.logger.Warn("saving failed page", "seq", seq, "path", path, "error", cause)
	return writeJSON(path, newErrorRecord(p, cause))
}

func (s *FileSink) Close() error { return nil }

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// safeName makes one path segment from wiki text. Titles are NFC
// normalised so decomposed and precomposed forms land in the same file.
func safeName(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, s)
	switch s {
	case "", ".", "..":
		return "_"
	}
	return s
}
