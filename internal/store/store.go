package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgallion1/wikigest/internal/dump"
	"github.com/dgallion1/wikigest/internal/export"
	"github.com/dgallion1/wikigest/internal/proptree"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("entry not found")

// Entry is one language section of a page after parsing.
type Entry struct {
	Title      string              `json:"title"`
	Lang       string              `json:"lang"`
	RevisionID int64               `json:"revisionId"`
	Timestamp  time.Time           `json:"timestamp"`
	Text       string              `json:"text"`
	Parsed     *proptree.Tree      `json:"parsed"`
	Exported   *export.LexemExport `json:"exported,omitempty"`
}

// Sink receives the output of a split run.
type Sink interface {
	SaveEntry(ctx context.Context, e Entry) error
	SaveRaw(ctx context.Context, p *dump.Page) error
	// SaveError records a page that failed. seq numbers failures in the
	// order the run saw them.
	SaveError(ctx context.Context, seq int, p *dump.Page, cause error) error
	Close() error
}

// Multi writes to every sink in turn and joins their errors.
type Multi []Sink

func (m Multi) SaveEntry(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.SaveEntry(ctx, e))
	}
	return errors.Join(errs...)
}

func (m Multi) SaveRaw(ctx context.Context, p *dump.Page) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.SaveRaw(ctx, p))
	}
	return errors.Join(errs...)
}

func (m Multi) SaveError(ctx context.Context, seq int, p *dump.Page, cause error) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.SaveError(ctx, seq, p, cause))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// errorRecord is how a failed page is persisted.
type errorRecord struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Raw *dump.Page `json:"raw"`
}

func newErrorRecord(p *dump.Page, cause error) errorRecord {
	var rec errorRecord
	if cause != nil {
		rec.Error.Message = cause.Error()
	}
	rec.Raw = p
	return rec
}
