package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/dgallion1/wikigest/internal/dump"
	"github.com/dgallion1/wikigest/internal/export"
	"github.com/dgallion1/wikigest/internal/proptree"
)

type entryModel struct {
	bun.BaseModel `bun:"table:entries,alias:e"`

	ID         int64     `bun:",pk,autoincrement"`
	Title      string    `bun:"title,notnull,unique:title_lang"`
	Lang       string    `bun:"lang,notnull,unique:title_lang"`
	RevisionID int64     `bun:"revision_id"`
	Timestamp  time.Time `bun:"timestamp"`
	Text       string    `bun:"text"`
	Parsed     string    `bun:"parsed"`
	Exported   string    `bun:"exported"`
	UpdatedAt  time.Time `bun:"updated_at"`
}

// entryTextModel indexes every text leaf of a parsed entry with the key
// path that leads to it.
type entryTextModel struct {
	bun.BaseModel `bun:"table:entry_texts,alias:t"`

	ID      int64  `bun:",pk,autoincrement"`
	EntryID int64  `bun:"entry_id,notnull"`
	Path    string `bun:"path"`
	Text    string `bun:"text"`
}

type rawPageModel struct {
	bun.BaseModel `bun:"table:raw_pages,alias:r"`

	ID         int64  `bun:",pk,autoincrement"`
	Title      string `bun:"title,notnull,unique"`
	Namespace  int    `bun:"namespace"`
	RevisionID int64  `bun:"revision_id"`
	Data       string `bun:"data"`
}

type parseErrorModel struct {
	bun.BaseModel `bun:"table:parse_errors,alias:pe"`

	ID        int64     `bun:",pk,autoincrement"`
	Seq       int       `bun:"seq"`
	Title     string    `bun:"title"`
	Message   string    `bun:"message"`
	Raw       string    `bun:"raw"`
	CreatedAt time.Time `bun:"created_at"`
}

// EntrySummary is a row of ListEntries.
type EntrySummary struct {
	Title      string    `bun:"title" json:"title"`
	Lang       string    `bun:"lang" json:"lang"`
	RevisionID int64     `bun:"revision_id" json:"revision_id"`
	Timestamp  time.Time `bun:"timestamp" json:"timestamp"`
}

// TextHit is a row of SearchText.
type TextHit struct {
	Title string `bun:"title" json:"title"`
	Lang  string `bun:"lang" json:"lang"`
	Path  string `bun:"path" json:"path"`
	Text  string `bun:"text" json:"text"`
}

// PathSeparator joins key paths in the text index.
const PathSeparator = " > "

// SQLiteStore keeps entries in SQLite through bun, with a text index over
// every parsed leaf.
type SQLiteStore struct {
	db     *bun.DB
	logger *slog.Logger
}

// IsBusy reports whether err is SQLite refusing a write because another
// connection holds the lock. Such writes can be retried.
func IsBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	sqldb, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := NewSQLiteStore(bun.NewDB(sqldb, sqlitedialect.New()), logger)
	if err := s.Migrate(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an existing bun database. SQLite allows one writer,
// so the pool is limited to a single connection.
func NewSQLiteStore(db *bun.DB, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db, logger: logger}
}

// Migrate creates the tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	models := []any{
		(*entryModel)(nil),
		(*entryTextModel)(nil),
		(*rawPageModel)(nil),
		(*parseErrorModel)(nil),
	}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	if _, err := s.db.NewCreateIndex().
		Model((*entryTextModel)(nil)).
		Index("entry_texts_entry_id_idx").
		Column("entry_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// SaveEntry inserts or replaces the entry for (title, lang) and rebuilds its
// text index.
func (s *SQLiteStore) SaveEntry(ctx context.Context, e Entry) error {
	parsed, err := json.Marshal(e.Parsed)
	if err != nil {
		return fmt.Errorf("marshal parsed: %w", err)
	}
	var exported []byte
	if e.Exported != nil {
		if exported, err = json.Marshal(e.Exported); err != nil {
			return fmt.Errorf("marshal export: %w", err)
		}
	}

	model := &entryModel{
		Title:      e.Title,
		Lang:       e.Lang,
		RevisionID: e.RevisionID,
		Timestamp:  e.Timestamp,
		Text:       e.Text,
		Parsed:     string(parsed),
		Exported:   string(exported),
		UpdatedAt:  time.Now().UTC(),
	}

	var texts []entryTextModel
	proptree.Walk(e.Parsed, func(path []string, text string) {
		texts = append(texts, entryTextModel{Path: strings.Join(path, PathSeparator), Text: text})
	})

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(model).
			On("CONFLICT (title, lang) DO UPDATE").
			Set("revision_id = EXCLUDED.revision_id").
			Set("timestamp = EXCLUDED.timestamp").
			Set("text = EXCLUDED.text").
			Set("parsed = EXCLUDED.parsed").
			Set("exported = EXCLUDED.exported").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert entry %q: %w", e.Title, err)
		}

		var id int64
		if err := tx.NewSelect().
			Model((*entryModel)(nil)).
			Column("id").
			Where("title = ? AND lang = ?", e.Title, e.Lang).
			Scan(ctx, &id); err != nil {
			return fmt.Errorf("lookup entry id: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*entryTextModel)(nil)).
			Where("entry_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear text index: %w", err)
		}
		if len(texts) == 0 {
			return nil
		}
		for i := range texts {
			texts[i].EntryID = id
		}
		if _, err := tx.NewInsert().Model(&texts).Exec(ctx); err != nil {
			return fmt.Errorf("index texts: %w", err)
		}
		return nil
	})
}

// GetEntry returns the stored entry, or ErrNotFound.
func (s *SQLiteStore) GetEntry(ctx context.Context, title, lang string) (*Entry, error) {
	var m entryModel
	err := s.db.NewSelect().
		Model(&m).
		Where("title = ? AND lang = ?", title, lang).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	e := &Entry{
		Title:      m.Title,
		Lang:       m.Lang,
		RevisionID: m.RevisionID,
		Timestamp:  m.Timestamp,
		Text:       m.Text,
	}
	if m.Parsed != "" && m.Parsed != "null" {
		e.Parsed = proptree.New()
		if err := json.Unmarshal([]byte(m.Parsed), e.Parsed); err != nil {
			return nil, fmt.Errorf("decode parsed %q: %w", title, err)
		}
	}
	if m.Exported != "" {
		e.Exported = &export.LexemExport{}
		if err := json.Unmarshal([]byte(m.Exported), e.Exported); err != nil {
			return nil, fmt.Errorf("decode export %q: %w", title, err)
		}
	}
	return e, nil
}

// ListEntries returns entries ordered by title, optionally for one language.
func (s *SQLiteStore) ListEntries(ctx context.Context, lang string, limit int) ([]EntrySummary, error) {
	var out []EntrySummary
	q := s.db.NewSelect().
		Model((*entryModel)(nil)).
		Column("title", "lang", "revision_id", "timestamp").
		OrderExpr("title ASC, lang ASC").
		Limit(limit)
	if lang != "" {
		q = q.Where("lang = ?", lang)
	}
	if err := q.Scan(ctx, &out); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

// SearchText finds indexed text leaves containing q, case-insensitively for
// ASCII.
func (s *SQLiteStore) SearchText(ctx context.Context, q string, limit int) ([]TextHit, error) {
	var out []TextHit
	err := s.db.NewSelect().
		TableExpr("entry_texts AS t").
		ColumnExpr("e.title, e.lang, t.path, t.text").
		Join("JOIN entries AS e ON e.id = t.entry_id").
		Where("instr(lower(t.text), lower(?)) > 0", q).
		OrderExpr("e.title ASC, t.id ASC").
		Limit(limit).
		Scan(ctx, &out)
	if err != nil {
		return nil, fmt.Errorf("search text: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) SaveRaw(ctx context.Context, p *dump.Page) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}
	model := &rawPageModel{
		Title:      p.Title,
		Namespace:  p.Namespace,
		RevisionID: p.Revision.ID,
		Data:       string(data),
	}
	_, err = s.db.NewInsert().
		Model(model).
		On("CONFLICT (title) DO UPDATE").
		Set("namespace = EXCLUDED.namespace").
		Set("revision_id = EXCLUDED.revision_id").
		Set("data = EXCLUDED.data").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save raw %q: %w", p.Title, err)
	}
	return nil
}

func (s *SQLiteStore) SaveError(ctx context.Context, seq int, p *dump.Page, cause error) error {
	rec := newErrorRecord(p, cause)
	raw, err := json.Marshal(rec.Raw)
	if err != nil {
		return fmt.Errorf("marshal page: %w", err)
	}
	model := &parseErrorModel{
		Seq:       seq,
		Message:   rec.Error.Message,
		Raw:       string(raw),
		CreatedAt: time.Now().UTC(),
	}
	if p != nil {
		model.Title = p.Title
	}
	if _, err := s.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("save error %d: %w", seq, err)
	}
	return nil
}

// CountErrors returns how many failed pages have been recorded.
func (s *SQLiteStore) CountErrors(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*parseErrorModel)(nil)).Count(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
