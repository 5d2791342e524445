package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/wikigest/internal/adapter"
	"github.com/dgallion1/wikigest/internal/dump"
	"github.com/dgallion1/wikigest/internal/export"
	"github.com/dgallion1/wikigest/internal/logging"
	"github.com/dgallion1/wikigest/internal/parser"
	"github.com/dgallion1/wikigest/internal/splitter"
	"github.com/dgallion1/wikigest/internal/store"
)

// Deps is what turning one page into entries needs.
type Deps struct {
	Adapter adapter.Adapter
	Filter  splitter.Filter
	// Exporter is optional. Nil skips export.
	Exporter export.Exporter
	Parse    parser.Options
	Stats    *ParseStats
}

// ProcessPage splits a page into language sections and parses every section
// whose language passes the filter. A panic while parsing is returned as an
// error so one bad page cannot take down a run.
func ProcessPage(page *dump.Page, deps Deps) (entries []store.Entry, err error) {
	if page == nil {
		return nil, errors.New("nil page")
	}
	if deps.Adapter == nil {
		return nil, errors.New("no adapter")
	}
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = fmt.Errorf("process %q: %v", page.Title, r)
		}
	}()

	for _, sec := range splitter.Split(deps.Adapter, page.Text()) {
		lang := deps.Adapter.EntryLanguage(sec.Value)
		if lang == "" || !deps.Filter.LanguageValid(lang) {
			continue
		}

		start := time.Now()
		tree := parser.Parse(sec.Text, deps.Parse)
		deps.Stats.Record(time.Since(start))

		e := store.Entry{
			Title:      page.Title,
			Lang:       lang,
			RevisionID: page.Revision.ID,
			Timestamp:  page.Revision.Timestamp,
			Text:       sec.Text,
			Parsed:     tree,
		}
		if deps.Exporter != nil {
			if ex, ok := deps.Exporter.Export(page.Title, tree); ok {
				e.Exported = ex
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Tracker observes a run page by page. Calls may come from several
// goroutines.
type Tracker interface {
	PageRead()
	PageDone(saved int)
	PageFailed(seq int, title string, err error)
}

// Tally is a Tracker that only counts.
type Tally struct {
	mu sync.Mutex
	p  Progress
}

func (t *Tally) PageRead() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.PagesRead++
}

func (t *Tally) PageDone(saved int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.PagesDone++
	t.p.Saved += saved
}

func (t *Tally) PageFailed(int, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.PagesFailed++
}

// Progress returns the counts so far.
func (t *Tally) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.p
}

// Runner streams a dump through ProcessPage into a sink. Pages are handled
// concurrently, up to Concurrency at a time; each page is handled by one
// goroutine.
type Runner struct {
	Sink        store.Sink
	Deps        Deps
	Raw         bool
	StopOnError bool
	Concurrency int
	Log         *slog.Logger
}

// Run reads every page from r. Pages outside the filter are skipped without
// being counted. A failed page, including one that could not be decoded, is
// reported to t and saved through Sink.SaveError, and the run goes on unless
// StopOnError is set, in which case Run returns the first failure.
func (rn *Runner) Run(ctx context.Context, r io.Reader, t Tracker) error {
	log := logging.OrDiscard(rn.Log)
	if t == nil {
		t = &Tally{}
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	sem := make(chan struct{}, max(rn.Concurrency, 1))
	var wg sync.WaitGroup
	seq := 0

	// fail reports a page failure, saves it, and stops the run if asked to.
	fail := func(n int, p *dump.Page, err error) {
		log.Warn("page failed", "seq", n, "title", p.Title, "error", err)
		t.PageFailed(n, p.Title, err)
		saveCtx := context.WithoutCancel(ctx)
		if serr := withRetry(saveCtx, func() error { return rn.Sink.SaveError(saveCtx, n, p, err) }); serr != nil {
			log.Error("save error record failed", "seq", n, "error", serr)
		}
		if rn.StopOnError {
			cancel(fmt.Errorf("stopped at page %d %q: %w", n, p.Title, err))
		}
	}

	_, readErr := dump.ReadAll(ctx, r, func(p *dump.Page, decodeErr error) error {
		// An undecodable page may be missing its namespace, so it is
		// recorded without filtering.
		if decodeErr == nil && !rn.Deps.Filter.PageValid(p.Namespace, p.Title) {
			return nil
		}
		seq++
		n := seq
		t.PageRead()
		if decodeErr != nil {
			fail(n, p, decodeErr)
			return context.Cause(ctx)
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return context.Cause(ctx)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			saved, err := rn.handle(ctx, p)
			if err != nil {
				fail(n, p, err)
				return
			}
			log.Debug("page done", "seq", n, "title", p.Title, "saved", saved)
			t.PageDone(saved)
		}()
		return nil
	})
	wg.Wait()

	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return readErr
}

func (rn *Runner) handle(ctx context.Context, p *dump.Page) (int, error) {
	// In-flight pages finish even when the run stops.
	ctx = context.WithoutCancel(ctx)
	if rn.Raw {
		if err := withRetry(ctx, func() error { return rn.Sink.SaveRaw(ctx, p) }); err != nil {
			return 0, fmt.Errorf("save raw: %w", err)
		}
		return 1, nil
	}

	entries, err := ProcessPage(p, rn.Deps)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := withRetry(ctx, func() error { return rn.Sink.SaveEntry(ctx, e) }); err != nil {
			return 0, fmt.Errorf("save %s/%s: %w", e.Lang, e.Title, err)
		}
	}
	return len(entries), nil
}
