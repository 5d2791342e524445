package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/wikigest/internal/adapter"
	"github.com/dgallion1/wikigest/internal/export"
	"github.com/dgallion1/wikigest/internal/parser"
	"github.com/dgallion1/wikigest/internal/store"
)

// Worker processes a single dump job.
type Worker struct {
	registry *adapter.Registry
	sink     store.Sink
	stats    *ParseStats
	log      *slog.Logger
	parse    parser.Options
	exporter string

	maxConcurrentPages int
}

func NewWorker(registry *adapter.Registry, sink store.Sink, stats *ParseStats, log *slog.Logger, parse parser.Options, exporter string, maxPages int) *Worker {
	return &Worker{
		registry:           registry,
		sink:               sink,
		stats:              stats,
		log:                log,
		parse:              parse,
		exporter:           exporter,
		maxConcurrentPages: maxPages,
	}
}

// Process runs the full ingest pipeline for a job. The job's spooled dump is
// removed when it returns.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	src := job.Source()
	defer func() {
		if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
			log.Warn("remove spooled dump failed", "path", src, "error", err)
		}
	}()

	// Phase 1: Resolve the adapter and exporter, open the dump.
	job.SetStatus(StatusReading, "reading")
	req := job.Request
	a, err := w.registry.ForName(req.Adapter)
	if err != nil {
		w.fail(job, log, "reading", err)
		return
	}
	var exp export.Exporter
	if req.Export {
		if exp, err = export.ForName(w.exporter); err != nil {
			w.fail(job, log, "reading", err)
			return
		}
	}
	f, err := os.Open(src)
	if err != nil {
		w.fail(job, log, "reading", fmt.Errorf("open dump: %w", err))
		return
	}
	defer f.Close()

	opts := w.parse
	opts.StripCategories = req.StripCategories
	opts.Logger = log

	runner := &Runner{
		Sink: w.sink,
		Deps: Deps{
			Adapter:  a,
			Filter:   req.Filter,
			Exporter: exp,
			Parse:    opts,
			Stats:    w.stats,
		},
		Raw:         req.Raw,
		StopOnError: req.StopOnError,
		Concurrency: w.maxConcurrentPages,
		Log:         log,
	}

	// Phase 2: Stream pages. Raw jobs only store.
	phase := "parsing"
	if req.Raw {
		job.SetStatus(StatusStoring, "storing")
		phase = "storing"
	} else {
		job.SetStatus(StatusParsing, "parsing")
	}
	runErr := runner.Run(ctx, f, job)

	progress := job.Snapshot().Progress
	log.Info("dump processed",
		"pages", progress.PagesRead,
		"failed", progress.PagesFailed,
		"saved", progress.Saved)

	if runErr != nil {
		log.Error("run stopped", "error", runErr)
		job.AddError(runErr.Error())
	}
	hadErrors := runErr != nil || progress.PagesFailed > 0
	switch {
	case hadErrors && progress.Saved > 0:
		job.SetStatus(StatusPartial, "done")
	case hadErrors:
		job.SetStatus(StatusFailed, phase)
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

func (w *Worker) fail(job *Job, log *slog.Logger, phase string, err error) {
	log.Error("job failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
