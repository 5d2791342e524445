package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgallion1/wikigest/internal/adapter"
	"github.com/dgallion1/wikigest/internal/config"
	"github.com/dgallion1/wikigest/internal/parser"
	"github.com/dgallion1/wikigest/internal/store"
)

// Orchestrator manages the dump ingestion pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	registry *adapter.Registry
	sink     store.Sink
	stats    *ParseStats
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Workers run once Start is called.
func NewOrchestrator(cfg config.Config, registry *adapter.Registry, sink store.Sink, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		registry: registry,
		sink:     sink,
		stats:    NewParseStats(time.Hour),
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	parse := parser.Options{Debug: o.cfg.Debug, MaxDepth: o.cfg.MaxDepth}
	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.registry, o.sink, o.stats, o.log, parse, o.cfg.Exporter, o.cfg.MaxConcurrentPages)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing. A job that cannot be queued is
// marked failed and its spooled dump removed.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		_ = os.Remove(job.Source())
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the parse latency window shared by every worker.
func (o *Orchestrator) Stats() *ParseStats {
	return o.stats
}

// Registry returns the adapter registry jobs resolve against.
func (o *Orchestrator) Registry() *adapter.Registry {
	return o.registry
}
