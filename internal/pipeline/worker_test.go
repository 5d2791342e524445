package pipeline

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/wikigest/internal/adapter"
	"github.com/dgallion1/wikigest/internal/config"
	"github.com/dgallion1/wikigest/internal/logging"
	"github.com/dgallion1/wikigest/internal/splitter"
)

func spoolSample(t *testing.T) (string, string) {
	t.Helper()
	path, hash, err := Spool(strings.NewReader(sampleDump), t.TempDir())
	if err != nil {
		t.Fatalf("spool: %v", err)
	}
	return path, hash
}

func waitDone(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := job.Snapshot()
		switch snap.Status {
		case StatusCompleted, StatusFailed, StatusPartial:
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish, last status %q", job.ID, job.Snapshot().Status)
	return JobSnapshot{}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.WorkerCount = 1
	cfg.MaxQueueSize = 2
	return cfg
}

func TestOrchestrator_ProcessesJob(t *testing.T) {
	sink := newMemSink()
	o := NewOrchestrator(testConfig(), adapter.NewRegistry(), sink, logging.Discard())
	o.Start(context.Background())
	defer o.Stop()

	path, hash := spoolSample(t)
	job := NewJob("sample.xml", path, Request{
		Filter: splitter.Filter{Namespaces: []int{0}, Languages: []string{"German"}},
		Export: true,
	})
	job.ContentHash = hash
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := waitDone(t, job)
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Saved != 2 || snap.Progress.PagesRead != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	for _, e := range sink.entries {
		if e.Exported == nil {
			t.Errorf("expected %s to be exported", e.Title)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected spooled dump to be removed, stat err = %v", err)
	}
	if o.Stats().Snapshot().Count != 2 {
		t.Errorf("expected 2 recorded parses, got %d", o.Stats().Snapshot().Count)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected job to be retrievable")
	}
}

func TestOrchestrator_PartialJob(t *testing.T) {
	sink := newMemSink()
	sink.failTitle = "Baum"
	o := NewOrchestrator(testConfig(), adapter.NewRegistry(), sink, logging.Discard())
	o.Start(context.Background())
	defer o.Stop()

	path, _ := spoolSample(t)
	job := NewJob("sample.xml", path, Request{Filter: splitter.Filter{Namespaces: []int{0}}})
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := waitDone(t, job)
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", snap.Status)
	}
	if snap.Progress.PagesFailed != 1 || len(snap.Progress.Errors) != 1 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
}

func TestOrchestrator_UnknownAdapter(t *testing.T) {
	o := NewOrchestrator(testConfig(), adapter.NewRegistry(), newMemSink(), logging.Discard())
	o.Start(context.Background())
	defer o.Stop()

	path, _ := spoolSample(t)
	job := NewJob("sample.xml", path, Request{Adapter: "klingon"})
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	snap := waitDone(t, job)
	if snap.Status != StatusFailed || snap.Phase != "reading" {
		t.Errorf("expected failure while reading, got %q/%q", snap.Status, snap.Phase)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(cfg, adapter.NewRegistry(), newMemSink(), logging.Discard())

	first, _ := spoolSample(t)
	second, _ := spoolSample(t)
	if err := o.Submit(NewJob("a.xml", first, Request{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := NewJob("b.xml", second, Request{})
	if err := o.Submit(job); err == nil {
		t.Fatal("expected queue full error")
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", job.Snapshot().Status)
	}
	if _, err := os.Stat(second); !os.IsNotExist(err) {
		t.Error("expected rejected dump to be removed")
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}
