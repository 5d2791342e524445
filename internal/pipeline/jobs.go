package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/wikigest/internal/splitter"
)

// JobStatus represents the state of a dump ingestion job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusReading   JobStatus = "reading"
	StatusParsing   JobStatus = "parsing"
	StatusStoring   JobStatus = "storing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// maxJobErrors caps the error messages kept per job. Counts keep going.
const maxJobErrors = 100

// Request describes what a job does with its dump.
type Request struct {
	Adapter         string          `json:"adapter,omitempty"`
	Filter          splitter.Filter `json:"filter"`
	Export          bool            `json:"export,omitempty"`
	Raw             bool            `json:"raw,omitempty"`
	StripCategories bool            `json:"strip_categories,omitempty"`
	StopOnError     bool            `json:"stop_on_error,omitempty"`
}

// Job tracks the state of a single dump ingestion.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Request  Request   `json:"request"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	source string
	errors []string
}

// Progress counts pages as they move through a job.
type Progress struct {
	PagesRead   int      `json:"pages_read"`
	PagesDone   int      `json:"pages_done"`
	PagesFailed int      `json:"pages_failed"`
	Saved       int      `json:"saved"`
	Errors      []string `json:"errors"`
}

// NewJob returns a queued job reading the dump spooled at source.
func NewJob(filename, source string, req Request) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
		source:    source,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.addErrorLocked(err)
}

func (j *Job) addErrorLocked(err string) {
	if len(j.errors) < maxJobErrors {
		j.errors = append(j.errors, err)
		j.Progress.Errors = j.errors
	}
	j.UpdatedAt = time.Now()
}

// PageRead counts a page taken from the dump.
func (j *Job) PageRead() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.PagesRead++
	j.UpdatedAt = time.Now()
}

// PageDone counts a processed page and the records it saved.
func (j *Job) PageDone(saved int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.PagesDone++
	j.Progress.Saved += saved
	j.UpdatedAt = time.Now()
}

// PageFailed counts a failed page and keeps its error.
func (j *Job) PageFailed(seq int, title string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.PagesFailed++
	j.addErrorLocked(fmt.Sprintf("page %d %q: %s", seq, title, err))
}

// Source returns the path of the spooled dump.
func (j *Job) Source() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.source
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Request     Request   `json:"request"`
	Progress    Progress  `json:"progress"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Request:     j.Request,
		Progress:    p,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}
