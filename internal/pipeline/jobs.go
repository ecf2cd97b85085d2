// Package pipeline runs asynchronous document ingestion: an in-memory job
// registry and a worker pool draining a bounded queue.
package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/guidekb/internal/ingest"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusIngesting  JobStatus = "ingesting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Meta ingest.Meta `json:"-"`

	Summary *ingest.Summary `json:"summary,omitempty"`
	Errors  []string        `json:"errors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Raw upload bytes; dropped once the worker finishes.
	fileData []byte
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records a processing error.
func (j *Job) AddError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Errors = append(j.Errors, msg)
	j.UpdatedAt = time.Now()
}

// SetSummary records the ingestion outcome.
func (j *Job) SetSummary(s *ingest.Summary) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Summary = s
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw upload bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw upload bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

func (j *Job) dropFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// touchedAt reads UpdatedAt under the job lock, for eviction checks that
// run concurrently with workers updating the job.
func (j *Job) touchedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string          `json:"job_id"`
	DocID    string          `json:"doc_id"`
	Filename string          `json:"filename"`
	Status   JobStatus       `json:"status"`
	Phase    string          `json:"phase"`
	Summary  *ingest.Summary `json:"summary,omitempty"`
	Errors   []string        `json:"errors"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Errors
	if errs == nil {
		errs = []string{}
	}
	var summary *ingest.Summary
	if j.Summary != nil {
		s := *j.Summary
		summary = &s
	}
	return JobSnapshot{
		ID:       j.ID,
		DocID:    j.Meta.DocID,
		Filename: j.Filename,
		Status:   j.Status,
		Phase:    j.Phase,
		Summary:  summary,
		Errors:   errs,
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
		if now.Sub(job.touchedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
