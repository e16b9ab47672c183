package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/enrich"
)

// JobStatus represents the state of an enrichment job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusReading      JobStatus = "reading"
	StatusShortlisting JobStatus = "shortlisting"
	StatusProbing      JobStatus = "probing"
	StatusEnriching    JobStatus = "enriching"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
	StatusDupSkipped   JobStatus = "duplicate_skipped"
)

// Job tracks the state of a single article enrichment.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Keywords []string  `json:"keywords"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	sourceData []byte
	result     string
	report     *enrich.Report
	errors     []string
}

// Progress tracks enrichment progress.
type Progress struct {
	Attempts      int      `json:"attempts"`
	DegradedLinks int      `json:"degraded_links"`
	Candidates    int      `json:"candidates"`
	Errors        []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction and a
// content-hash index for dedup.
type JobStore struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	byHash map[string]string
	ttl    time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs:   make(map[string]*Job),
		byHash: make(map[string]string),
		ttl:    ttl,
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

// IndexHash records a completed job under its content hash and returns the
// job ID previously holding that hash, if any.
func (s *JobStore) IndexHash(hash, jobID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byHash[hash]
	s.byHash[hash] = jobID
	return prev, ok
}

// LookupHash returns the job ID last completed for a content hash.
func (s *JobStore) LookupHash(hash string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHash[hash]
	return id, ok
}

// Cleanup removes expired jobs and their hash index entries.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
			if job.ContentHash != "" && s.byHash[job.ContentHash] == id {
				delete(s.byHash, job.ContentHash)
			}
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
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetCandidates records how many shortlisted assets survived probing.
func (j *Job) SetCandidates(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Candidates = n
	j.UpdatedAt = time.Now()
}

// SetSourceData sets the raw article bytes for processing.
func (j *Job) SetSourceData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sourceData = data
}

// SourceData returns the raw article bytes.
func (j *Job) SourceData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sourceData
}

// SetResult stores the enriched markdown and the run report.
func (j *Job) SetResult(markdown string, report *enrich.Report) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = markdown
	j.report = report
	if report != nil {
		j.Progress.Attempts = report.Attempts
		j.Progress.DegradedLinks = report.DegradedCount
	}
	j.UpdatedAt = time.Now()
}

// Result returns the enriched markdown and report, or ok=false when the job
// has not completed.
func (j *Job) Result() (string, *enrich.Report, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.result == "" {
		return "", nil, false
	}
	return j.result, j.report, true
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Keywords    []string  `json:"keywords"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Keywords:    j.Keywords,
		ContentHash: j.ContentHash,
		Progress: Progress{
			Attempts:      j.Progress.Attempts,
			DegradedLinks: j.Progress.DegradedLinks,
			Candidates:    j.Progress.Candidates,
			Errors:        errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
