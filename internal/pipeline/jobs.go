package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/domgest/internal/dom"
	"github.com/dgallion1/domgest/internal/render"
	"github.com/google/uuid"
)

// JobStatus represents the state of a fetch-and-parse job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusFetching  JobStatus = "fetching"
	StatusParsing   JobStatus = "parsing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single URL being fetched and parsed.
type Job struct {
	mu sync.Mutex

	ID  string `json:"job_id"`
	URL string `json:"url"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Attempts  int `json:"attempts"`
	BodyBytes int `json:"body_bytes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	tree   *dom.Tree
	errors []string
}

// NewJob returns a queued job for url with a fresh id.
func NewJob(url string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		URL:       url,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
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

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
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
	j.UpdatedAt = time.Now()
}

// IncrAttempts counts one fetch attempt.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Attempts++
	j.UpdatedAt = time.Now()
}

// SetResult stores the parsed tree and the size of the body it came from.
func (j *Job) SetResult(tree *dom.Tree, bodyBytes int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tree = tree
	j.BodyBytes = bodyBytes
	j.UpdatedAt = time.Now()
}

// Tree returns the parsed tree, or nil until the job completes.
func (j *Job) Tree() *dom.Tree {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.tree
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string        `json:"job_id"`
	URL       string        `json:"url"`
	Status    JobStatus     `json:"status"`
	Phase     string        `json:"phase"`
	Attempts  int           `json:"attempts"`
	BodyBytes int           `json:"body_bytes"`
	Errors    []string      `json:"errors"`
	Stats     *render.Stats `json:"stats,omitempty"`
	Tree      *render.Node  `json:"tree,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state. The tree is included
// only when withTree is set and the job has completed.
func (j *Job) Snapshot(withTree bool) JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	snap := JobSnapshot{
		ID:        j.ID,
		URL:       j.URL,
		Status:    j.Status,
		Phase:     j.Phase,
		Attempts:  j.Attempts,
		BodyBytes: j.BodyBytes,
		Errors:    errs,
	}
	if j.tree != nil {
		stats := render.Summarize(j.tree)
		snap.Stats = &stats
		if withTree {
			snap.Tree = render.ToNode(j.tree, dom.RootID)
		}
	}
	return snap
}
