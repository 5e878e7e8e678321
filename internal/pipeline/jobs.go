package pipeline

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgallion1/docreel/internal/preview"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobRunning  = errors.New("job is still running")
)

// JobStatus represents the state of a preview job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRendering JobStatus = "rendering"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// Done reports whether the job has finished, successfully or not.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// Job tracks the state of a single preview generation.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Request carries the render parameters. DocumentPath is the uploaded
	// file and OutputBase the extension-less artifact path.
	Request preview.Request `json:"-"`

	artifacts []ArtifactInfo
	frames    int
	errors    []string
	errKind   string
}

// ArtifactInfo describes one finished output file.
type ArtifactInfo struct {
	Format   preview.Format `json:"format"`
	Filename string         `json:"filename"`
	URL      string         `json:"url"`
	Bytes    int64          `json:"bytes"`
	Duration float64        `json:"duration_sec"`

	path string
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

// Fail records a fatal error and its kind, and marks the job failed.
func (j *Job) Fail(kind, err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.errKind = kind
	j.Status = StatusFailed
	j.UpdatedAt = time.Now()
}

// AddArtifact records a finished output file.
func (j *Job) AddArtifact(a ArtifactInfo) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.artifacts = append(j.artifacts, a)
	j.UpdatedAt = time.Now()
}

// SetFrames records how many sampled pages went into the timeline.
func (j *Job) SetFrames(frames int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.frames = frames
	j.UpdatedAt = time.Now()
}

// Files returns every file the job owns on disk: the upload and its artifacts.
func (j *Job) Files() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []string
	if j.Request.DocumentPath != "" {
		out = append(out, j.Request.DocumentPath)
	}
	for _, a := range j.artifacts {
		out = append(out, a.path)
	}
	return out
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string         `json:"job_id"`
	Status      JobStatus      `json:"status"`
	Phase       string         `json:"phase"`
	Filename    string         `json:"filename"`
	ContentHash string         `json:"content_hash,omitempty"`
	MaxDuration float64        `json:"max_duration"`
	Dimensions  string         `json:"dimensions"`
	Frames      int            `json:"frames"`
	Artifacts   []ArtifactInfo `json:"artifacts"`
	Errors      []string       `json:"errors"`
	ErrorKind   string         `json:"error_kind,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	artifacts := append([]ArtifactInfo{}, j.artifacts...)
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		MaxDuration: j.Request.MaxDuration,
		Dimensions:  fmt.Sprintf("%dx%d", j.Request.Width, j.Request.Height),
		Frames:      j.frames,
		Artifacts:   artifacts,
		Errors:      errs,
		ErrorKind:   j.errKind,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func (j *Job) state() (JobStatus, time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status, j.UpdatedAt
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

// Cleanup removes finished jobs idle longer than the TTL, deleting their
// upload and artifacts. Queued and rendering jobs are never evicted. It
// returns the evicted jobs.
func (s *JobStore) Cleanup() []*Job {
	now := time.Now()

	s.mu.Lock()
	var expired []*Job
	for id, job := range s.jobs {
		status, updated := job.state()
		if status.Done() && now.Sub(updated) > s.ttl {
			expired = append(expired, job)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	for _, job := range expired {
		for _, path := range job.Files() {
			os.Remove(path)
		}
	}
	return expired
}

// Remove drops a job and deletes its files. Unfinished jobs are left alone.
func (s *JobStore) Remove(id string) error {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return ErrJobNotFound
	}
	if status, _ := job.state(); !status.Done() {
		s.mu.Unlock()
		return ErrJobRunning
	}
	delete(s.jobs, id)
	s.mu.Unlock()

	for _, path := range job.Files() {
		os.Remove(path)
	}
	return nil
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
