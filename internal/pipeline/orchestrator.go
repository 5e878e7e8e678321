package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/docreel/internal/config"
	"github.com/dgallion1/docreel/internal/preview"
	"github.com/dgallion1/docreel/internal/stats"
	"github.com/google/uuid"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("pipeline stopped")

// Orchestrator queues preview jobs and runs them on a fixed worker pool.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	gen    Generator
	stats  *stats.Renders
	log    *slog.Logger
	cfg    config.Config
	sweep  time.Duration
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex // guards stopped and sends on queue
	stopped bool
}

// NewOrchestrator creates the pipeline. Call Start to launch the workers.
func NewOrchestrator(cfg config.Config, gen Generator, renders *stats.Renders, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		gen:   gen,
		stats: renders,
		log:   log,
		cfg:   cfg,
		sweep: min(5*time.Minute, max(cfg.JobTTL/2, time.Second)),
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.gen, o.stats, o.log)
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
		ticker := time.NewTicker(o.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := len(o.jobs.Cleanup()); n > 0 {
					o.log.Info("expired jobs removed", "count", n)
				}
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Lock()
	if !o.stopped {
		o.stopped = true
		close(o.queue)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// NewJob stores an uploaded document under OutputDir and returns a queued
// job whose artifacts will be written next to it as <job id>.<ext>.
func (o *Orchestrator) NewJob(filename string, data []byte, req preview.Request) (*Job, error) {
	id := uuid.NewString()
	uploads := filepath.Join(o.cfg.OutputDir, "uploads")
	if err := os.MkdirAll(uploads, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	input := filepath.Join(uploads, id+strings.ToLower(filepath.Ext(filename)))
	if err := os.WriteFile(input, data, 0o644); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	req.DocumentPath = input
	req.OutputBase = filepath.Join(o.cfg.OutputDir, id)
	now := time.Now()
	return &Job{
		ID:          id,
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		Request:     req,
	}, nil
}

// Submit queues a job for processing. A full queue or a stopped pipeline
// fails the job and removes its upload.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		o.reject(job, "shutting_down", "pipeline is shutting down")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		o.reject(job, "queue_full", "job queue is full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

func (o *Orchestrator) reject(job *Job, kind, msg string) {
	job.Fail(kind, msg)
	if job.Request.DocumentPath != "" {
		os.Remove(job.Request.DocumentPath)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// DeleteJob removes a finished job together with its upload and artifacts.
func (o *Orchestrator) DeleteJob(id string) error {
	return o.jobs.Remove(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// OutputDir is where artifacts are written.
func (o *Orchestrator) OutputDir() string {
	return o.cfg.OutputDir
}

// Stats returns the render latency tracker.
func (o *Orchestrator) Stats() *stats.Renders {
	return o.stats
}
