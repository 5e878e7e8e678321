package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dgallion1/docreel/internal/preview"
	"github.com/dgallion1/docreel/internal/stats"
)

// Generator is the part of preview.Generator a worker needs.
type Generator interface {
	Generate(ctx context.Context, req preview.Request) (*preview.Result, error)
}

// Worker renders a single preview job.
type Worker struct {
	gen   Generator
	stats *stats.Renders
	log   *slog.Logger
}

func NewWorker(gen Generator, renders *stats.Renders, log *slog.Logger) *Worker {
	return &Worker{gen: gen, stats: renders, log: log}
}

// Process runs the preview pipeline for a job and records its outcome. A
// panic inside the pipeline fails the job instead of the process.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("render panicked", "panic", r)
			if w.stats != nil {
				w.stats.Record(time.Since(start), 0, stats.OutcomeFailed)
			}
			job.Fail("internal", fmt.Sprintf("render panicked: %v", r))
		}
	}()

	job.SetStatus(StatusRendering, "rendering")
	res, err := w.gen.Generate(ctx, job.Request)

	frames := 0
	if res != nil {
		for _, a := range res.Artifacts {
			frames = len(a.Timeline.Frames)
			job.AddArtifact(ArtifactInfo{
				Format:   a.Format,
				Filename: filepath.Base(a.Path),
				URL:      "/downloads/" + filepath.Base(a.Path),
				Bytes:    a.Size,
				Duration: a.Timeline.Duration(),
				path:     a.Path,
			})
		}
		for _, fe := range res.Errors {
			job.AddError(fe.Error())
		}
	}
	job.SetFrames(frames)

	outcome := stats.OutcomeCompleted
	switch {
	case err != nil:
		outcome = stats.OutcomeFailed
	case len(res.Errors) > 0:
		outcome = stats.OutcomePartial
	}
	// Stats land before the final status so pollers see them together.
	if w.stats != nil {
		w.stats.Record(time.Since(start), frames, outcome)
	}

	switch outcome {
	case stats.OutcomeFailed:
		log.Error("render failed", "error", err, "kind", ErrorKind(err))
		if res == nil {
			job.Fail(ErrorKind(err), err.Error())
		} else {
			// Per-format errors were recorded above.
			job.Fail(ErrorKind(err), "no output format succeeded")
		}
	case stats.OutcomePartial:
		log.Warn("render partially succeeded", "artifacts", len(res.Artifacts), "failed_formats", len(res.Errors))
		job.SetStatus(StatusPartial, "done")
	default:
		log.Info("render complete", "artifacts", len(res.Artifacts), "frames", frames)
		job.SetStatus(StatusCompleted, "done")
	}
}

// ErrorKind names the failure class of err for clients.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, preview.ErrSizeExceeded):
		return "size_exceeded"
	case errors.Is(err, preview.ErrPageCountExceeded):
		return "page_count_exceeded"
	case errors.Is(err, preview.ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, preview.ErrEmptyDocument):
		return "empty_document"
	case errors.Is(err, preview.ErrUnreadableDocument):
		return "unreadable_document"
	case errors.Is(err, preview.ErrEncoderUnavailable):
		return "encoder_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "internal"
}
