package preview

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// Options tunes a Generator. Zero values fall back to defaults.
type Options struct {
	Limits           Limits
	MinPageDuration  float64
	NormalizeWorkers int
	Background       color.Color
}

// Generator runs the whole pipeline: validate, sample, normalize, compose,
// encode.
type Generator struct {
	opener  Opener
	encoder *Encoder
	opts    Options
	log     *slog.Logger
}

func NewGenerator(opener Opener, encoder *Encoder, opts Options, log *slog.Logger) *Generator {
	if opts.Limits.MaxBytes <= 0 {
		opts.Limits.MaxBytes = DefaultMaxBytes
	}
	if opts.Limits.MaxPages <= 0 {
		opts.Limits.MaxPages = DefaultMaxPages
	}
	if opts.MinPageDuration <= 0 {
		opts.MinPageDuration = MinPageDuration
	}
	if opts.NormalizeWorkers <= 0 {
		opts.NormalizeWorkers = runtime.NumCPU()
	}
	if opts.Background == nil {
		opts.Background = White
	}
	return &Generator{opener: opener, encoder: encoder, opts: opts, log: log}
}

// Generate produces one artifact per requested format. Validation and
// document failures are fatal and produce no output. Encoder failures are
// per format: the returned Result lists them, and Generate only returns an
// error when no format succeeded.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	log := g.log.With("document", req.DocumentPath, "output", req.OutputBase)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(req.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadableDocument, req.DocumentPath)
	}
	if err := ValidateInput(info.Size(), 0, g.opts.Limits); err != nil {
		return nil, err
	}

	doc, err := g.opener.Open(ctx, req.DocumentPath)
	if err != nil {
		if errors.Is(err, ErrUnreadableDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	defer doc.Close()

	pages := doc.PageCount()
	if err := ValidateInput(info.Size(), pages, g.opts.Limits); err != nil {
		return nil, err
	}

	plan, err := SamplePages(pages, req.MaxDuration, g.opts.MinPageDuration)
	if err != nil {
		return nil, err
	}
	log.Info("sampled pages", "pages", pages, "selected", len(plan), "per_page", plan[0].Duration)

	frames, err := renderFrames(ctx, doc, plan, req.Width, req.Height, g.opts.Background, g.opts.NormalizeWorkers)
	if err != nil {
		return nil, err
	}

	tl, err := ComposeTimeline(frames, req.Crossfade, g.opts.Background)
	if err != nil {
		return nil, err
	}
	log.Info("composed timeline", "frames", len(tl.Frames), "transitions", tl.Transitions(), "duration", tl.Duration())

	res := g.encoder.Encode(ctx, tl, req.Formats, req.OutputBase)
	log.Info("preview generated",
		"artifacts", len(res.Artifacts),
		"failed_formats", len(res.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if len(res.Artifacts) == 0 {
		return res, res.Err()
	}
	return res, nil
}
