package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Result collects the artifacts of one run plus any per-format failures.
type Result struct {
	Artifacts []Artifact
	Errors    []*FormatError
}

// Err joins the per-format failures, or returns nil if there were none.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, fe := range r.Errors {
		errs[i] = fe
	}
	return errors.Join(errs...)
}

// Paths returns the artifact paths in output order.
func (r *Result) Paths() []string {
	out := make([]string, len(r.Artifacts))
	for i, a := range r.Artifacts {
		out[i] = a.Path
	}
	return out
}

// Encoder fans a timeline out to the registered format backends.
type Encoder struct {
	backends map[Format]Backend
	log      *slog.Logger
}

func NewEncoder(log *slog.Logger, backends ...Backend) *Encoder {
	m := make(map[Format]Backend, len(backends))
	for _, b := range backends {
		m[b.Format()] = b
	}
	return &Encoder{backends: m, log: log}
}

// Encode writes base+ext for every requested format. Formats are encoded
// concurrently and independently: one failing never aborts the others.
func (e *Encoder) Encode(ctx context.Context, tl *Timeline, formats []Format, base string) *Result {
	type outcome struct {
		artifact *Artifact
		err      *FormatError
	}
	outcomes := make([]outcome, len(formats))

	var wg sync.WaitGroup
	for i, f := range formats {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := e.encodeOne(ctx, tl, f, base)
			if err != nil {
				outcomes[i] = outcome{err: &FormatError{Format: f, Err: err}}
				return
			}
			outcomes[i] = outcome{artifact: a}
		}()
	}
	wg.Wait()

	res := &Result{}
	for _, o := range outcomes {
		if o.err != nil {
			e.log.Warn("format failed", "format", o.err.Format, "error", o.err.Err)
			res.Errors = append(res.Errors, o.err)
			continue
		}
		res.Artifacts = append(res.Artifacts, *o.artifact)
	}
	return res
}

func (e *Encoder) encodeOne(ctx context.Context, tl *Timeline, f Format, base string) (*Artifact, error) {
	b, ok := e.backends[f]
	if !ok || !b.Available() {
		return nil, ErrEncoderUnavailable
	}

	path := base + f.Ext()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := b.Encode(ctx, tl, path); err != nil {
		os.Remove(path)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}
	e.log.Info("encoded", "format", f, "path", path, "bytes", info.Size())
	return &Artifact{Path: path, Format: f, Size: info.Size(), Timeline: tl}, nil
}
