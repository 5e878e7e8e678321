// Package stats keeps rolling-window render latency figures for the
// service's stats endpoint.
package stats

import (
	"slices"
	"sync"
	"time"
)

// Outcome classifies a finished render.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
)

type sample struct {
	at         time.Time
	durationMs int64
	frames     int
	outcome    Outcome
}

// Snapshot aggregates the samples inside the window.
type Snapshot struct {
	Count      int             `json:"count"`
	Outcomes   map[Outcome]int `json:"outcomes"`
	Frames     int             `json:"frames"`
	MinMs      int64           `json:"min_ms"`
	MaxMs      int64           `json:"max_ms"`
	AvgMs      float64         `json:"avg_ms"`
	P50Ms      float64         `json:"p50_ms"`
	P95Ms      float64         `json:"p95_ms"`
	P99Ms      float64         `json:"p99_ms"`
	MsPerFrame float64         `json:"ms_per_frame"`
	WindowSec  float64         `json:"window_sec"`
}

// Renders tracks recent preview render latencies.
type Renders struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	now     func() time.Time
}

func NewRenders(window time.Duration) *Renders {
	if window <= 0 {
		window = time.Hour
	}
	return &Renders{
		samples: make([]sample, 0, 128),
		window:  window,
		now:     time.Now,
	}
}

// Record adds one finished render. frames is the number of sampled pages
// that made it into the timeline (0 when the render failed early).
func (r *Renders) Record(d time.Duration, frames int, outcome Outcome) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(now)
	r.samples = append(r.samples, sample{at: now, durationMs: ms, frames: max(frames, 0), outcome: outcome})
}

func (r *Renders) Snapshot() Snapshot {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(now)
	snap := Snapshot{Outcomes: map[Outcome]int{}, WindowSec: r.window.Seconds()}
	if len(r.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(r.samples))
	var sum, framedMs int64
	for _, s := range r.samples {
		values = append(values, s.durationMs)
		sum += s.durationMs
		snap.Outcomes[s.outcome]++
		if s.frames > 0 {
			snap.Frames += s.frames
			framedMs += s.durationMs
		}
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	if snap.Frames > 0 {
		snap.MsPerFrame = float64(framedMs) / float64(snap.Frames)
	}
	return snap
}

func (r *Renders) pruneLocked(now time.Time) {
	cutoff := now.Add(-r.window)
	r.samples = slices.DeleteFunc(r.samples, func(s sample) bool {
		return s.at.Before(cutoff)
	})
}

// percentile interpolates linearly between closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}
