package preview

import (
	"fmt"
	"math"
)

const (
	DefaultMaxBytes int64 = 25 * 1024 * 1024
	DefaultMaxPages       = 100

	// MinPageDuration is the shortest time a sampled page stays on screen.
	MinPageDuration = 0.4
)

// Limits caps document size and page count.
type Limits struct {
	MaxBytes int64
	MaxPages int
}

// DefaultLimits returns the 25 MB / 100 page ceilings.
func DefaultLimits() Limits {
	return Limits{MaxBytes: DefaultMaxBytes, MaxPages: DefaultMaxPages}
}

// ValidateInput checks a document's byte size and page count against lim.
func ValidateInput(size int64, pages int, lim Limits) error {
	if size > lim.MaxBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrSizeExceeded, size, lim.MaxBytes)
	}
	if pages > lim.MaxPages {
		return fmt.Errorf("%w: %d pages (max %d)", ErrPageCountExceeded, pages, lim.MaxPages)
	}
	return nil
}

// Request describes one preview generation.
type Request struct {
	DocumentPath string
	OutputBase   string // output path without extension
	MaxDuration  float64
	Formats      []Format
	Width        int
	Height       int
	Crossfade    float64
}

// Validate reports ErrInvalidConfiguration for unusable parameters.
func (r Request) Validate() error {
	switch {
	case r.DocumentPath == "":
		return fmt.Errorf("%w: document path is required", ErrInvalidConfiguration)
	case r.OutputBase == "":
		return fmt.Errorf("%w: output base is required", ErrInvalidConfiguration)
	case math.IsNaN(r.MaxDuration) || math.IsInf(r.MaxDuration, 0) || r.MaxDuration <= 0:
		return fmt.Errorf("%w: max duration must be positive (got %v)", ErrInvalidConfiguration, r.MaxDuration)
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: dimensions must be positive (got %dx%d)", ErrInvalidConfiguration, r.Width, r.Height)
	case math.IsNaN(r.Crossfade) || r.Crossfade < 0 || r.Crossfade >= 1:
		return fmt.Errorf("%w: crossfade must be in [0, 1) seconds (got %v)", ErrInvalidConfiguration, r.Crossfade)
	case len(r.Formats) == 0:
		return fmt.Errorf("%w: at least one format is required", ErrInvalidConfiguration)
	}
	for _, f := range r.Formats {
		if f.FPS() == 0 {
			return fmt.Errorf("%w: unknown format %q", ErrInvalidConfiguration, f)
		}
		// yuv420p video has no odd-sized frames.
		if f == FormatMP4 && (r.Width%2 != 0 || r.Height%2 != 0) {
			return fmt.Errorf("%w: mp4 needs even dimensions (got %dx%d)", ErrInvalidConfiguration, r.Width, r.Height)
		}
	}
	return nil
}
