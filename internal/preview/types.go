package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Format identifies an output container.
type Format string

const (
	FormatGIF Format = "gif"
	FormatMP4 Format = "mp4"
)

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// FPS returns the fixed output frame rate for the format.
func (f Format) FPS() int {
	switch f {
	case FormatGIF:
		return 15
	case FormatMP4:
		return 24
	}
	return 0
}

// AllFormats lists every supported format in output order.
var AllFormats = []Format{FormatGIF, FormatMP4}

// ParseFormats accepts "gif", "mp4", "all", or a comma-separated list.
func ParseFormats(s string) ([]Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return append([]Format(nil), AllFormats...), nil
	}
	seen := make(map[Format]bool)
	var out []Format
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.TrimSpace(part))
		switch f {
		case FormatGIF, FormatMP4:
		default:
			return nil, fmt.Errorf("%w: format must be one of gif, mp4, all (got %q)", ErrInvalidConfiguration, part)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

var dimensionPresets = map[string][2]int{
	"small":  {320, 480},
	"medium": {480, 640},
	"large":  {720, 960},
}

// ParseDimensions resolves a preset name (small, medium, large) or a
// custom "WIDTHxHEIGHT" string.
func ParseDimensions(s string) (int, int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if p, ok := dimensionPresets[s]; ok {
		return p[0], p[1], nil
	}
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: dimensions %q: use small, medium, large, or WIDTHxHEIGHT", ErrInvalidConfiguration, s)
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: dimensions %q: use small, medium, large, or WIDTHxHEIGHT", ErrInvalidConfiguration, s)
	}
	return w, h, nil
}

// Document is an opened multi-page source. Implementations must be safe for
// concurrent Rasterize calls on distinct pages.
type Document interface {
	PageCount() int
	// Rasterize renders page index (zero-based) at roughly the hinted size.
	Rasterize(ctx context.Context, index, widthHint, heightHint int) (image.Image, error)
	Close() error
}

// Opener opens documents by path.
type Opener interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Backend encodes a timeline into one container format.
type Backend interface {
	Format() Format
	// Available reports whether the backend can run on this host.
	Available() bool
	Encode(ctx context.Context, tl *Timeline, path string) error
}

// Frame is a normalized page raster with its on-screen duration.
type Frame struct {
	Page     int
	Image    *image.RGBA
	Duration float64
}

// Artifact is one encoded output file.
type Artifact struct {
	Path     string
	Format   Format
	Size     int64
	Timeline *Timeline
}

// White is the default canvas and blend background.
var White = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
