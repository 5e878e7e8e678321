package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// FitSize returns the largest size with the aspect ratio of (srcW, srcH)
// that fits inside (w, h).
func FitSize(srcW, srcH, w, h int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return w, h
	}
	// Compare w/srcW against h/srcH without dividing.
	if int64(w)*int64(srcH) <= int64(h)*int64(srcW) {
		nh := int(math.Round(float64(srcH) * float64(w) / float64(srcW)))
		return w, clamp(nh, 1, h)
	}
	nw := int(math.Round(float64(srcW) * float64(h) / float64(srcH)))
	return clamp(nw, 1, w), h
}

// NormalizeFrame scales src uniformly to fit (w, h) and centres it on a
// canvas filled with bg. Content is never cropped or stretched.
func NormalizeFrame(src image.Image, w, h int, bg color.Color) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	sb := src.Bounds()
	if sb.Empty() {
		return canvas
	}
	nw, nh := FitSize(sb.Dx(), sb.Dy(), w, h)
	x := (w - nw) / 2
	y := (h - nh) / 2
	dst := image.Rect(x, y, x+nw, y+nh)

	if nw == sb.Dx() && nh == sb.Dy() {
		draw.Draw(canvas, dst, src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(canvas, dst, src, sb, draw.Over, nil)
	}
	return canvas
}

// renderFrames rasterizes and normalizes every planned page. Pages are
// independent, so up to workers of them are processed at once.
func renderFrames(ctx context.Context, doc Document, plan Plan, w, h int, bg color.Color, workers int) ([]Frame, error) {
	if workers <= 0 {
		workers = 1
	}
	frames := make([]Frame, len(plan))

	type result struct {
		idx int
		err error
	}
	results := make(chan result, len(plan))
	sem := make(chan struct{}, workers)

	for i, entry := range plan {
		sem <- struct{}{}
		go func(i int, entry PlanEntry) {
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results <- result{idx: i, err: err}
				return
			}
			img, err := doc.Rasterize(ctx, entry.Page, w, h)
			if err != nil {
				// A rasterizer killed by cancellation reports its own error.
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				} else {
					err = fmt.Errorf("%w: rasterize page %d: %v", ErrUnreadableDocument, entry.Page, err)
				}
				results <- result{idx: i, err: err}
				return
			}
			frames[i] = Frame{
				Page:     entry.Page,
				Image:    NormalizeFrame(img, w, h, bg),
				Duration: entry.Duration,
			}
			results <- result{idx: i}
		}(i, entry)
	}

	var firstErr error
	for range plan {
		r := <-results
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
	}
	if firstErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, firstErr
	}
	return frames, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
