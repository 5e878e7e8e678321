// Package encoder provides the container backends used by preview.Encoder.
package encoder

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"math"
	"os"

	"github.com/dgallion1/docreel/internal/preview"
	"golang.org/x/image/draw"
)

// GIF writes an infinitely looping animated GIF at 15 fps.
type GIF struct{}

func (GIF) Format() preview.Format { return preview.FormatGIF }

// Available is always true: the encoder is pure Go.
func (GIF) Available() bool { return true }

// Encode quantizes the timeline to 1/15 s ticks. Runs of identical ticks
// become a single GIF frame with a longer delay.
func (GIF) Encode(ctx context.Context, tl *preview.Timeline, path string) error {
	fps := preview.FormatGIF.FPS()
	w, h := tl.Size()
	runs := coalesce(tl.Ticks(fps))

	anim := &gif.GIF{LoopCount: 0}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	for _, r := range runs {
		if err := ctx.Err(); err != nil {
			return err
		}
		tl.Composite(canvas, r.state)
		frame := image.NewPaletted(canvas.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(frame, frame.Bounds(), canvas, image.Point{})
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, centiseconds(r.start, r.count, fps))
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gif: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<20)
	if err := gif.EncodeAll(bw, anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write gif: %w", err)
	}
	return f.Close()
}

type run struct {
	state preview.State
	start int
	count int
}

func coalesce(ticks []preview.State) []run {
	var runs []run
	for i, st := range ticks {
		if n := len(runs); n > 0 && runs[n-1].state == st {
			runs[n-1].count++
			continue
		}
		runs = append(runs, run{state: st, start: i, count: 1})
	}
	return runs
}

// centiseconds converts a run of ticks to a GIF delay, rounding tick
// boundaries on the absolute clock so error does not accumulate.
func centiseconds(start, count, fps int) int {
	from := math.Round(float64(start) * 100 / float64(fps))
	to := math.Round(float64(start+count) * 100 / float64(fps))
	d := int(to - from)
	if d < 1 {
		d = 1
	}
	return d
}
