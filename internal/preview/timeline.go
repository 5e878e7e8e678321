package preview

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/draw"
)

// DefaultCrossfade is the transition length between adjacent frames.
const DefaultCrossfade = 0.15

// crossfadeClamp scales an oversized crossfade down to this fraction of the
// shorter neighbouring frame.
const crossfadeClamp = 0.9

// Timeline is a sequence of frames on a master clock. Frame i occupies
// [Start(i), Start(i)+Frames[i].Duration). Frame i+1 fades in over frame i
// during the last Transition(i) seconds before Start(i+1).
type Timeline struct {
	Frames     []Frame
	Crossfade  float64
	Background color.RGBA

	starts []float64
	fades  []float64
}

// State is what is visible at one instant: Frame fully opaque, and Next
// (when >= 0) drawn over it at opacity Alpha.
type State struct {
	Frame int
	Next  int
	Alpha uint8
}

// ComposeTimeline arranges frames back to back with crossfade c between
// each adjacent pair. An oversized crossfade is clamped per pair.
func ComposeTimeline(frames []Frame, c float64, bg color.Color) (*Timeline, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyDocument
	}
	if math.IsNaN(c) || c < 0 {
		return nil, fmt.Errorf("%w: crossfade must not be negative", ErrInvalidConfiguration)
	}
	for i, f := range frames {
		if f.Image == nil || f.Duration <= 0 {
			return nil, fmt.Errorf("%w: frame %d has no image or duration", ErrInvalidConfiguration, i)
		}
	}

	r, g, b, a := bg.RGBA()
	tl := &Timeline{
		Frames:     frames,
		Crossfade:  c,
		Background: color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)},
		starts:     make([]float64, len(frames)),
		fades:      make([]float64, len(frames)-1),
	}

	var clock float64
	for i, f := range frames {
		tl.starts[i] = clock
		clock += f.Duration
	}
	for i := range tl.fades {
		shorter := math.Min(frames[i].Duration, frames[i+1].Duration)
		fade := c
		if fade >= shorter {
			fade = crossfadeClamp * shorter
		}
		tl.fades[i] = fade
	}
	return tl, nil
}

// Duration is the total length of the timeline in seconds.
func (t *Timeline) Duration() float64 {
	n := len(t.Frames)
	return t.starts[n-1] + t.Frames[n-1].Duration
}

// Start returns when frame i begins.
func (t *Timeline) Start(i int) float64 {
	return t.starts[i]
}

// Transitions returns the number of crossfades.
func (t *Timeline) Transitions() int {
	return len(t.fades)
}

// Transition returns the effective crossfade between frame i and i+1.
func (t *Timeline) Transition(i int) float64 {
	return t.fades[i]
}

// At returns the visible state at time sec.
func (t *Timeline) At(sec float64) State {
	n := len(t.Frames)
	i := sort.Search(n, func(j int) bool { return t.starts[j] > sec }) - 1
	if i < 0 {
		i = 0
	}
	st := State{Frame: i, Next: -1}
	if i == n-1 {
		return st
	}

	fade := t.fades[i]
	boundary := t.starts[i+1]
	if fade <= 0 || sec < boundary-fade {
		return st
	}
	alpha := (sec - (boundary - fade)) / fade
	v := int(math.Round(alpha * 255))
	if v <= 0 {
		return st
	}
	if v >= 255 {
		return State{Frame: i + 1, Next: -1}
	}
	st.Next = i + 1
	st.Alpha = uint8(v)
	return st
}

// Ticks samples the timeline at a fixed frame rate. The tick count is the
// duration rounded to the nearest 1/fps.
func (t *Timeline) Ticks(fps int) []State {
	n := int(math.Round(t.Duration() * float64(fps)))
	if n < 1 {
		n = 1
	}
	out := make([]State, n)
	for k := range out {
		out[k] = t.At(float64(k) / float64(fps))
	}
	return out
}

// Composite draws st into dst, which must match the frame size. The outgoing
// frame stays fully visible while the incoming one is laid over it.
func (t *Timeline) Composite(dst *image.RGBA, st State) {
	r := dst.Bounds()
	draw.Draw(dst, r, image.NewUniform(t.Background), image.Point{}, draw.Src)
	draw.Draw(dst, r, t.Frames[st.Frame].Image, image.Point{}, draw.Over)
	if st.Next >= 0 && st.Alpha > 0 {
		mask := image.NewUniform(color.Alpha{A: st.Alpha})
		draw.DrawMask(dst, r, t.Frames[st.Next].Image, image.Point{}, mask, image.Point{}, draw.Over)
	}
}

// Size returns the frame dimensions.
func (t *Timeline) Size() (int, int) {
	b := t.Frames[0].Image.Bounds()
	return b.Dx(), b.Dy()
}
