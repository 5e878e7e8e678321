package preview

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"golang.org/x/image/draw"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

var red = color.RGBA{R: 0xff, A: 0xff}

func TestFitSize(t *testing.T) {
	tests := []struct {
		name             string
		srcW, srcH, w, h int
		wantW, wantH     int
	}{
		{"same aspect", 612, 792, 306, 396, 306, 396},
		{"exact", 480, 640, 480, 640, 480, 640},
		{"wide source", 800, 400, 480, 640, 480, 240},
		{"tall source", 100, 1000, 480, 640, 64, 640},
		{"landscape canvas", 612, 792, 640, 480, 371, 480},
		{"upscale", 10, 10, 100, 50, 50, 50},
		{"degenerate source", 0, 10, 40, 30, 40, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitSize(tt.srcW, tt.srcH, tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
		})
	}
}

func TestNormalizeFrame_ExactSize(t *testing.T) {
	for _, src := range []image.Image{
		solid(612, 792, red),
		solid(1000, 200, red),
		solid(3, 3, red),
		solid(480, 640, red),
	} {
		out := NormalizeFrame(src, 480, 640, White)
		if b := out.Bounds(); b.Dx() != 480 || b.Dy() != 640 || b.Min != (image.Point{}) {
			t.Errorf("expected 480x640 at origin, got %v", b)
		}
	}
}

func TestNormalizeFrame_MatchingAspectHasNoPadding(t *testing.T) {
	out := NormalizeFrame(solid(240, 320, red), 480, 640, White)
	for _, p := range []image.Point{{0, 0}, {479, 0}, {0, 639}, {479, 639}, {240, 320}} {
		if got := out.RGBAAt(p.X, p.Y); got.R < 0xf0 || got.G > 0x10 {
			t.Errorf("expected page content at %v, got %v", p, got)
		}
	}
}

func TestNormalizeFrame_PaddingUsesBackground(t *testing.T) {
	bg := color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}
	// Wide page on a tall canvas: bars above and below.
	out := NormalizeFrame(solid(800, 400, red), 480, 640, bg)

	if got := out.RGBAAt(240, 5); got != bg {
		t.Errorf("expected background %v in top bar, got %v", bg, got)
	}
	if got := out.RGBAAt(240, 634); got != bg {
		t.Errorf("expected background %v in bottom bar, got %v", bg, got)
	}
	if got := out.RGBAAt(240, 320); got.R < 0xf0 || got.G > 0x30 {
		t.Errorf("expected page content at centre, got %v", got)
	}
	// Content is 480x240 centred vertically: rows 200..439.
	if got := out.RGBAAt(240, 199); got != bg {
		t.Errorf("expected background just above content, got %v", got)
	}
	if got := out.RGBAAt(240, 200); got == bg {
		t.Errorf("expected content on first content row, got background")
	}
}

func TestNormalizeFrame_TransparentSourceShowsBackground(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 48, 64))
	out := NormalizeFrame(src, 48, 64, White)
	if got := out.RGBAAt(10, 10); got != White {
		t.Errorf("expected white through transparent page, got %v", got)
	}
}

type fakeDoc struct {
	pages    int
	w, h     int
	failPage int
	calls    atomic.Int32
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) Rasterize(_ context.Context, index, _, _ int) (image.Image, error) {
	d.calls.Add(1)
	if index == d.failPage {
		return nil, errors.New("boom")
	}
	// Each page gets a distinct shade so frames can be told apart.
	shade := uint8(index * 7 % 256)
	return solid(d.w, d.h, color.RGBA{R: shade, G: 0x40, B: 0x80, A: 0xff}), nil
}

func (d *fakeDoc) Close() error { return nil }

func TestRenderFrames_KeepsPlanOrder(t *testing.T) {
	doc := &fakeDoc{pages: 30, w: 61, h: 79, failPage: -1}
	plan, err := SamplePages(30, 4, MinPageDuration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frames, err := renderFrames(context.Background(), doc, plan, 48, 64, White, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != len(plan) {
		t.Fatalf("expected %d frames, got %d", len(plan), len(frames))
	}
	for i, f := range frames {
		if f.Page != plan[i].Page || f.Duration != plan[i].Duration {
			t.Errorf("frame %d: expected page %d, got %d", i, plan[i].Page, f.Page)
		}
		if b := f.Image.Bounds(); b.Dx() != 48 || b.Dy() != 64 {
			t.Errorf("frame %d: expected 48x64, got %v", i, b)
		}
	}
	if int(doc.calls.Load()) != len(plan) {
		t.Errorf("expected %d rasterize calls, got %d", len(plan), doc.calls.Load())
	}
}

func TestRenderFrames_RasterizeFailure(t *testing.T) {
	doc := &fakeDoc{pages: 3, w: 10, h: 10, failPage: 1}
	plan, _ := SamplePages(3, 3, MinPageDuration)
	_, err := renderFrames(context.Background(), doc, plan, 10, 10, White, 2)
	if !errors.Is(err, ErrUnreadableDocument) {
		t.Errorf("expected ErrUnreadableDocument, got %v", err)
	}
}

func TestRenderFrames_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := &fakeDoc{pages: 3, w: 10, h: 10, failPage: -1}
	plan, _ := SamplePages(3, 3, MinPageDuration)
	if _, err := renderFrames(ctx, doc, plan, 10, 10, White, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// killedDoc cancels the render mid-page and fails the way an external
// rasterizer does when its process is killed.
type killedDoc struct {
	fakeDoc
	cancel context.CancelFunc
}

func (d *killedDoc) Rasterize(ctx context.Context, index, w, h int) (image.Image, error) {
	if index == d.failPage {
		d.cancel()
		return nil, errors.New("pdftoppm: signal: killed")
	}
	return d.fakeDoc.Rasterize(ctx, index, w, h)
}

func TestRenderFrames_CancelledMidPage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	doc := &killedDoc{fakeDoc: fakeDoc{pages: 3, w: 10, h: 10, failPage: 1}, cancel: cancel}
	plan, _ := SamplePages(3, 3, MinPageDuration)

	_, err := renderFrames(ctx, doc, plan, 10, 10, White, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrUnreadableDocument) {
		t.Errorf("cancellation reported as unreadable document: %v", err)
	}
}
