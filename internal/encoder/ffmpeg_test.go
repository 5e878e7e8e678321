package encoder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"github.com/dgallion1/docreel/internal/preview"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFFmpegAvailable_MissingBinary(t *testing.T) {
	f := NewFFmpeg(filepath.Join(t.TempDir(), "ffmpeg"), discardLogger())
	if f.Available() {
		t.Error("expected missing binary to be unavailable")
	}
	err := f.Encode(context.Background(), testTimeline(t, 1), filepath.Join(t.TempDir(), "out.mp4"))
	if !errors.Is(err, preview.ErrEncoderUnavailable) {
		t.Errorf("expected ErrEncoderUnavailable, got %v", err)
	}
}

func TestNewFFmpeg_DefaultPath(t *testing.T) {
	if f := NewFFmpeg("", nil); f.Path != "ffmpeg" {
		t.Errorf("expected default path ffmpeg, got %q", f.Path)
	}
	if f := NewFFmpeg("", nil); f.Format() != preview.FormatMP4 {
		t.Errorf("expected mp4, got %s", f.Format())
	}
}

func TestFFmpegArgs(t *testing.T) {
	args := ffmpegArgs(480, 640, 24, "/tmp/x.mp4")

	if args[len(args)-1] != "/tmp/x.mp4" {
		t.Errorf("expected output path last, got %q", args[len(args)-1])
	}
	pairs := map[string]string{
		"-f":       "rawvideo",
		"-s":       "480x640",
		"-i":       "-",
		"-c:v":     "libx264",
		"-threads": "1",
	}
	for flag, want := range pairs {
		i := slices.Index(args, flag)
		if i < 0 || i+1 >= len(args) {
			t.Errorf("missing %s", flag)
			continue
		}
		if args[i+1] != want {
			t.Errorf("%s: expected %q, got %q", flag, want, args[i+1])
		}
	}
	// Input and output pixel formats.
	var pixFmts []string
	for i, a := range args {
		if a == "-pix_fmt" {
			pixFmts = append(pixFmts, args[i+1])
		}
	}
	if !slices.Equal(pixFmts, []string{"rgba", "yuv420p"}) {
		t.Errorf("expected rgba in and yuv420p out, got %v", pixFmts)
	}
	// Frames go through unscaled and unpadded.
	if slices.Contains(args, "-vf") {
		t.Errorf("expected no video filter, got %v", args)
	}
}

func TestFFmpegEncode_RejectsOddSize(t *testing.T) {
	frame := preview.Frame{Image: image.NewRGBA(image.Rect(0, 0, 21, 30)), Duration: 1}
	tl, err := preview.ComposeTimeline([]preview.Frame{frame}, 0, preview.White)
	if err != nil {
		t.Fatal(err)
	}
	err = NewFFmpeg("", discardLogger()).Encode(context.Background(), tl, filepath.Join(t.TempDir(), "out.mp4"))
	if !errors.Is(err, preview.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestWriteFrames(t *testing.T) {
	tl := testTimeline(t, 1, 1)
	var buf bytes.Buffer
	if err := writeFrames(&buf, tl, 24, 20, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frameSize := 20 * 30 * 4
	if buf.Len() != 48*frameSize {
		t.Fatalf("expected 48 frames of %d bytes, got %d bytes", frameSize, buf.Len())
	}
	first := buf.Bytes()[:frameSize]
	if !bytes.Equal(first, tl.Frames[0].Image.Pix) {
		t.Error("expected first frame to be page 0 unchanged")
	}
	last := buf.Bytes()[47*frameSize:]
	if !bytes.Equal(last, tl.Frames[1].Image.Pix) {
		t.Error("expected last frame to be page 1 unchanged")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteFrames_StopsOnError(t *testing.T) {
	if err := writeFrames(failWriter{}, testTimeline(t, 1), 24, 20, 30); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("expected io.ErrClosedPipe, got %v", err)
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine("a\nb\nUnknown encoder 'libx264'\n"); got != "Unknown encoder 'libx264'" {
		t.Errorf("unexpected last line %q", got)
	}
	if got := lastLine("single"); got != "single" {
		t.Errorf("unexpected last line %q", got)
	}
}

func TestFFmpegEncode(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	tl := testTimeline(t, 0.5, 0.5)
	path := filepath.Join(t.TempDir(), "preview.mp4")
	if err := NewFFmpeg("", discardLogger()).Encode(context.Background(), tl, path); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		t.Errorf("expected an MP4 ftyp box, got % x", data[:min(len(data), 12)])
	}
}
