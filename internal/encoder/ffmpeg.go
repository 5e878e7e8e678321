package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dgallion1/docreel/internal/preview"
)

// FFmpeg pipes raw RGBA frames into an ffmpeg process producing H.264 MP4
// at 24 fps.
type FFmpeg struct {
	Path string
	Log  *slog.Logger
}

func NewFFmpeg(path string, log *slog.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path, Log: log}
}

func (f *FFmpeg) Format() preview.Format { return preview.FormatMP4 }

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

func (f *FFmpeg) Encode(ctx context.Context, tl *preview.Timeline, path string) error {
	w, h := tl.Size()
	if w%2 != 0 || h%2 != 0 {
		return fmt.Errorf("%w: mp4 needs even dimensions (got %dx%d)", preview.ErrInvalidConfiguration, w, h)
	}
	bin, err := exec.LookPath(f.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", preview.ErrEncoderUnavailable, err)
	}

	fps := preview.FormatMP4.FPS()
	cmd := exec.CommandContext(ctx, bin, ffmpegArgs(w, h, fps, path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	writeErr := writeFrames(stdin, tl, fps, w, h)
	stdin.Close()
	waitErr := cmd.Wait()

	if waitErr != nil {
		return fmt.Errorf("ffmpeg: %w: %s", waitErr, lastLine(stderr.String()))
	}
	if writeErr != nil && !errors.Is(writeErr, io.ErrClosedPipe) {
		return fmt.Errorf("write frames: %w", writeErr)
	}
	if f.Log != nil {
		f.Log.Debug("ffmpeg finished", "path", path, "size", fmt.Sprintf("%dx%d", w, h))
	}
	return nil
}

// writeFrames streams one raw RGBA frame per 1/fps tick, re-compositing
// only when the visible state changes.
func writeFrames(dst io.Writer, tl *preview.Timeline, fps, w, h int) error {
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	prev := preview.State{Frame: -1}
	for _, st := range tl.Ticks(fps) {
		if st != prev {
			tl.Composite(canvas, st)
			prev = st
		}
		if _, err := dst.Write(canvas.Pix); err != nil {
			return err
		}
	}
	return nil
}

func ffmpegArgs(w, h, fps int, out string) []string {
	rate := strconv.Itoa(fps)
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", w, h),
		"-r", rate,
		"-i", "-",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", rate,
		"-an",
		"-threads", "1",
		"-fflags", "+bitexact",
		"-flags:v", "+bitexact",
		"-map_metadata", "-1",
		"-movflags", "+faststart",
		out,
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
