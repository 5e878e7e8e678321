// Command docreel renders a short looping preview (GIF and/or MP4) of a
// document.
//
//	docreel [flags] <input>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dgallion1/docreel/internal/config"
	"github.com/dgallion1/docreel/internal/document"
	"github.com/dgallion1/docreel/internal/encoder"
	"github.com/dgallion1/docreel/internal/preview"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("docreel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		output      = fs.String("output", "", "base name for output file(s), without extension (default <input>_preview in the current directory)")
		maxDuration = fs.Float64("max-duration", 10, "maximum preview length in seconds")
		format      = fs.String("format", "gif", "output format: gif, mp4 or all")
		dimensions  = fs.String("dimensions", "480x640", "frame size: small, medium, large or WIDTHxHEIGHT")
		crossfade   = fs.Float64("crossfade", preview.DefaultCrossfade, "crossfade between pages in seconds")
		background  = fs.String("background", "#ffffff", "padding and blend color")
		pdftoppm    = fs.String("pdftoppm", "pdftoppm", "path to the pdftoppm binary")
		ffmpegPath  = fs.String("ffmpeg", "ffmpeg", "path to the ffmpeg binary")
		verbose     = fs.Bool("v", false, "log pipeline stages")
	)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), "usage: docreel [flags] <input>\n\nInputs: .pdf .txt .md .markdown .csv .html .htm .docx\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitValidation
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitValidation
	}
	input := fs.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	formats, err := preview.ParseFormats(*format)
	if err != nil {
		fmt.Fprintln(stderr, "docreel:", err)
		return exitValidation
	}
	w, h, err := preview.ParseDimensions(*dimensions)
	if err != nil {
		fmt.Fprintln(stderr, "docreel:", err)
		return exitValidation
	}
	bg, err := config.ParseHexColor(*background)
	if err != nil {
		fmt.Fprintf(stderr, "docreel: %v: %v\n", preview.ErrInvalidConfiguration, err)
		return exitValidation
	}

	ffmpeg := encoder.NewFFmpeg(*ffmpegPath, log)
	enc := preview.NewEncoder(log, encoder.GIF{}, ffmpeg)
	gen := preview.NewGenerator(document.NewOpener(*pdftoppm), enc, preview.Options{Background: bg}, log)

	res, err := gen.Generate(ctx, preview.Request{
		DocumentPath: input,
		OutputBase:   outputBase(input, *output),
		MaxDuration:  *maxDuration,
		Formats:      formats,
		Width:        w,
		Height:       h,
		Crossfade:    *crossfade,
	})
	if res != nil {
		for _, a := range res.Artifacts {
			fmt.Fprintf(stdout, "%s\t%s\t%d bytes\t%.2fs\n", a.Format, a.Path, a.Size, a.Timeline.Duration())
		}
		for _, fe := range res.Errors {
			fmt.Fprintln(stderr, "docreel: warning:", fe)
		}
	}
	if err != nil {
		fmt.Fprintln(stderr, "docreel:", err)
		if preview.IsValidation(err) {
			return exitValidation
		}
		return exitFailure
	}
	return exitOK
}

// outputBase resolves the extension-less output path. An explicit
// -output keeps its directory but loses a .gif or .mp4 suffix.
func outputBase(input, output string) string {
	if output == "" {
		stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		return stem + "_preview"
	}
	for _, f := range preview.AllFormats {
		if strings.EqualFold(filepath.Ext(output), f.Ext()) {
			return strings.TrimSuffix(output, filepath.Ext(output))
		}
	}
	return output
}
