package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docreel/internal/api"
	"github.com/dgallion1/docreel/internal/config"
	"github.com/dgallion1/docreel/internal/document"
	"github.com/dgallion1/docreel/internal/encoder"
	"github.com/dgallion1/docreel/internal/pipeline"
	"github.com/dgallion1/docreel/internal/preview"
	"github.com/dgallion1/docreel/internal/stats"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	bg, _ := cfg.Background()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("create output dir", "dir", cfg.OutputDir, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the render pipeline.
	ffmpeg := encoder.NewFFmpeg(cfg.FFmpegPath, log)
	if !ffmpeg.Available() {
		log.Warn("ffmpeg not found, mp4 output disabled", "path", cfg.FFmpegPath)
	}
	enc := preview.NewEncoder(log, encoder.GIF{}, ffmpeg)
	gen := preview.NewGenerator(document.NewOpener(cfg.PdftoppmPath), enc, preview.Options{
		Limits:           cfg.Limits(),
		NormalizeWorkers: cfg.NormalizeWorkers,
		Background:       bg,
	}, log)

	renders := stats.NewRenders(time.Hour)
	orch := pipeline.NewOrchestrator(cfg, gen, renders, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown incomplete", "error", err)
		}

		// Uploads still in flight are rejected with ErrStopped.
		orch.Stop()
	}()

	log.Info("starting docreel", "port", cfg.Port, "output_dir", cfg.OutputDir, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}
