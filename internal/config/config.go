package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/docreel/internal/preview"
)

type Config struct {
	Port string

	// Auth
	DocreelAPIKey string

	// Storage for uploads and rendered previews
	OutputDir string

	// Worker pool
	WorkerCount      int
	MaxQueueSize     int
	NormalizeWorkers int

	// Input limits
	MaxUploadBytes int64
	MaxPages       int

	// Preview defaults
	DefaultMaxDuration float64
	DefaultCrossfade   float64
	DefaultDimensions  string
	BackgroundColor    string

	// External tools
	PdftoppmPath string
	FFmpegPath   string

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocreelAPIKey: os.Getenv("DOCREEL_API_KEY"),

		OutputDir: envOr("OUTPUT_DIR", "./previews"),

		WorkerCount:      envInt("WORKER_COUNT", 2),
		MaxQueueSize:     envInt("MAX_QUEUE_SIZE", 50),
		NormalizeWorkers: envInt("NORMALIZE_WORKERS", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", preview.DefaultMaxBytes),
		MaxPages:       envInt("MAX_PAGES", preview.DefaultMaxPages),

		DefaultMaxDuration: envFloat("DEFAULT_MAX_DURATION", 10),
		DefaultCrossfade:   envFloat("DEFAULT_CROSSFADE", preview.DefaultCrossfade),
		DefaultDimensions:  envOr("DEFAULT_DIMENSIONS", "medium"),
		BackgroundColor:    envOr("BACKGROUND_COLOR", "#ffffff"),

		PdftoppmPath: envOr("PDFTOPPM_PATH", "pdftoppm"),
		FFmpegPath:   envOr("FFMPEG_PATH", "ffmpeg"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.NormalizeWorkers <= 0 {
		cfg.NormalizeWorkers = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = preview.DefaultMaxBytes
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = preview.DefaultMaxPages
	}
	if cfg.DefaultMaxDuration <= 0 {
		cfg.DefaultMaxDuration = 10
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocreelAPIKey == "" {
		return fmt.Errorf("DOCREEL_API_KEY is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.DefaultCrossfade < 0 || c.DefaultCrossfade >= 1 {
		return fmt.Errorf("DEFAULT_CROSSFADE must be in [0, 1), got %v", c.DefaultCrossfade)
	}
	if _, _, err := c.Dimensions(); err != nil {
		return fmt.Errorf("DEFAULT_DIMENSIONS: %w", err)
	}
	if _, err := c.Background(); err != nil {
		return fmt.Errorf("BACKGROUND_COLOR: %w", err)
	}
	return nil
}

// Limits returns the configured input ceilings.
func (c Config) Limits() preview.Limits {
	return preview.Limits{MaxBytes: c.MaxUploadBytes, MaxPages: c.MaxPages}
}

// Dimensions resolves DefaultDimensions to a pixel size.
func (c Config) Dimensions() (int, int, error) {
	return preview.ParseDimensions(c.DefaultDimensions)
}

// Background parses BackgroundColor.
func (c Config) Background() (color.RGBA, error) {
	return ParseHexColor(c.BackgroundColor)
}

// ParseHexColor accepts "#rrggbb", "rrggbb" or the short "#rgb" form.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
