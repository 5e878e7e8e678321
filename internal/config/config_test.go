package config

import (
	"image/color"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "OUTPUT_DIR", "WORKER_COUNT", "MAX_UPLOAD_BYTES", "MAX_PAGES", "DEFAULT_MAX_DURATION", "DEFAULT_CROSSFADE", "DEFAULT_DIMENSIONS", "BACKGROUND_COLOR", "JOB_TTL"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %s", cfg.Port)
	}
	if cfg.MaxUploadBytes != 25*1024*1024 || cfg.MaxPages != 100 {
		t.Errorf("unexpected limits %d bytes / %d pages", cfg.MaxUploadBytes, cfg.MaxPages)
	}
	if cfg.DefaultMaxDuration != 10 || cfg.DefaultCrossfade != 0.15 {
		t.Errorf("unexpected preview defaults %v / %v", cfg.DefaultMaxDuration, cfg.DefaultCrossfade)
	}
	if w, h, err := cfg.Dimensions(); err != nil || w != 480 || h != 640 {
		t.Errorf("expected medium 480x640, got %dx%d (%v)", w, h, err)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.JobTTL)
	}
}

func TestLoadOverridesAndClamps(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("MAX_PAGES", "20")
	t.Setenv("DEFAULT_MAX_DURATION", "6.5")
	t.Setenv("DEFAULT_DIMENSIONS", "320x200")
	t.Setenv("JOB_TTL", "90s")
	t.Setenv("MAX_QUEUE_SIZE", "not-a-number")
	cfg := Load()

	if cfg.WorkerCount != 2 {
		t.Errorf("expected clamped worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 50 {
		t.Errorf("expected fallback queue size 50, got %d", cfg.MaxQueueSize)
	}
	if cfg.Limits().MaxPages != 20 {
		t.Errorf("expected 20 pages, got %d", cfg.Limits().MaxPages)
	}
	if cfg.DefaultMaxDuration != 6.5 {
		t.Errorf("expected 6.5, got %v", cfg.DefaultMaxDuration)
	}
	if w, h, _ := cfg.Dimensions(); w != 320 || h != 200 {
		t.Errorf("expected 320x200, got %dx%d", w, h)
	}
	if cfg.JobTTL != 90*time.Second {
		t.Errorf("expected 90s, got %v", cfg.JobTTL)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		DocreelAPIKey:     "secret",
		OutputDir:         "/tmp/previews",
		DefaultCrossfade:  0.15,
		DefaultDimensions: "medium",
		BackgroundColor:   "#ffffff",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"missing api key", func(c *Config) { c.DocreelAPIKey = "" }},
		{"missing output dir", func(c *Config) { c.OutputDir = "" }},
		{"crossfade too long", func(c *Config) { c.DefaultCrossfade = 1.5 }},
		{"bad dimensions", func(c *Config) { c.DefaultDimensions = "huge" }},
		{"bad color", func(c *Config) { c.BackgroundColor = "white" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.modify(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#ffffff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"102030", color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}},
		{"#0f8", color.RGBA{R: 0x00, G: 0xff, B: 0x88, A: 0xff}},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if err != nil {
			t.Errorf("ParseHexColor(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"", "#ff", "#gggggg", "#1234567"} {
		if _, err := ParseHexColor(bad); err == nil {
			t.Errorf("ParseHexColor(%q): expected error", bad)
		}
	}
}
