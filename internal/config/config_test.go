package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.Whisper.ModelSize != "base" || cfg.Whisper.Language != "vi" {
		t.Fatalf("unexpected whisper defaults: %+v", cfg.Whisper)
	}
	if !cfg.Chunk.Enabled || cfg.Chunk.Duration != 30 || cfg.Chunk.Overlap != 3 {
		t.Fatalf("unexpected chunk defaults: %+v", cfg.Chunk)
	}
	if cfg.Chunk.SilencePeak != 0.01 || cfg.Chunk.NoiseStdDev != 0.001 {
		t.Fatalf("unexpected audio thresholds: %+v", cfg.Chunk)
	}
	if cfg.Jobs.TTL != time.Hour {
		t.Fatalf("unexpected job TTL: %v", cfg.Jobs.TTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "test-key")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WHISPER_MODEL_SIZE", "small")
	t.Setenv("WHISPER_CHUNK_DURATION", "60")
	t.Setenv("WHISPER_CHUNK_OVERLAP", "5")
	t.Setenv("WHISPER_CHUNK_ENABLED", "false")
	t.Setenv("TRANSCRIBE_TIMEOUT_SECONDS", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port override, got %d", cfg.Server.Port)
	}
	if cfg.Whisper.ModelSize != "small" {
		t.Fatalf("expected model size override, got %q", cfg.Whisper.ModelSize)
	}
	if cfg.Chunk.Duration != 60 || cfg.Chunk.Overlap != 5 || cfg.Chunk.Enabled {
		t.Fatalf("expected chunk overrides, got %+v", cfg.Chunk)
	}
	if cfg.API.TranscribeTimeout != 45*time.Second {
		t.Fatalf("expected timeout override, got %v", cfg.API.TranscribeTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("overrides must validate: %v", err)
	}
}

func TestValidateRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "INTERNAL_API_KEY") {
		t.Fatalf("expected missing-key error, got %v", err)
	}
}

func TestValidateRejectsExcessiveOverlap(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "test-key")
	t.Setenv("WHISPER_CHUNK_DURATION", "30")
	t.Setenv("WHISPER_CHUNK_OVERLAP", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected overlap >= duration/2 to be rejected")
	}
}

func TestValidateRejectsUnknownModelSize(t *testing.T) {
	t.Setenv("INTERNAL_API_KEY", "test-key")
	t.Setenv("WHISPER_MODEL_SIZE", "gigantic")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown model size to be rejected")
	}
}

func TestLoadRejectsMalformedInt(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed SERVER_PORT")
	}
}
