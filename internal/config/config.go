package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nguyentantai21042004/speech-to-text/internal/whisper"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	MinIO   MinIOConfig
	Whisper WhisperConfig
	Chunk   ChunkConfig
	API     APIConfig
	Jobs    JobsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
}

type WhisperConfig struct {
	ModelSize    string // base, small, medium
	ArtifactsDir string
	Language     string
	Threads      int // 0 = auto-detect
	TempDir      string
}

// ChunkConfig controls the long-audio pipeline. The thresholds here are
// empirically tuned values, kept configurable rather than baked in.
type ChunkConfig struct {
	Enabled          bool
	Duration         float64 // seconds per window
	Overlap          float64 // seconds shared between adjacent windows
	MinChunkDuration float64 // tail windows shorter than this merge backwards
	SeamWords        int     // word span compared at window seams
	SilencePeak      float64 // peak amplitude below this means silent audio
	NoiseStdDev      float64 // stddev below this means constant noise
}

type APIConfig struct {
	InternalAPIKey    string
	TranscribeTimeout time.Duration
	MaxDownloadMB     int
}

type JobsConfig struct {
	TTL time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	threads, err := getEnvInt("WHISPER_N_THREADS", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid WHISPER_N_THREADS: %w", err)
	}

	chunkDuration, err := getEnvFloat("WHISPER_CHUNK_DURATION", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid WHISPER_CHUNK_DURATION: %w", err)
	}

	chunkOverlap, err := getEnvFloat("WHISPER_CHUNK_OVERLAP", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid WHISPER_CHUNK_OVERLAP: %w", err)
	}

	minChunk, err := getEnvFloat("WHISPER_MIN_CHUNK_DURATION", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid WHISPER_MIN_CHUNK_DURATION: %w", err)
	}

	seamWords, err := getEnvInt("WHISPER_MERGE_SEAM_WORDS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid WHISPER_MERGE_SEAM_WORDS: %w", err)
	}

	silencePeak, err := getEnvFloat("AUDIO_SILENCE_THRESHOLD", 0.01)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_SILENCE_THRESHOLD: %w", err)
	}

	noiseStdDev, err := getEnvFloat("AUDIO_NOISE_THRESHOLD", 0.001)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_NOISE_THRESHOLD: %w", err)
	}

	timeoutSec, err := getEnvInt("TRANSCRIBE_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid TRANSCRIBE_TIMEOUT_SECONDS: %w", err)
	}

	maxDownloadMB, err := getEnvInt("MAX_UPLOAD_SIZE_MB", 500)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE_MB: %w", err)
	}

	jobTTLSec, err := getEnvInt("REDIS_JOB_TTL", 3600)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_JOB_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "http://localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
		},
		Whisper: WhisperConfig{
			ModelSize:    getEnv("WHISPER_MODEL_SIZE", "base"),
			ArtifactsDir: getEnv("WHISPER_ARTIFACTS_DIR", "models"),
			Language:     getEnv("WHISPER_LANGUAGE", "vi"),
			Threads:      threads,
			TempDir:      getEnv("TEMP_DIR", "/tmp/stt_processing"),
		},
		Chunk: ChunkConfig{
			Enabled:          getEnvBool("WHISPER_CHUNK_ENABLED", true),
			Duration:         chunkDuration,
			Overlap:          chunkOverlap,
			MinChunkDuration: minChunk,
			SeamWords:        seamWords,
			SilencePeak:      silencePeak,
			NoiseStdDev:      noiseStdDev,
		},
		API: APIConfig{
			InternalAPIKey:    getEnv("INTERNAL_API_KEY", ""),
			TranscribeTimeout: time.Duration(timeoutSec) * time.Second,
			MaxDownloadMB:     maxDownloadMB,
		},
		Jobs: JobsConfig{
			TTL: time.Duration(jobTTLSec) * time.Second,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.API.InternalAPIKey == "" {
		missing = append(missing, "INTERNAL_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	if !whisper.KnownModelSize(c.Whisper.ModelSize) {
		return fmt.Errorf("unsupported WHISPER_MODEL_SIZE %q, must be one of %s",
			c.Whisper.ModelSize, strings.Join(whisper.ModelSizes(), ", "))
	}

	if c.Chunk.Duration <= 0 {
		return fmt.Errorf("WHISPER_CHUNK_DURATION must be positive, got %v", c.Chunk.Duration)
	}
	if c.Chunk.Overlap < 0 {
		return fmt.Errorf("WHISPER_CHUNK_OVERLAP must not be negative, got %v", c.Chunk.Overlap)
	}
	// Overlap at or above half the window length would stop the window start
	// from advancing, so it is rejected here rather than discovered at runtime.
	if c.Chunk.Overlap >= c.Chunk.Duration/2 {
		return fmt.Errorf("WHISPER_CHUNK_OVERLAP (%vs) must be less than half of WHISPER_CHUNK_DURATION (%vs)",
			c.Chunk.Overlap, c.Chunk.Duration)
	}
	if c.Chunk.SeamWords <= 0 {
		return fmt.Errorf("WHISPER_MERGE_SEAM_WORDS must be positive, got %d", c.Chunk.SeamWords)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
