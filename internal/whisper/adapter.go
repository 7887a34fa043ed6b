// Package whisper binds the whisper.cpp inference engine into a single
// transcription capability: it loads the native libraries and model once,
// serializes all inference through one guarded context, and runs long audio
// through an overlapping-window pipeline with seam-aware merging.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config configures an Adapter. Zero values fall back to the defaults the
// service has been tuned with, except ChunkOverlap: zero means contiguous
// windows and is respected, only negative values are replaced.
type Config struct {
	ModelSize    string
	ArtifactsDir string
	Threads      int // 0 = min(NumCPU, 8)
	TempDir      string

	ChunkingEnabled  bool
	ChunkDuration    float64
	ChunkOverlap     float64
	MinChunkDuration float64
	SeamWords        int

	SilencePeak float64
	NoiseStdDev float64

	ProbeTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.ModelSize == "" {
		c.ModelSize = "base"
	}
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = "models"
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.ChunkDuration <= 0 {
		c.ChunkDuration = 30
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 3
	}
	if c.MinChunkDuration <= 0 {
		c.MinChunkDuration = 2
	}
	if c.SeamWords <= 0 {
		c.SeamWords = 5
	}
	if c.SilencePeak <= 0 {
		c.SilencePeak = 0.01
	}
	if c.NoiseStdDev <= 0 {
		c.NoiseStdDev = 0.001
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = defaultProbeTimeout
	}
}

// Adapter owns one loaded model context for its whole lifetime. Construct
// it once at process start and share it; it is safe for concurrent use, at
// the cost of one in-flight inference at a time.
type Adapter struct {
	cfg       Config
	model     ModelConfig
	modelPath string
	guard     *contextGuard
	closeOnce sync.Once
	closeErr  error

	// Subprocess-backed steps, swappable in tests.
	resample func(ctx context.Context, src, dst string, start, duration float64) error
	readWAV  func(path string) ([]float32, float64, error)
}

// New loads the native libraries and the model file for the configured
// size. Both failures are construction-fatal: the caller must not serve
// traffic with a nil adapter.
func New(cfg Config) (*Adapter, error) {
	cfg.applyDefaults()

	mc, err := lookupModelConfig(cfg.ModelSize)
	if err != nil {
		return nil, err
	}

	libDir := filepath.Join(cfg.ArtifactsDir, mc.Dir)
	if err := verifyNativeLibraries(libDir); err != nil {
		return nil, err
	}

	modelPath := filepath.Join(libDir, mc.ModelFile)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: model file not found: %s (run the artifact download script first)", ErrModelInit, modelPath)
	}

	engine, err := newNativeEngine(modelPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		engine.Close()
		return nil, fmt.Errorf("create temp dir %s: %w", cfg.TempDir, err)
	}

	slog.Info("whisper adapter initialized",
		"model", cfg.ModelSize, "ram_mb", mc.RAMMB, "chunking", cfg.ChunkingEnabled)

	return &Adapter{
		cfg:       cfg,
		model:     mc,
		modelPath: modelPath,
		guard:     newContextGuard(engine, modelPath, newNativeEngine),
		resample:  resampleToWAV,
		readWAV:   readWAVSamples,
	}, nil
}

// Transcribe converts the audio file at path into text. Long audio (above
// the chunk duration, when chunking is enabled) goes through the windowed
// pipeline; everything else is decoded and inferred in one pass. Audio that
// fails preflight yields an empty string, not an error — no speech is a
// valid outcome.
func (a *Adapter) Transcribe(ctx context.Context, path, language string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrAudioNotFound, path)
	}

	duration, err := probeDuration(ctx, path, a.cfg.ProbeTimeout)
	if err != nil {
		// Degraded, not failed: unknown duration means the direct path.
		slog.Warn("could not detect audio duration, using direct transcription", "error", err)
		duration = 0
	}

	if a.cfg.ChunkingEnabled && duration > a.cfg.ChunkDuration {
		slog.Info("using chunked transcription",
			"duration_s", duration, "chunk_s", a.cfg.ChunkDuration, "overlap_s", a.cfg.ChunkOverlap)
		return a.transcribeChunked(ctx, path, language, duration)
	}
	return a.transcribeDirect(ctx, path, language)
}

// ProbeDuration returns the media duration in seconds via ffprobe.
func (a *Adapter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return probeDuration(ctx, path, a.cfg.ProbeTimeout)
}

// Ready reports whether the adapter can serve transcriptions.
func (a *Adapter) Ready() bool {
	return a.guard.ready()
}

// Close frees the model context. The adapter is unusable afterwards.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.guard.close()
	})
	return a.closeErr
}

func (a *Adapter) transcribeDirect(ctx context.Context, path, language string) (string, error) {
	samples, _, err := decodeToSamples(ctx, path, a.cfg.TempDir)
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", ErrTranscription, path, err)
	}
	return a.transcribeSamples(samples, language)
}

// transcribeSamples is the single funnel into the guarded engine: preflight,
// normalize, infer, join. All transcription paths end up here.
func (a *Adapter) transcribeSamples(samples []float32, language string) (string, error) {
	if reason, ok := validateSamples(samples, a.preflight()); !ok {
		slog.Warn("audio failed preflight, returning empty transcription", "reason", reason)
		return "", nil
	}
	normalizeSamples(samples)

	var segments []Segment
	err := a.guard.withEngine(func(e inferenceEngine) error {
		out, inferErr := e.Infer(samples, inferOptions{Language: language, Threads: a.threads()})
		segments = out
		return inferErr
	})
	if err != nil {
		if errors.Is(err, ErrContextRecovery) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	if len(segments) == 0 {
		slog.Warn("engine returned 0 segments, audio may be silent")
		return "", nil
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " "), nil
}

func (a *Adapter) transcribeChunked(ctx context.Context, path, language string, duration float64) (string, error) {
	windows, err := planWindows(duration, a.cfg.ChunkDuration, a.cfg.ChunkOverlap, a.cfg.MinChunkDuration)
	if err != nil {
		return "", err
	}
	slog.Info("audio split into windows", "count", len(windows))

	// Per-call artifact prefix: concurrent calls on same-named sources must
	// never share window files.
	runID := uuid.NewString()

	results := make([]chunkResult, 0, len(windows))
	failed := 0
	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrTranscription, err)
		}

		text, err := a.transcribeWindow(ctx, path, language, w, runID, i)
		if err != nil {
			// One bad window must not fail the whole request; its slot is
			// carried as a failure tag and dropped at merge time.
			failed++
			slog.Error("window transcription failed",
				"window", i+1, "windows", len(windows), "start_s", w.start, "end_s", w.end, "error", err)
			results = append(results, chunkResult{text: inaudibleMarker, failed: true})
			continue
		}
		if strings.TrimSpace(text) == "" {
			slog.Warn("window returned empty text, may be silence",
				"window", i+1, "windows", len(windows))
		}
		results = append(results, chunkResult{text: text})
	}

	merged := mergeChunks(results, a.cfg.SeamWords)
	slog.Info("chunked transcription complete",
		"windows", len(windows), "failed", failed, "chars", len(merged))
	return merged, nil
}

// transcribeWindow materializes one window as a temp artifact, transcribes
// it, and removes the artifact whether or not the attempt succeeded.
func (a *Adapter) transcribeWindow(ctx context.Context, path, language string, w window, runID string, idx int) (string, error) {
	chunkPath := filepath.Join(a.cfg.TempDir, fmt.Sprintf("%s_chunk_%d.wav", runID, idx))
	defer os.Remove(chunkPath)

	if err := a.resample(ctx, path, chunkPath, w.start, w.duration()); err != nil {
		return "", fmt.Errorf("materialize window %d: %w", idx, err)
	}

	samples, _, err := a.readWAV(chunkPath)
	if err != nil {
		return "", fmt.Errorf("read window %d: %w", idx, err)
	}
	return a.transcribeSamples(samples, language)
}

func (a *Adapter) preflight() preflightConfig {
	return preflightConfig{SilencePeak: a.cfg.SilencePeak, NoiseStdDev: a.cfg.NoiseStdDev}
}

func (a *Adapter) threads() int {
	if a.cfg.Threads > 0 {
		return a.cfg.Threads
	}
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	return n
}
