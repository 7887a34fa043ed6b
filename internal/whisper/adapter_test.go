package whisper

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// newTestAdapter wires an Adapter around a fake engine, skipping the
// native library and model loading that New performs. The subprocess
// steps are stubbed out so no test shells to ffmpeg.
func newTestAdapter(t *testing.T, engine inferenceEngine, factory func(string) (inferenceEngine, error)) *Adapter {
	t.Helper()
	cfg := Config{TempDir: t.TempDir()}
	cfg.applyDefaults()
	return &Adapter{
		cfg:   cfg,
		guard: newContextGuard(engine, "model.bin", factory),
		resample: func(context.Context, string, string, float64, float64) error {
			return nil
		},
		readWAV: func(string) ([]float32, float64, error) {
			return speechLikeSamples(sampleRate), 1, nil
		},
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	a := newTestAdapter(t, newFakeEngine(), nil)
	_, err := a.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), "en")
	if !errors.Is(err, ErrAudioNotFound) {
		t.Fatalf("expected ErrAudioNotFound, got %v", err)
	}
}

func TestTranscribeSamplesJoinsSegments(t *testing.T) {
	engine := newFakeEngine()
	engine.segments = []Segment{
		{Start: 0, End: 1.5, Text: "xin chào"},
		{Start: 1.5, End: 3, Text: "các bạn"},
	}
	a := newTestAdapter(t, engine, nil)

	samples := speechLikeSamples(sampleRate)
	got, err := a.transcribeSamples(samples, "vi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "xin chào các bạn" {
		t.Fatalf("expected joined segment text, got %q", got)
	}
}

func TestTranscribeSamplesPreflightShortCircuits(t *testing.T) {
	engine := newFakeEngine()
	a := newTestAdapter(t, engine, nil)

	got, err := a.transcribeSamples(make([]float32, sampleRate), "vi")
	if err != nil {
		t.Fatalf("silent audio must not be an error, got %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty transcription for silent audio, got %q", got)
	}
	if engine.calls.Load() != 0 {
		t.Fatal("preflight-invalid audio must never reach the engine")
	}
}

func TestTranscribeSamplesZeroSegments(t *testing.T) {
	engine := newFakeEngine() // no segments configured
	a := newTestAdapter(t, engine, nil)

	got, err := a.transcribeSamples(speechLikeSamples(sampleRate), "vi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty text for 0 segments, got %q", got)
	}
}

func TestTranscribeSamplesWrapsInferenceFailure(t *testing.T) {
	engine := newFakeEngine()
	engine.inferErr = errors.New("native error code: -6")
	a := newTestAdapter(t, engine, nil)

	_, err := a.transcribeSamples(speechLikeSamples(sampleRate), "vi")
	if !errors.Is(err, ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
}

func TestTranscribeSamplesSurfacesRecoveryFailure(t *testing.T) {
	dead := newFakeEngine()
	dead.invalidate()
	a := newTestAdapter(t, dead, func(string) (inferenceEngine, error) {
		return nil, errors.New("model file corrupted")
	})

	_, err := a.transcribeSamples(speechLikeSamples(sampleRate), "vi")
	if !errors.Is(err, ErrContextRecovery) {
		t.Fatalf("expected ErrContextRecovery, got %v", err)
	}
}

func TestTranscribeChunkedToleratesWindowFailure(t *testing.T) {
	engine := newFakeEngine()
	engine.segments = []Segment{{Start: 0, End: 1, Text: "hello there"}}
	a := newTestAdapter(t, engine, nil)

	failures := 0
	a.readWAV = func(path string) ([]float32, float64, error) {
		if strings.Contains(path, "_chunk_1.wav") {
			failures++
			return nil, 0, errors.New("corrupt window")
		}
		return speechLikeSamples(sampleRate), 1, nil
	}

	// 90s at 30s windows with 3s overlap plans 4 windows; the second fails.
	got, err := a.transcribeChunked(context.Background(), "call.wav", "vi", 90)
	if err != nil {
		t.Fatalf("one bad window must not fail the whole call: %v", err)
	}
	if failures != 1 {
		t.Fatalf("expected exactly one failed window, got %d", failures)
	}
	// Identical window texts collapse at the seams.
	if got != "hello there" {
		t.Fatalf("expected surviving windows to merge, got %q", got)
	}
	if calls := engine.calls.Load(); calls != 3 {
		t.Fatalf("expected the 3 healthy windows to reach the engine, got %d calls", calls)
	}
}

func TestChunkArtifactNamesUniquePerCall(t *testing.T) {
	engine := newFakeEngine()
	engine.segments = []Segment{{Text: "ok"}}
	a := newTestAdapter(t, engine, nil)

	seen := make(map[string]int)
	a.resample = func(_ context.Context, _, dst string, _, _ float64) error {
		seen[dst]++
		return nil
	}

	// Two calls over the same source must not share window artifact paths.
	for i := 0; i < 2; i++ {
		if _, err := a.transcribeChunked(context.Background(), "call.wav", "vi", 90); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	for dst, n := range seen {
		if n != 1 {
			t.Fatalf("artifact path %s reused %d times across calls", dst, n)
		}
	}
}

func TestApplyDefaultsRespectsZeroOverlap(t *testing.T) {
	cfg := Config{ChunkOverlap: 0}
	cfg.applyDefaults()
	if cfg.ChunkOverlap != 0 {
		t.Fatalf("explicit zero overlap must be kept, got %v", cfg.ChunkOverlap)
	}

	cfg = Config{ChunkOverlap: -1}
	cfg.applyDefaults()
	if cfg.ChunkOverlap != 3 {
		t.Fatalf("negative overlap must fall back to the default, got %v", cfg.ChunkOverlap)
	}
}

func TestThreadsAutoDetect(t *testing.T) {
	a := newTestAdapter(t, newFakeEngine(), nil)
	if n := a.threads(); n < 1 || n > 8 {
		t.Fatalf("auto-detected threads out of range: %d", n)
	}

	a.cfg.Threads = 3
	if n := a.threads(); n != 3 {
		t.Fatalf("expected configured thread count, got %d", n)
	}
}

func TestLookupModelConfig(t *testing.T) {
	for _, size := range ModelSizes() {
		if _, err := lookupModelConfig(size); err != nil {
			t.Fatalf("size %q: %v", size, err)
		}
	}
	if _, err := lookupModelConfig("gigantic"); err == nil {
		t.Fatal("expected error for unknown model size")
	}
}

// speechLikeSamples produces audio that passes preflight: loud enough and
// with enough variance.
func speechLikeSamples(n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.4
		} else {
			samples[i] = -0.4
		}
	}
	return samples
}
