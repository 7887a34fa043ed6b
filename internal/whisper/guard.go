package whisper

import (
	"fmt"
	"log/slog"
	"sync"
)

// contextGuard serializes every call into the native engine behind one
// mutex. The model context keeps internal mutable state and is not safe for
// concurrent invocation; one in-flight inference per process is the
// intended backpressure, not a bottleneck to engineer around.
//
// The goroutine that acquires the mutex is the goroutine that performs the
// native call and releases the mutex when it returns. Caller-side timeouts
// race against that goroutine's completion; they never detach the lock from
// its owner.
type contextGuard struct {
	mu        sync.Mutex
	engine    inferenceEngine
	modelPath string
	factory   func(string) (inferenceEngine, error)
}

func newContextGuard(engine inferenceEngine, modelPath string, factory func(string) (inferenceEngine, error)) *contextGuard {
	return &contextGuard{engine: engine, modelPath: modelPath, factory: factory}
}

// withEngine runs fn with exclusive access to a healthy engine. A dead
// engine is re-created from the model path first; if that recovery fails,
// only this call fails and the next one retries from scratch.
func (g *contextGuard) withEngine(fn func(inferenceEngine) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.engine == nil || !g.engine.Healthy() {
		slog.Warn("whisper context unhealthy, attempting recovery", "model", g.modelPath)
		if err := g.recoverLocked(); err != nil {
			return fmt.Errorf("%w: %v", ErrContextRecovery, err)
		}
		slog.Warn("whisper context reinitialized after recovery")
	}

	return fn(g.engine)
}

// recoverLocked frees the suspect engine (best effort, the handle may
// already be invalid) and re-initializes from the same model path.
// Callers must hold g.mu.
func (g *contextGuard) recoverLocked() error {
	if g.engine != nil {
		if err := g.engine.Close(); err != nil {
			slog.Warn("failed to free old context, may already be invalid", "error", err)
		}
		g.engine = nil
	}

	engine, err := g.factory(g.modelPath)
	if err != nil {
		return err
	}
	g.engine = engine
	return nil
}

// ready reports whether the engine could serve a call right now. A held
// mutex means an inference is in flight, which counts as ready; blocking
// a readiness probe behind a minutes-long native call would flap the
// service for no reason.
func (g *contextGuard) ready() bool {
	if !g.mu.TryLock() {
		return true
	}
	defer g.mu.Unlock()
	return g.engine != nil && g.engine.Healthy()
}

// close frees the engine. Subsequent withEngine calls will attempt
// recovery, so close is intended for adapter teardown only.
func (g *contextGuard) close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.engine == nil {
		return nil
	}
	err := g.engine.Close()
	g.engine = nil
	return err
}
