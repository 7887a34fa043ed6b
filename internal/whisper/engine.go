package whisper

// Segment is one span of recognized speech returned by the engine.
// Timestamps are seconds from the start of the processed samples.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

type inferOptions struct {
	Language string
	Threads  int
}

// inferenceEngine abstracts the loaded native model. The guard and the
// pipeline depend on this interface rather than on the cgo build, so they
// stay testable on machines without the engine libraries.
type inferenceEngine interface {
	// Infer runs one inference pass over mono 16kHz float samples.
	// Callers must serialize Infer calls; the native context is not
	// reentrant.
	Infer(samples []float32, opts inferOptions) ([]Segment, error)

	// Healthy reports whether the underlying context is still usable.
	Healthy() bool

	// Close frees the native context. Safe to call more than once.
	Close() error
}
