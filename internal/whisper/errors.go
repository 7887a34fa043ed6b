package whisper

import "errors"

var (
	// ErrLibraryLoad means the native shared libraries could not be located
	// or ordered. Fatal at construction; the adapter must not serve.
	ErrLibraryLoad = errors.New("whisper: library load failed")

	// ErrModelInit means the model file is missing or the native initializer
	// rejected it. Fatal at construction.
	ErrModelInit = errors.New("whisper: model init failed")

	// ErrContextRecovery means the engine context was found dead and could
	// not be re-created. Fails the current call only; the next call retries.
	ErrContextRecovery = errors.New("whisper: context recovery failed")

	// ErrAudioNotFound means the input path does not exist.
	ErrAudioNotFound = errors.New("whisper: audio file not found")

	// ErrDurationProbe means ffprobe failed or produced unusable output.
	// Callers are expected to degrade to treating the audio as short.
	ErrDurationProbe = errors.New("whisper: duration probe failed")

	// ErrTooManyChunks means window planning exceeded its safety bound,
	// which indicates a boundary-advancement bug rather than long audio.
	ErrTooManyChunks = errors.New("whisper: too many chunks")

	// ErrTranscription wraps decode and inference failures.
	ErrTranscription = errors.New("whisper: transcription failed")
)
