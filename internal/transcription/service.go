// Package transcription orchestrates the full request path: download the
// source audio, run speech recognition with a bounded concurrency pool,
// and track async job state.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/speech-to-text/internal/jobs"
	"github.com/nguyentantai21042004/speech-to-text/internal/queue"
	"github.com/nguyentantai21042004/speech-to-text/internal/storage"
)

// ErrTimeout means the caller-facing deadline elapsed while recognition
// was still running. The native call is left to finish in the background
// because it cannot be interrupted safely mid-inference.
var ErrTimeout = errors.New("transcription: timed out")

// maxConcurrentTranscriptions bounds simultaneous native inference runs.
// Each run is CPU-bound across several threads, so more than a couple in
// flight just causes thrashing.
const maxConcurrentTranscriptions = 2

// Transcriber is the speech recognition engine behind the service.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
	ProbeDuration(ctx context.Context, audioPath string) (float64, error)
}

type jobStore interface {
	Set(ctx context.Context, requestID string, state *jobs.State) error
	Get(ctx context.Context, requestID string) (*jobs.State, error)
}

type enqueuer interface {
	EnqueueTranscribe(payload queue.TranscribePayload) error
}

// Result is a completed transcription.
type Result struct {
	Transcription  string  `json:"transcription"`
	Duration       float64 `json:"duration"`
	SizeMB         float64 `json:"size_mb"`
	ProcessingTime float64 `json:"processing_time"`
}

type Service struct {
	engine      Transcriber
	downloader  storage.AudioDownloader
	store       jobStore
	queue       enqueuer
	tempDir     string
	defaultLang string
	baseTimeout time.Duration
	sem         chan struct{}
}

func NewService(engine Transcriber, downloader storage.AudioDownloader, store jobStore, q enqueuer, tempDir, defaultLang string, baseTimeout time.Duration) *Service {
	return &Service{
		engine:      engine,
		downloader:  downloader,
		store:       store,
		queue:       q,
		tempDir:     tempDir,
		defaultLang: defaultLang,
		baseTimeout: baseTimeout,
		sem:         make(chan struct{}, maxConcurrentTranscriptions),
	}
}

// language falls back to the configured default when the request does not
// name one.
func (s *Service) language(requested string) string {
	if requested != "" {
		return requested
	}
	return s.defaultLang
}

// tempExt extracts the media extension from the URL path. Query strings
// and fragments never leak into temp file names.
func tempExt(mediaURL string) string {
	u, err := url.Parse(mediaURL)
	if err != nil {
		return ""
	}
	return path.Ext(u.Path)
}

// TranscribeFromURL downloads mediaURL and transcribes it, bounded by an
// adaptive deadline scaled to the audio duration. On timeout the wait is
// abandoned, not the inference: the worker goroutine keeps running, and
// it owns the temp file so cleanup never races an in-flight native call.
func (s *Service) TranscribeFromURL(ctx context.Context, mediaURL, language string) (*Result, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	start := time.Now()
	audioPath := filepath.Join(s.tempDir, uuid.NewString()+tempExt(mediaURL))

	sizeMB, err := s.downloader.Download(ctx, mediaURL, audioPath)
	if err != nil {
		<-s.sem
		return nil, fmt.Errorf("download media: %w", err)
	}

	duration, probeErr := s.engine.ProbeDuration(ctx, audioPath)
	if probeErr != nil {
		slog.Warn("duration probe failed, using base timeout", "url", mediaURL, "error", probeErr)
	}
	timeout := s.adaptiveTimeout(duration)

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	// The native call ignores cancellation once started, so the worker
	// runs on a detached context and releases the slot itself.
	workerCtx := context.WithoutCancel(ctx)
	lang := s.language(language)
	go func() {
		defer func() { <-s.sem }()
		defer os.Remove(audioPath)
		text, err := s.engine.Transcribe(workerCtx, audioPath, lang)
		done <- outcome{text: text, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		return &Result{
			Transcription:  out.text,
			Duration:       duration,
			SizeMB:         sizeMB,
			ProcessingTime: time.Since(start).Seconds(),
		}, nil
	case <-timer.C:
		slog.Warn("transcription deadline elapsed, abandoning wait",
			"url", mediaURL, "timeout", timeout)
		return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// adaptiveTimeout scales the deadline with audio length: long recordings
// legitimately take longer than the base request timeout allows.
func (s *Service) adaptiveTimeout(duration float64) time.Duration {
	scaled := time.Duration(duration*1.5) * time.Second
	if scaled > s.baseTimeout {
		return scaled
	}
	return s.baseTimeout
}

// SubmitJob records a PROCESSING state and enqueues the background task.
// Resubmitting a known request ID is a no-op, which makes client retries
// of the submit call safe.
func (s *Service) SubmitJob(ctx context.Context, requestID, mediaURL, language string) error {
	existing, err := s.store.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Info("job already submitted", "request_id", requestID, "status", existing.Status)
		return nil
	}

	state := &jobs.State{
		Status:      jobs.StatusProcessing,
		MediaURL:    mediaURL,
		Language:    language,
		SubmittedAt: jobs.Now(),
	}
	if err := s.store.Set(ctx, requestID, state); err != nil {
		return err
	}

	if err := s.queue.EnqueueTranscribe(queue.TranscribePayload{
		RequestID: requestID,
		MediaURL:  mediaURL,
		Language:  language,
	}); err != nil {
		return fmt.Errorf("enqueue transcription: %w", err)
	}

	slog.Info("transcription job submitted", "request_id", requestID, "url", mediaURL)
	return nil
}

// JobStatus returns the stored state, or (nil, nil) for unknown jobs.
func (s *Service) JobStatus(ctx context.Context, requestID string) (*jobs.State, error) {
	return s.store.Get(ctx, requestID)
}

// ProcessJob runs a queued transcription to completion and writes the
// terminal state. It applies no caller-facing timeout: background jobs
// run as long as the audio requires, bounded only by the task timeout.
// finalAttempt tells the service whether the queue will retry on error;
// a job transitions to a terminal status exactly once, so FAILED is only
// written when no retry can follow.
func (s *Service) ProcessJob(ctx context.Context, requestID, mediaURL, language string, finalAttempt bool) error {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	start := time.Now()
	audioPath := filepath.Join(s.tempDir, uuid.NewString()+tempExt(mediaURL))
	defer os.Remove(audioPath)

	sizeMB, err := s.downloader.Download(ctx, mediaURL, audioPath)
	if err != nil {
		return s.failJob(ctx, requestID, mediaURL, language, fmt.Errorf("download media: %w", err), finalAttempt)
	}

	duration, probeErr := s.engine.ProbeDuration(ctx, audioPath)
	if probeErr != nil {
		slog.Warn("duration probe failed", "request_id", requestID, "error", probeErr)
	}

	text, err := s.engine.Transcribe(ctx, audioPath, s.language(language))
	if err != nil {
		return s.failJob(ctx, requestID, mediaURL, language, err, finalAttempt)
	}

	state := &jobs.State{
		Status:         jobs.StatusCompleted,
		MediaURL:       mediaURL,
		Language:       language,
		Transcription:  text,
		Duration:       duration,
		ProcessingTime: time.Since(start).Seconds(),
		CompletedAt:    jobs.Now(),
	}
	if err := s.store.Set(ctx, requestID, state); err != nil {
		return err
	}

	slog.Info("transcription job completed",
		"request_id", requestID,
		"duration", duration,
		"size_mb", sizeMB,
		"processing_time", state.ProcessingTime)
	return nil
}

// failJob returns the original error so the task queue can apply its
// retry policy. FAILED is written only when this was the last attempt:
// writing it earlier would let a later successful retry overwrite a
// status pollers already observed as terminal.
func (s *Service) failJob(ctx context.Context, requestID, mediaURL, language string, cause error, finalAttempt bool) error {
	if !finalAttempt {
		slog.Warn("transcription attempt failed, task will retry",
			"request_id", requestID, "error", cause)
		return cause
	}

	slog.Error("transcription job failed", "request_id", requestID, "error", cause)

	state := &jobs.State{
		Status:   jobs.StatusFailed,
		MediaURL: mediaURL,
		Language: language,
		Error:    cause.Error(),
		FailedAt: jobs.Now(),
	}
	if err := s.store.Set(ctx, requestID, state); err != nil {
		slog.Error("failed to record job failure", "request_id", requestID, "error", err)
	}
	return cause
}
