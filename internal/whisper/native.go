//go:build whispercpp

// This file binds to whisper.cpp through the official Go bindings. The
// bindings are generated by cgo against the engine's own whisper.h, so the
// inference parameter block always carries the layout the native compiler
// produced for the linked build — field offsets are never hand-transcribed.

package whisper

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	whispercpp "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

type nativeEngine struct {
	model whispercpp.Model
}

func newNativeEngine(modelPath string) (inferenceEngine, error) {
	model, err := whispercpp.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open model %s: %v", ErrModelInit, modelPath, err)
	}
	return &nativeEngine{model: model}, nil
}

func (e *nativeEngine) Infer(samples []float32, opts inferOptions) ([]Segment, error) {
	wctx, err := e.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("new inference context: %w", err)
	}

	if opts.Threads > 0 {
		wctx.SetThreads(uint(opts.Threads))
	}
	if opts.Language != "" {
		if err := wctx.SetLanguage(opts.Language); err != nil {
			slog.Warn("failed to set language, engine default applies",
				"language", opts.Language, "error", err)
		}
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("process %d samples: %w", len(samples), err)
	}

	var segments []Segment
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read segment: %w", err)
		}
		segments = append(segments, Segment{
			Start: seg.Start.Seconds(),
			End:   seg.End.Seconds(),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return segments, nil
}

func (e *nativeEngine) Healthy() bool {
	return e.model != nil
}

func (e *nativeEngine) Close() error {
	if e.model == nil {
		return nil
	}
	err := e.model.Close()
	e.model = nil
	return err
}
