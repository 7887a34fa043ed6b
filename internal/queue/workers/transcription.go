package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/nguyentantai21042004/speech-to-text/internal/queue"
	"github.com/nguyentantai21042004/speech-to-text/internal/transcription"
)

type TranscriptionWorker struct {
	svc *transcription.Service
}

func NewTranscriptionWorker(svc *transcription.Service) *TranscriptionWorker {
	return &TranscriptionWorker{svc: svc}
}

func (w *TranscriptionWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.TranscribePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	slog.Info("processing transcription task",
		"request_id", payload.RequestID, "url", payload.MediaURL, "attempt", retried+1)

	return w.svc.ProcessJob(ctx, payload.RequestID, payload.MediaURL, payload.Language, retried >= maxRetry)
}
