package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nguyentantai21042004/speech-to-text/internal/jobs"
	"github.com/nguyentantai21042004/speech-to-text/internal/storage"
	"github.com/nguyentantai21042004/speech-to-text/internal/transcription"
)

// TranscriptionService is what the handlers need from the service layer.
type TranscriptionService interface {
	TranscribeFromURL(ctx context.Context, mediaURL, language string) (*transcription.Result, error)
	SubmitJob(ctx context.Context, requestID, mediaURL, language string) error
	JobStatus(ctx context.Context, requestID string) (*jobs.State, error)
}

type TranscribeHandler struct {
	svc TranscriptionService
}

func NewTranscribeHandler(svc TranscriptionService) *TranscribeHandler {
	return &TranscribeHandler{svc: svc}
}

type transcribeRequest struct {
	MediaURL  string `json:"media_url"`
	Language  string `json:"language"`
	RequestID string `json:"request_id"`
}

func decodeTranscribeRequest(r *http.Request) (*transcribeRequest, map[string]string) {
	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, map[string]string{"body": "invalid JSON"}
	}
	if req.MediaURL == "" {
		return nil, map[string]string{"media_url": "required"}
	}
	if _, err := url.Parse(req.MediaURL); err != nil {
		return nil, map[string]string{"media_url": "not a valid URL"}
	}
	return &req, nil
}

// Sync handles POST /api/v1/transcribe/sync. The request blocks until
// recognition finishes or the adaptive deadline elapses.
func (h *TranscribeHandler) Sync(w http.ResponseWriter, r *http.Request) {
	req, fieldErrors := decodeTranscribeRequest(r)
	if fieldErrors != nil {
		respondValidation(w, fieldErrors)
		return
	}

	result, err := h.svc.TranscribeFromURL(r.Context(), req.MediaURL, req.Language)
	if err != nil {
		switch {
		case errors.Is(err, transcription.ErrTimeout):
			respondError(w, http.StatusRequestTimeout, codeTimeout,
				"transcription did not finish in time, use the async endpoint for long audio")
		case errors.Is(err, storage.ErrTooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, codePayloadLimit, "media file exceeds size limit")
		case errors.Is(err, os.ErrNotExist):
			respondError(w, http.StatusNotFound, codeNotFound, "media not found")
		default:
			slog.Error("sync transcription failed", "url", req.MediaURL, "error", err)
			respondError(w, http.StatusInternalServerError, codeInternalError, "transcription failed")
		}
		return
	}

	respondData(w, http.StatusOK, "transcription completed", result)
}

// Submit handles POST /api/v1/transcribe. It accepts the job and returns
// 202 immediately; processing happens on the worker. Clients may supply
// their own request_id to make retries idempotent.
func (h *TranscribeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, fieldErrors := decodeTranscribeRequest(r)
	if fieldErrors != nil {
		respondValidation(w, fieldErrors)
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if err := h.svc.SubmitJob(r.Context(), requestID, req.MediaURL, req.Language); err != nil {
		slog.Error("job submission failed", "request_id", requestID, "error", err)
		respondError(w, http.StatusInternalServerError, codeInternalError, "failed to submit job")
		return
	}

	respondData(w, http.StatusAccepted, "transcription job accepted", map[string]string{
		"request_id": requestID,
		"status":     jobs.StatusProcessing,
	})
}

// Status handles GET /api/v1/transcribe/{request_id}.
func (h *TranscribeHandler) Status(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "request_id")
	if requestID == "" {
		respondValidation(w, map[string]string{"request_id": "required"})
		return
	}

	state, err := h.svc.JobStatus(r.Context(), requestID)
	if err != nil {
		slog.Error("job status lookup failed", "request_id", requestID, "error", err)
		respondError(w, http.StatusInternalServerError, codeInternalError, "failed to fetch job status")
		return
	}
	if state == nil {
		respondError(w, http.StatusNotFound, codeNotFound, "unknown or expired request_id")
		return
	}

	respondData(w, http.StatusOK, "job status", jobStatusData(requestID, state))
}

func jobStatusData(requestID string, state *jobs.State) map[string]interface{} {
	data := map[string]interface{}{
		"request_id": requestID,
		"status":     state.Status,
		"media_url":  state.MediaURL,
	}
	switch state.Status {
	case jobs.StatusCompleted:
		data["transcription"] = state.Transcription
		data["duration"] = state.Duration
		data["processing_time"] = state.ProcessingTime
		data["completed_at"] = state.CompletedAt
	case jobs.StatusFailed:
		data["error"] = state.Error
		data["failed_at"] = state.FailedAt
	default:
		data["submitted_at"] = state.SubmittedAt
	}
	return data
}
