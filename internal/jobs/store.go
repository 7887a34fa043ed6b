// Package jobs persists async transcription job state in Redis. Entries
// expire via TTL, so polling a finished job eventually returns not-found.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "stt:job:"

// Job statuses as stored in Redis and surfaced to API clients.
const (
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// State is the full record for one async transcription request.
type State struct {
	Status         string  `json:"status"`
	MediaURL       string  `json:"media_url"`
	Language       string  `json:"language,omitempty"`
	Transcription  string  `json:"transcription,omitempty"`
	Duration       float64 `json:"duration,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
	Error          string  `json:"error,omitempty"`
	SubmittedAt    string  `json:"submitted_at,omitempty"`
	CompletedAt    string  `json:"completed_at,omitempty"`
	FailedAt       string  `json:"failed_at,omitempty"`
}

// Store reads and writes job state keyed by request ID.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Set writes the state for requestID, refreshing the TTL. Terminal
// states keep the same TTL as processing ones so results stay pollable
// for a while after completion.
func (s *Store) Set(ctx context.Context, requestID string, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal job state: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+requestID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store job %s: %w", requestID, err)
	}
	return nil
}

// Get returns the state for requestID, or (nil, nil) when the job is
// unknown or expired.
func (s *Store) Get(ctx context.Context, requestID string) (*State, error) {
	data, err := s.client.Get(ctx, keyPrefix+requestID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch job %s: %w", requestID, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", requestID, err)
	}
	return &state, nil
}

// Delete removes the state for requestID. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, requestID string) error {
	if err := s.client.Del(ctx, keyPrefix+requestID).Err(); err != nil {
		return fmt.Errorf("delete job %s: %w", requestID, err)
	}
	return nil
}

// Now formats the current time the way job timestamps are stored.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
