package queue

const (
	TypeTranscribe = "transcription:process"
)

type TranscribePayload struct {
	RequestID string `json:"request_id"`
	MediaURL  string `json:"media_url"`
	Language  string `json:"language,omitempty"`
}
