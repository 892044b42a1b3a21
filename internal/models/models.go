package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// VideoStatus is the lifecycle status of a video generation record.
// PENDING is set by the API when the record is created; the processor
// owns every transition after that. COMPLETE and FAILED are terminal.
type VideoStatus string

const (
	StatusPending    VideoStatus = "PENDING"
	StatusProcessing VideoStatus = "PROCESSING"
	StatusComplete   VideoStatus = "COMPLETE"
	StatusFailed     VideoStatus = "FAILED"
)

// MaxErrorMessageLen bounds the error_message column.
const MaxErrorMessageLen = 2000

// Video mirrors a row of the videos table. The processor holds a transient
// view of at most one video at a time, for the duration of one job.
type Video struct {
	ID           string      `json:"id"`
	StorageKey   *string     `json:"storage_key,omitempty"`
	FileName     *string     `json:"file_name,omitempty"`
	MimeType     *string     `json:"mime_type,omitempty"`
	Status       VideoStatus `json:"status"`
	Progress     int         `json:"progress"`
	ErrorMessage *string     `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// GenerationRequest is the queue message payload published by the API.
type GenerationRequest struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// ParseGenerationRequest decodes a queue message body and rejects payloads
// with missing fields.
func ParseGenerationRequest(body []byte) (*GenerationRequest, error) {
	var req GenerationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if req.ID == "" {
		return nil, fmt.Errorf("payload missing id")
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("payload %s missing prompt", req.ID)
	}
	return &req, nil
}

// TruncateError bounds an error message to max characters (not bytes) so it
// fits the error_message column without splitting a multi-byte rune.
func TruncateError(msg string, max int) string {
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max])
}
