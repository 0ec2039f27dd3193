package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TaskResponse struct {
	Id           uuid.UUID       `json:"id"`
	Type         string          `json:"type"`
	PageId       *uuid.UUID      `json:"page_id,omitempty"`
	IntentId     *uuid.UUID      `json:"intent_id,omitempty"`
	Priority     int             `json:"priority"`
	Status       string          `json:"status"`
	RetryCount   int             `json:"retry_count"`
	DependsOn    []uuid.UUID     `json:"depends_on,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
	ErrorKind    string          `json:"error_kind,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	NextRunAt    *time.Time      `json:"next_run_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

type EnqueueTaskResponse struct {
	Id uuid.UUID `json:"id"`
	// "enqueued" or "duplicate" when an equivalent task was already pending.
	Outcome string `json:"outcome"`
}
