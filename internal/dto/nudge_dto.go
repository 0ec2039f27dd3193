package dto

import (
	"time"

	"github.com/google/uuid"
)

type NudgeResponse struct {
	Id           uuid.UUID              `json:"id"`
	IntentId     uuid.UUID              `json:"intent_id"`
	Type         string                 `json:"type"`
	Priority     string                 `json:"priority"`
	Status       string                 `json:"status"`
	Message      string                 `json:"message"`
	Confidence   float64                `json:"confidence,omitempty"`
	Data         map[string]interface{} `json:"data,omitempty"`
	SnoozedUntil *time.Time             `json:"snoozed_until,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

type SnoozeNudgeRequest struct {
	Id    uuid.UUID
	Until time.Time `json:"until" validate:"required"`
}

type NudgeActionResponse struct {
	Id uuid.UUID `json:"id"`
}
