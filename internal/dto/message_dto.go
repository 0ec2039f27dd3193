package dto

import "github.com/google/uuid"

// EnrichmentEventMessage is the payload carried on the in-process watermill
// bus between the store and the enrichment consumer. Exactly one of PageId
// and IntentId is set, matching the event type.
type EnrichmentEventMessage struct {
	EventType string     `json:"event_type"` // pkg/events type constants
	PageId    *uuid.UUID `json:"page_id,omitempty"`
	IntentId  *uuid.UUID `json:"intent_id,omitempty"`
	// FirstTime marks the initial enrichment of a fresh intent; refreshes of
	// an existing intent run at a lower priority.
	FirstTime bool `json:"first_time,omitempty"`
}

// NudgeNotification is pushed to NATS for external subscribers.
type NudgeNotification struct {
	NudgeId  uuid.UUID `json:"nudge_id"`
	IntentId uuid.UUID `json:"intent_id"`
	Type     string    `json:"type"`
	Message  string    `json:"message"`
}

// MergeNotification is pushed to NATS when two intents are merged.
type MergeNotification struct {
	WinnerId uuid.UUID `json:"winner_id"`
	LoserId  uuid.UUID `json:"loser_id"`
}
