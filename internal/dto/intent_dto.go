package dto

import (
	"time"

	"github.com/google/uuid"

	"ai-intent-be/internal/entity"
)

type IntentResponse struct {
	Id              uuid.UUID              `json:"id"`
	Label           string                 `json:"label"`
	LabelConfidence float64                `json:"label_confidence"`
	Status          string                 `json:"status"`
	PageCount       int                    `json:"page_count"`
	Goal            string                 `json:"goal,omitempty"`
	Summary         string                 `json:"summary,omitempty"`
	FirstSeen       time.Time              `json:"first_seen"`
	LastUpdated     time.Time              `json:"last_updated"`
	MergedInto      *uuid.UUID             `json:"merged_into,omitempty"`
}

type IntentDetailResponse struct {
	IntentResponse
	LabelHistory []entity.LabelRevision   `json:"label_history,omitempty"`
	PageIds      []uuid.UUID              `json:"page_ids"`
	Signals      entity.AggregatedSignals `json:"signals"`
	Insights     []string                 `json:"insights,omitempty"`
	NextSteps    []string                 `json:"next_steps,omitempty"`
	MergedFrom   []uuid.UUID              `json:"merged_from,omitempty"`
	MergedAt     *time.Time               `json:"merged_at,omitempty"`
}

type UpdateIntentRequest struct {
	Id     uuid.UUID
	Label  *string `json:"label" validate:"omitempty,min=1,max=200"`
	Goal   *string `json:"goal"`
	Status *string `json:"status" validate:"omitempty,oneof=completed discarded"`
}

type UpdateIntentResponse struct {
	Id uuid.UUID `json:"id"`
}

type MergeIntentsRequest struct {
	LoserId  uuid.UUID `json:"loser_id" validate:"required"`
	WinnerId uuid.UUID `json:"winner_id" validate:"required"`
}

type MergeIntentsResponse struct {
	WinnerId uuid.UUID `json:"winner_id"`
}
