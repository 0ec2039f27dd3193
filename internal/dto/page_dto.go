package dto

import (
	"time"

	"github.com/google/uuid"

	"ai-intent-be/internal/entity"
)

type InteractionPayload struct {
	DwellTimeMs     int64    `json:"dwell_time_ms" validate:"gte=0"`
	ScrollDepth     float64  `json:"scroll_depth" validate:"gte=0,lte=1"`
	ScrollPosition  float64  `json:"scroll_position" validate:"gte=0,lte=1"`
	ScrollDistance  float64  `json:"scroll_distance" validate:"gte=0"`
	TextSelections  []string `json:"text_selections"`
	FocusedSections []string `json:"focused_sections"`
	EngagementScore *float64 `json:"engagement_score" validate:"omitempty,gte=0,lte=1"`
}

type IngestPageRequest struct {
	Id          *uuid.UUID         `json:"id"`
	Url         string             `json:"url" validate:"required,url"`
	Title       string             `json:"title"`
	Interaction InteractionPayload `json:"interaction"`
	VisitedAt   *time.Time         `json:"visited_at"`
}

type IngestPageResponse struct {
	Id uuid.UUID `json:"id"`
	// "created" when a new page was stored, "merged" when the report was
	// folded into a recent visit of the same URL, "updated" on same-id merge.
	Outcome string `json:"outcome"`
}

type IntentAssignmentResponse struct {
	IntentId     uuid.UUID `json:"intent_id"`
	Confidence   float64   `json:"confidence"`
	AssignedAt   time.Time `json:"assigned_at"`
	AutoAssigned bool      `json:"auto_assigned"`
}

type PageResponse struct {
	Id          uuid.UUID                  `json:"id"`
	Url         string                     `json:"url"`
	Title       string                     `json:"title"`
	Interaction entity.Interaction         `json:"interaction"`
	Semantics   *entity.SemanticFeatures   `json:"semantics,omitempty"`
	Primary     *IntentAssignmentResponse  `json:"primary_intent,omitempty"`
	Secondary   []IntentAssignmentResponse `json:"secondary_intents,omitempty"`
	VisitedAt   time.Time                  `json:"visited_at"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   *time.Time                 `json:"updated_at"`
}
