package entity

import (
	"time"

	"github.com/google/uuid"
)

// Interaction holds the raw engagement metrics reported by the ingestion
// collaborator. Counters are merged additively across reports of the same
// visit; monotonic metrics take the max.
type Interaction struct {
	DwellTimeMs     int64    `json:"dwell_time_ms"`
	ScrollDepth     float64  `json:"scroll_depth"`     // 0-1, max position reached
	ScrollPosition  float64  `json:"scroll_position"`  // 0-1, last known position
	ScrollDistance  float64  `json:"scroll_distance"`  // cumulative pixels
	TextSelections  []string `json:"text_selections"`
	FocusedSections []string `json:"focused_sections"`
	EngagementScore float64  `json:"engagement_score"` // derived 0-1
}

// SemanticFeatures is filled in by the semantic-extraction job.
type SemanticFeatures struct {
	Concepts      []string `json:"concepts"`
	Entities      []string `json:"entities"`
	PrimaryAction string   `json:"primary_action"`
	ContentType   string   `json:"content_type"`
	Sentiment     string   `json:"sentiment"`
}

// IntentAssignment records a page's membership in an intent.
type IntentAssignment struct {
	IntentId     uuid.UUID `json:"intent_id"`
	Confidence   float64   `json:"confidence"`
	AssignedAt   time.Time `json:"assigned_at"`
	AutoAssigned bool      `json:"auto_assigned"`
}

type Page struct {
	Id          uuid.UUID
	Url         string
	Title       string
	Interaction Interaction

	// Enrichment, nil until the corresponding jobs complete.
	Semantics *SemanticFeatures
	Embedding []float32

	// A page has at most one primary intent; secondary assignments never
	// imply ownership.
	Primary   *IntentAssignment
	Secondary []IntentAssignment

	VisitedAt time.Time // first seen
	CreatedAt time.Time
	UpdatedAt *time.Time
}
