package entity

import (
	"time"

	"github.com/google/uuid"
)

// Nudge types produced by the suggestion rules.
const (
	NudgeTypeDormantReminder = "dormant_reminder"
	NudgeTypeMergeSuggestion = "merge_suggestion"
	NudgeTypeKnowledgeGap    = "knowledge_gap"
	NudgeTypeMilestone       = "milestone"
)

// Nudge statuses. Only pending nudges count against the (intentId, type)
// dedup key and the daily budget.
const (
	NudgeStatusPending      = "pending"
	NudgeStatusAcknowledged = "acknowledged"
	NudgeStatusSnoozed      = "snoozed"
	NudgeStatusDismissed    = "dismissed"
)

// Nudge priority tiers.
const (
	NudgePriorityHigh   = "high"
	NudgePriorityMedium = "medium"
	NudgePriorityLow    = "low"
)

type Nudge struct {
	Id       uuid.UUID
	IntentId uuid.UUID
	Type     string
	Status   string
	Priority string

	Message    string
	Confidence float64

	// Data carries rule-specific payload (e.g. the other intent id for a
	// merge suggestion).
	Data map[string]interface{}

	SnoozedUntil *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Key is the dedup key: at most one pending nudge may exist per key.
func (n *Nudge) Key() string {
	return n.IntentId.String() + ":" + n.Type
}
