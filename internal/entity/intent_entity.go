package entity

import (
	"time"

	"github.com/google/uuid"
)

// Intent lifecycle states. Merged, discarded, expired and completed are
// terminal; there is no transition out of merged.
const (
	IntentStatusEmerging  = "emerging"
	IntentStatusActive    = "active"
	IntentStatusDormant   = "dormant"
	IntentStatusCompleted = "completed"
	IntentStatusMerged    = "merged"
	IntentStatusDiscarded = "discarded"
	IntentStatusExpired   = "expired"
)

// EmergingPageThreshold is the page count at which an emerging intent
// becomes active.
const EmergingPageThreshold = 5

// IsTerminalIntentStatus reports whether no further transitions are allowed.
func IsTerminalIntentStatus(status string) bool {
	switch status {
	case IntentStatusCompleted, IntentStatusMerged, IntentStatusDiscarded, IntentStatusExpired:
		return true
	}
	return false
}

// KeywordStat aggregates one keyword across an intent's pages.
type KeywordStat struct {
	Count         int       `json:"count"`
	AvgEngagement float64   `json:"avg_engagement"`
	LastSeen      time.Time `json:"last_seen"`
}

// AggregatedSignals is the rolling aggregate recomputed whenever the page
// set of an intent changes.
type AggregatedSignals struct {
	Keywords      map[string]KeywordStat `json:"keywords"`
	Domains       []string               `json:"domains"`
	Entities      []string               `json:"entities"`
	BrowsingStyle string                 `json:"browsing_style"` // "skimming", "reading", "researching"
}

// LabelRevision keeps the label history auditable.
type LabelRevision struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	ChangedAt  time.Time `json:"changed_at"`
}

type Intent struct {
	Id              uuid.UUID
	Label           string
	LabelConfidence float64
	LabelHistory    []LabelRevision
	Status          string

	// Invariant: PageCount == len(PageIds), and every page in PageIds has
	// this intent as its primary assignment (except mid-merge).
	PageCount int
	PageIds   []uuid.UUID

	Signals AggregatedSignals

	// AI-derived, empty until enrichment jobs run.
	Goal      string
	Summary   string
	Insights  []string
	NextSteps []string

	// Merge bookkeeping; merges are auditable, never destructive.
	MergedInto *uuid.UUID
	MergedFrom []uuid.UUID
	MergedAt   *time.Time

	FirstSeen   time.Time
	LastUpdated time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// KeywordWeights flattens the keyword stats into a weight map for ranking;
// count is scaled by engagement so heavily-read topics outrank drive-bys.
func (i *Intent) KeywordWeights() map[string]float64 {
	weights := make(map[string]float64, len(i.Signals.Keywords))
	for kw, stat := range i.Signals.Keywords {
		weights[kw] = float64(stat.Count) * (0.5 + stat.AvgEngagement)
	}
	return weights
}
