package constant

// Task types executed by the scheduler.
const (
	TaskSemanticExtraction = "semantic_extraction" // page: concepts/entities/goal + embedding
	TaskIntentMatching     = "intent_matching"     // page: assign to an intent (or create one)
	TaskIntentLabel        = "intent_label"
	TaskIntentSummary      = "intent_summary"
	TaskIntentInsights     = "intent_insights"
	TaskMilestoneCheck     = "milestone_check" // infer completion / next steps
	TaskMergeScan          = "merge_scan"      // system-wide: run the detector
	TaskNudgeGeneration    = "nudge_generation"
)

// Base priorities; lower runs sooner. First-time enrichment outranks
// everything triggered by background refresh.
const (
	PrioritySemanticExtraction = 1
	PriorityIntentMatching     = 2
	PriorityIntentLabel        = 3
	PriorityIntentSummary      = 4
	PriorityIntentInsights     = 5
	PriorityMilestoneCheck     = 6
	PriorityMergeScan          = 7
	PriorityNudgeGeneration    = 8

	// RefreshPriorityPenalty is added when re-enqueueing derived-content jobs
	// after an intent's page set changes, so refreshes never starve
	// first-time enrichment.
	RefreshPriorityPenalty = 10
)
