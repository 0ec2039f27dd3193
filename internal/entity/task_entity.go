package entity

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses. Completed and failed are terminal; a terminal task never
// re-enters queued except via an explicit fresh submission.
const (
	TaskStatusQueued     = "queued"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// Task error kinds, per the scheduler's classification rules.
const (
	TaskErrorTransient  = "transient"
	TaskErrorDependency = "dependency"
	TaskErrorPermanent  = "permanent"
)

// TaskError carries the classified failure for a task.
type TaskError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *TaskError) Error() string {
	return e.Kind + ": " + e.Message
}

type Task struct {
	Id   uuid.UUID
	Type string

	// Target entity: PageId xor IntentId; both nil for system-wide jobs.
	PageId   *uuid.UUID
	IntentId *uuid.UUID

	Priority   int // lower runs sooner
	Status     string
	RetryCount int
	DependsOn  []uuid.UUID

	StructuredInput  map[string]interface{}
	StructuredOutput map[string]interface{}
	Error            *TaskError

	// NextRunAt gates retry backoff; a queued task is not eligible before it.
	NextRunAt   time.Time
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// TargetKey identifies the entity a task operates on, for idempotent enqueue
// and per-entity serialization. System-wide jobs share the "system" key.
func (t *Task) TargetKey() string {
	switch {
	case t.PageId != nil:
		return "page:" + t.PageId.String()
	case t.IntentId != nil:
		return "intent:" + t.IntentId.String()
	default:
		return "system"
	}
}

// IsTerminal reports whether the task reached a final state.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}
