package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-intent-be/internal/entity"
)

// errEntityGone marks failures caused by the task's target no longer
// existing. These never retry.
var errEntityGone = errors.New("target entity no longer exists")

func entityGone(kind string, id interface{}) error {
	return fmt.Errorf("%w: %s %v", errEntityGone, kind, id)
}

// classifyTaskError maps an execution error onto the retry policy. Timeouts
// and provider throttling are transient; a vanished target or an invalid
// payload is permanent.
func classifyTaskError(err error) *entity.TaskError {
	var te *entity.TaskError
	if errors.As(err, &te) {
		return te
	}

	if errors.Is(err, errEntityGone) {
		return &entity.TaskError{Kind: entity.TaskErrorPermanent, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &entity.TaskError{Kind: entity.TaskErrorTransient, Message: err.Error()}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "429"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporarily"),
		strings.Contains(msg, "connection refused"):
		return &entity.TaskError{Kind: entity.TaskErrorTransient, Message: err.Error()}
	}
	return &entity.TaskError{Kind: entity.TaskErrorPermanent, Message: err.Error()}
}
