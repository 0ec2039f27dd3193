package unitofwork

import (
	"context"

	"ai-intent-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PageRepository() contract.PageRepository
	IntentRepository() contract.IntentRepository
	TaskRepository() contract.TaskRepository
	NudgeRepository() contract.NudgeRepository
}
