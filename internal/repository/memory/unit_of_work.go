package memory

import (
	"context"

	"ai-intent-be/internal/repository/contract"
	"ai-intent-be/internal/repository/unitofwork"
)

// UnitOfWork exposes the in-memory repositories through the unitofwork
// contract. Begin/Commit/Rollback are accepted but not transactional; the
// in-memory store is only used in tests and single-writer setups where the
// service layer's per-entity locks already serialize mutations.
type UnitOfWork struct {
	pages   *PageRepository
	intents *IntentRepository
	tasks   *TaskRepository
	nudges  *NudgeRepository
}

func (u *UnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *UnitOfWork) Commit() error                   { return nil }
func (u *UnitOfWork) Rollback() error                 { return nil }

func (u *UnitOfWork) PageRepository() contract.PageRepository     { return u.pages }
func (u *UnitOfWork) IntentRepository() contract.IntentRepository { return u.intents }
func (u *UnitOfWork) TaskRepository() contract.TaskRepository     { return u.tasks }
func (u *UnitOfWork) NudgeRepository() contract.NudgeRepository   { return u.nudges }

// Factory is a unitofwork.RepositoryFactory over a single shared set of
// in-memory repositories.
type Factory struct {
	uow *UnitOfWork
}

func NewFactory() *Factory {
	return &Factory{
		uow: &UnitOfWork{
			pages:   NewPageRepository(),
			intents: NewIntentRepository(),
			tasks:   NewTaskRepository(),
			nudges:  NewNudgeRepository(),
		},
	}
}

func (f *Factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

var _ unitofwork.RepositoryFactory = (*Factory)(nil)
