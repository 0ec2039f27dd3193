package contract

import (
	"context"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/repository/specification"

	"github.com/google/uuid"
)

type NudgeRepository interface {
	Create(ctx context.Context, nudge *entity.Nudge) error
	Update(ctx context.Context, nudge *entity.Nudge) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Nudge, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Nudge, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
