package contract

import (
	"context"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/repository/specification"

	"github.com/google/uuid"
)

type IntentRepository interface {
	Create(ctx context.Context, intent *entity.Intent) error
	Update(ctx context.Context, intent *entity.Intent) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Intent, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Intent, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
