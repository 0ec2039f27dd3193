package implementation

import (
	"context"
	"errors"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/mapper"
	"ai-intent-be/internal/model"
	"ai-intent-be/internal/repository/contract"
	"ai-intent-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NudgeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NudgeMapper
}

func NewNudgeRepository(db *gorm.DB) contract.NudgeRepository {
	return &NudgeRepositoryImpl{
		db:     db,
		mapper: mapper.NewNudgeMapper(),
	}
}

func (r *NudgeRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *NudgeRepositoryImpl) Create(ctx context.Context, nudge *entity.Nudge) error {
	m := r.mapper.ToModel(nudge)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*nudge = *r.mapper.ToEntity(m)
	return nil
}

func (r *NudgeRepositoryImpl) Update(ctx context.Context, nudge *entity.Nudge) error {
	m := r.mapper.ToModel(nudge)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*nudge = *r.mapper.ToEntity(m)
	return nil
}

func (r *NudgeRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Nudge{}, id).Error
}

func (r *NudgeRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Nudge, error) {
	var m model.Nudge
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NudgeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Nudge, error) {
	var models []*model.Nudge
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NudgeRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Nudge{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
