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

type IntentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.IntentMapper
}

func NewIntentRepository(db *gorm.DB) contract.IntentRepository {
	return &IntentRepositoryImpl{
		db:     db,
		mapper: mapper.NewIntentMapper(),
	}
}

func (r *IntentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *IntentRepositoryImpl) Create(ctx context.Context, intent *entity.Intent) error {
	m := r.mapper.ToModel(intent)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*intent = *r.mapper.ToEntity(m)
	return nil
}

func (r *IntentRepositoryImpl) Update(ctx context.Context, intent *entity.Intent) error {
	m := r.mapper.ToModel(intent)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*intent = *r.mapper.ToEntity(m)
	return nil
}

func (r *IntentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Intent{}, id).Error
}

func (r *IntentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Intent, error) {
	var m model.Intent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *IntentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Intent, error) {
	var models []*model.Intent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *IntentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Intent{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
