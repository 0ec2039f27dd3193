package memory

import (
	"context"
	"encoding/json"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/repository/contract"
	"ai-intent-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// IntentRepository is the in-memory contract.IntentRepository.
type IntentRepository struct {
	cache *cache.Cache
}

func NewIntentRepository() *IntentRepository {
	return &IntentRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func cloneIntent(i *entity.Intent) *entity.Intent {
	data, _ := json.Marshal(i)
	var out entity.Intent
	_ = json.Unmarshal(data, &out)
	if out.Signals.Keywords == nil {
		out.Signals.Keywords = make(map[string]entity.KeywordStat)
	}
	return &out
}

func (r *IntentRepository) Create(ctx context.Context, intent *entity.Intent) error {
	if intent.Id == uuid.Nil {
		intent.Id = uuid.New()
	}
	r.cache.Set(intent.Id.String(), cloneIntent(intent), cache.NoExpiration)
	return nil
}

func (r *IntentRepository) Update(ctx context.Context, intent *entity.Intent) error {
	r.cache.Set(intent.Id.String(), cloneIntent(intent), cache.NoExpiration)
	return nil
}

func (r *IntentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.cache.Delete(id.String())
	return nil
}

func (r *IntentRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Intent, error) {
	intents, err := r.FindAll(ctx, specs...)
	if err != nil || len(intents) == 0 {
		return nil, err
	}
	return intents[0], nil
}

func (r *IntentRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Intent, error) {
	var out []*entity.Intent
	for _, item := range r.cache.Items() {
		i := item.Object.(*entity.Intent)
		if intentMatches(i, specs) {
			out = append(out, cloneIntent(i))
		}
	}

	less := func(a, b *entity.Intent) bool { return a.CreatedAt.Before(b.CreatedAt) }
	for _, s := range specs {
		if spec, ok := s.(specification.OrderBy); ok && spec.Field == "last_updated" {
			less = func(a, b *entity.Intent) bool { return a.LastUpdated.Before(b.LastUpdated) }
		}
	}
	sortAndPage(specs, &out, less)
	return out, nil
}

func (r *IntentRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	intents, err := r.FindAll(ctx, specs...)
	return int64(len(intents)), err
}

func intentMatches(i *entity.Intent, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if i.Id != spec.ID {
				return false
			}
		case specification.ByIDs:
			found := false
			for _, id := range spec.IDs {
				if i.Id == id {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.ByStatus:
			if i.Status != spec.Status {
				return false
			}
		case specification.ByStatusIn:
			found := false
			for _, st := range spec.Statuses {
				if i.Status == st {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.UpdatedBefore:
			if !i.LastUpdated.Before(spec.Cutoff) {
				return false
			}
		}
	}
	return true
}

var _ contract.IntentRepository = (*IntentRepository)(nil)
