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

// NudgeRepository is the in-memory contract.NudgeRepository.
type NudgeRepository struct {
	cache *cache.Cache
}

func NewNudgeRepository() *NudgeRepository {
	return &NudgeRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func cloneNudge(n *entity.Nudge) *entity.Nudge {
	data, _ := json.Marshal(n)
	var out entity.Nudge
	_ = json.Unmarshal(data, &out)
	return &out
}

func (r *NudgeRepository) Create(ctx context.Context, nudge *entity.Nudge) error {
	if nudge.Id == uuid.Nil {
		nudge.Id = uuid.New()
	}
	r.cache.Set(nudge.Id.String(), cloneNudge(nudge), cache.NoExpiration)
	return nil
}

func (r *NudgeRepository) Update(ctx context.Context, nudge *entity.Nudge) error {
	r.cache.Set(nudge.Id.String(), cloneNudge(nudge), cache.NoExpiration)
	return nil
}

func (r *NudgeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.cache.Delete(id.String())
	return nil
}

func (r *NudgeRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Nudge, error) {
	nudges, err := r.FindAll(ctx, specs...)
	if err != nil || len(nudges) == 0 {
		return nil, err
	}
	return nudges[0], nil
}

func (r *NudgeRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Nudge, error) {
	var out []*entity.Nudge
	for _, item := range r.cache.Items() {
		n := item.Object.(*entity.Nudge)
		if nudgeMatches(n, specs) {
			out = append(out, cloneNudge(n))
		}
	}
	sortAndPage(specs, &out, func(a, b *entity.Nudge) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

func (r *NudgeRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	nudges, err := r.FindAll(ctx, specs...)
	return int64(len(nudges)), err
}

func nudgeMatches(n *entity.Nudge, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if n.Id != spec.ID {
				return false
			}
		case specification.NudgeByIntentAndType:
			if n.IntentId != spec.IntentID || n.Type != spec.Type {
				return false
			}
		case specification.NudgeByStatus:
			if n.Status != spec.Status {
				return false
			}
		case specification.NudgeByStatusIn:
			found := false
			for _, st := range spec.Statuses {
				if n.Status == st {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.NudgeCreatedAfter:
			if !n.CreatedAt.After(spec.Cutoff) {
				return false
			}
		}
	}
	return true
}

var _ contract.NudgeRepository = (*NudgeRepository)(nil)
