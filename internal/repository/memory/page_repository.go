package memory

import (
	"context"
	"encoding/json"
	"sort"

	"ai-intent-be/internal/entity"
	"ai-intent-be/internal/repository/contract"
	"ai-intent-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// PageRepository is an in-memory contract.PageRepository backed by go-cache.
// It interprets the query specifications the services actually use; it exists
// for tests and for running the engine without Postgres.
type PageRepository struct {
	cache *cache.Cache
}

func NewPageRepository() *PageRepository {
	return &PageRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func clonePage(p *entity.Page) *entity.Page {
	data, _ := json.Marshal(p)
	var out entity.Page
	_ = json.Unmarshal(data, &out)
	return &out
}

func (r *PageRepository) Create(ctx context.Context, page *entity.Page) error {
	if page.Id == uuid.Nil {
		page.Id = uuid.New()
	}
	r.cache.Set(page.Id.String(), clonePage(page), cache.NoExpiration)
	return nil
}

func (r *PageRepository) Update(ctx context.Context, page *entity.Page) error {
	r.cache.Set(page.Id.String(), clonePage(page), cache.NoExpiration)
	return nil
}

func (r *PageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.cache.Delete(id.String())
	return nil
}

func (r *PageRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Page, error) {
	pages, err := r.FindAll(ctx, specs...)
	if err != nil || len(pages) == 0 {
		return nil, err
	}
	return pages[0], nil
}

func (r *PageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Page, error) {
	var out []*entity.Page
	for _, item := range r.cache.Items() {
		p := item.Object.(*entity.Page)
		if pageMatches(p, specs) {
			out = append(out, clonePage(p))
		}
	}
	sortAndPage(specs, &out, func(a, b *entity.Page) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

func (r *PageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	pages, err := r.FindAll(ctx, specs...)
	return int64(len(pages)), err
}

func pageMatches(p *entity.Page, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if p.Id != spec.ID {
				return false
			}
		case specification.ByIDs:
			found := false
			for _, id := range spec.IDs {
				if p.Id == id {
					found = true
				}
			}
			if !found {
				return false
			}
		case specification.ByURL:
			if p.Url != spec.URL {
				return false
			}
		case specification.VisitedAfter:
			if !p.VisitedAt.After(spec.Cutoff) {
				return false
			}
		case specification.ByPrimaryIntent:
			if p.Primary == nil || p.Primary.IntentId != spec.IntentID {
				return false
			}
		case specification.Unassigned:
			if p.Primary != nil {
				return false
			}
		}
	}
	return true
}

// sortAndPage applies OrderBy/Pagination specs to an already-filtered slice.
// Field-aware ordering is left to the callers' default comparator; memory
// repositories only distinguish ascending vs descending.
func sortAndPage[T any](specs []specification.Specification, items *[]T, less func(a, b T) bool) {
	desc := false
	limit := -1
	offset := 0
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.OrderBy:
			desc = spec.Desc
		case specification.Pagination:
			limit = spec.Limit
			offset = spec.Offset
		}
	}
	sort.SliceStable(*items, func(i, j int) bool {
		if desc {
			return less((*items)[j], (*items)[i])
		}
		return less((*items)[i], (*items)[j])
	})
	if offset > 0 {
		if offset >= len(*items) {
			*items = nil
		} else {
			*items = (*items)[offset:]
		}
	}
	if limit >= 0 && len(*items) > limit {
		*items = (*items)[:limit]
	}
}

var _ contract.PageRepository = (*PageRepository)(nil)
