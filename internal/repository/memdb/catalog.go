package memdbrepository

import (
	"context"
	"time"

	"github.com/hashicorp/go-memdb"

	"landedcost/internal/models"
	"landedcost/internal/repository"
)

func (s *Store) UpsertProducts(_ context.Context, items []models.Product) error {
	if s == nil || len(items) == 0 {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		for _, item := range items {
			existing, err := get[models.Product](txn, productsTable, item.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				item.CreatedAt = existing.CreatedAt
			}
			s.stamp(&item.CreatedAt, &item.UpdatedAt)
			if err := insert(txn, productsTable, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) ([]models.Product, error) {
	if s == nil {
		return nil, nil
	}
	txn := s.read()
	var out []models.Product
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		item, err := get[models.Product](txn, productsTable, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Store) ListProducts(_ context.Context, params repository.ListProductsParams) ([]models.Product, error) {
	items, err := s.filterProducts(params)
	if err != nil {
		return nil, err
	}
	return page(items, params.Limit, params.Offset), nil
}

func (s *Store) CountProducts(_ context.Context, params repository.ListProductsParams) (int64, error) {
	items, err := s.filterProducts(params)
	return int64(len(items)), err
}

func (s *Store) filterProducts(params repository.ListProductsParams) ([]models.Product, error) {
	if s == nil {
		return nil, nil
	}
	all, err := scan[models.Product](s.read(), productsTable, idIndex)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if match(params.WorkspaceID, p.WorkspaceID) && match(params.HSCode, p.HSCode) {
			out = append(out, p)
		}
	}
	sortByTime(out, params.Asc,
		func(p models.Product) time.Time { return p.CreatedAt },
		func(p models.Product) string { return p.ID })
	return out, nil
}

func (s *Store) InsertRecommendations(_ context.Context, items []models.OptimizationRecommendation) error {
	if s == nil || len(items) == 0 {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		for _, item := range items {
			s.stamp(&item.CreatedAt, &item.UpdatedAt)
			if err := insert(txn, recommendationsTable, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetRecommendation(_ context.Context, id string) (*models.OptimizationRecommendation, error) {
	if s == nil {
		return nil, nil
	}
	return get[models.OptimizationRecommendation](s.read(), recommendationsTable, id)
}

func (s *Store) ListRecommendations(_ context.Context, params repository.ListRecommendationsParams) ([]models.OptimizationRecommendation, error) {
	items, err := s.filterRecommendations(params)
	if err != nil {
		return nil, err
	}
	return page(items, params.Limit, params.Offset), nil
}

func (s *Store) CountRecommendations(_ context.Context, params repository.ListRecommendationsParams) (int64, error) {
	items, err := s.filterRecommendations(params)
	return int64(len(items)), err
}

func (s *Store) filterRecommendations(params repository.ListRecommendationsParams) ([]models.OptimizationRecommendation, error) {
	if s == nil {
		return nil, nil
	}
	all, err := scan[models.OptimizationRecommendation](s.read(), recommendationsTable, idIndex)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if !params.IncludeArchived && r.ArchivedAt != nil {
			continue
		}
		if !match(params.WorkspaceID, r.WorkspaceID) || !match(params.Type, r.RecommendationType) ||
			!match(params.Status, r.Status) || !match(params.Priority, r.Priority) {
			continue
		}
		if !match(params.ScenarioID, deref(r.ScenarioID)) || !match(params.ProductID, deref(r.ProductID)) {
			continue
		}
		out = append(out, r)
	}
	sortByTime(out, params.Asc,
		func(r models.OptimizationRecommendation) time.Time { return r.CreatedAt },
		func(r models.OptimizationRecommendation) string { return r.ID })
	return out, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func (s *Store) UpdateRecommendationStatus(_ context.Context, id string, from []string, to string, at time.Time) (bool, error) {
	if s == nil {
		return false, nil
	}
	updated := false
	err := s.write(func(txn *memdb.Txn) error {
		r, err := get[models.OptimizationRecommendation](txn, recommendationsTable, id)
		if err != nil || r == nil || r.ArchivedAt != nil || !contains(from, r.Status) {
			return err
		}
		r.Status = to
		r.StatusChangedAt = &at
		r.UpdatedAt = at
		updated = true
		return insert(txn, recommendationsTable, *r)
	})
	return updated, err
}

func (s *Store) ArchiveRecommendations(_ context.Context, statuses []string, cutoff time.Time, now time.Time) (int64, error) {
	if s == nil || len(statuses) == 0 {
		return 0, nil
	}
	var archived int64
	err := s.write(func(txn *memdb.Txn) error {
		for _, status := range statuses {
			items, err := scan[models.OptimizationRecommendation](txn, recommendationsTable, statusIndex, status)
			if err != nil {
				return err
			}
			for _, r := range items {
				changed := r.CreatedAt
				if r.StatusChangedAt != nil {
					changed = *r.StatusChangedAt
				}
				if r.ArchivedAt != nil || !changed.Before(cutoff) {
					continue
				}
				stamp := now
				r.ArchivedAt = &stamp
				r.UpdatedAt = now
				if err := insert(txn, recommendationsTable, r); err != nil {
					return err
				}
				archived++
			}
		}
		return nil
	})
	return archived, err
}
