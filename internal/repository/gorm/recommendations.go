package gormrepository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"landedcost/internal/models"
	"landedcost/internal/repository"
)

func (s *Store) InsertRecommendations(ctx context.Context, items []models.OptimizationRecommendation) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(items, 200).Error
}

func (s *Store) GetRecommendation(ctx context.Context, id string) (*models.OptimizationRecommendation, error) {
	if s == nil || s.db == nil || id == "" {
		return nil, nil
	}
	return first[models.OptimizationRecommendation](s.db.WithContext(ctx).Model(&models.OptimizationRecommendation{}).Where("id = ?", id))
}

func (s *Store) ListRecommendations(ctx context.Context, params repository.ListRecommendationsParams) ([]models.OptimizationRecommendation, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := recommendationsQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.OptimizationRecommendation
	if err := query.Limit(normalizeLimit(params.Limit, 200)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountRecommendations(ctx context.Context, params repository.ListRecommendationsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := recommendationsQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func recommendationsQuery(db *gorm.DB, params repository.ListRecommendationsParams) *gorm.DB {
	query := db.Model(&models.OptimizationRecommendation{})
	if v, ok := strFilter(params.WorkspaceID); ok {
		query = query.Where("workspace_id = ?", v)
	}
	if v, ok := strFilter(params.ScenarioID); ok {
		query = query.Where("scenario_id = ?", v)
	}
	if v, ok := strFilter(params.ProductID); ok {
		query = query.Where("product_id = ?", v)
	}
	if v, ok := strFilter(params.Type); ok {
		query = query.Where("recommendation_type = ?", v)
	}
	if v, ok := strFilter(params.Status); ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := strFilter(params.Priority); ok {
		query = query.Where("priority = ?", v)
	}
	if !params.IncludeArchived {
		query = query.Where("archived_at IS NULL")
	}
	return query
}

func (s *Store) UpdateRecommendationStatus(ctx context.Context, id string, from []string, to string, at time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	from = cleanStrings(from)
	if id == "" || len(from) == 0 {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.OptimizationRecommendation{}).
		Where("id = ? AND status IN ? AND archived_at IS NULL", id, from).
		Updates(map[string]any{"status": to, "status_changed_at": at, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ArchiveRecommendations(ctx context.Context, statuses []string, cutoff time.Time, now time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	statuses = cleanStrings(statuses)
	if len(statuses) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.OptimizationRecommendation{}).
		Where("archived_at IS NULL AND status IN ? AND COALESCE(status_changed_at, created_at) < ?", statuses, cutoff).
		Updates(map[string]any{"archived_at": now, "updated_at": now})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
