package gormrepository

import (
	"context"

	"gorm.io/gorm"

	"landedcost/internal/models"
	"landedcost/internal/repository"
)

func (s *Store) CreateScenario(ctx context.Context, item *models.EnhancedScenario) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetScenario(ctx context.Context, id string) (*models.EnhancedScenario, error) {
	if s == nil || s.db == nil || id == "" {
		return nil, nil
	}
	return first[models.EnhancedScenario](s.db.WithContext(ctx).Model(&models.EnhancedScenario{}).Where("id = ?", id))
}

func (s *Store) GetScenariosByIDs(ctx context.Context, ids []string) ([]models.EnhancedScenario, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	ids = cleanStrings(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.EnhancedScenario
	if err := s.db.WithContext(ctx).Model(&models.EnhancedScenario{}).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListScenarios(ctx context.Context, params repository.ListScenariosParams) ([]models.EnhancedScenario, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := scenariosQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.EnhancedScenario
	if err := query.Limit(normalizeLimit(params.Limit, 200)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountScenarios(ctx context.Context, params repository.ListScenariosParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := scenariosQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func scenariosQuery(db *gorm.DB, params repository.ListScenariosParams) *gorm.DB {
	query := db.Model(&models.EnhancedScenario{})
	if v, ok := strFilter(params.WorkspaceID); ok {
		query = query.Where("workspace_id = ?", v)
	}
	if v, ok := strFilter(params.GroupID); ok {
		query = query.Where("group_id = ?", v)
	}
	if v, ok := strFilter(params.Status); ok {
		query = query.Where("status = ?", v)
	}
	return query
}

func (s *Store) SaveScenario(ctx context.Context, item *models.EnhancedScenario) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) CreateScenarioGroup(ctx context.Context, item *models.ScenarioGroup) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetScenarioGroup(ctx context.Context, id string) (*models.ScenarioGroup, error) {
	if s == nil || s.db == nil || id == "" {
		return nil, nil
	}
	return first[models.ScenarioGroup](s.db.WithContext(ctx).Model(&models.ScenarioGroup{}).Where("id = ?", id))
}

func (s *Store) ListScenarioGroups(ctx context.Context, workspaceID string) ([]models.ScenarioGroup, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ScenarioGroup
	query := s.db.WithContext(ctx).Model(&models.ScenarioGroup{})
	if workspaceID != "" {
		query = query.Where("workspace_id = ?", workspaceID)
	}
	if err := query.Order("created_at asc").Limit(500).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateScenarioTemplate(ctx context.Context, item *models.ScenarioTemplate) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetScenarioTemplate(ctx context.Context, id string) (*models.ScenarioTemplate, error) {
	if s == nil || s.db == nil || id == "" {
		return nil, nil
	}
	return first[models.ScenarioTemplate](s.db.WithContext(ctx).Model(&models.ScenarioTemplate{}).Where("id = ?", id))
}

func (s *Store) ListScenarioTemplates(ctx context.Context, workspaceID string) ([]models.ScenarioTemplate, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ScenarioTemplate
	query := s.db.WithContext(ctx).Model(&models.ScenarioTemplate{})
	if workspaceID != "" {
		query = query.Where("workspace_id = ?", workspaceID)
	}
	if err := query.Order("created_at asc").Limit(500).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateScenarioComparison(ctx context.Context, item *models.ScenarioComparison) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetScenarioComparison(ctx context.Context, id string) (*models.ScenarioComparison, error) {
	if s == nil || s.db == nil || id == "" {
		return nil, nil
	}
	return first[models.ScenarioComparison](s.db.WithContext(ctx).Model(&models.ScenarioComparison{}).Where("id = ?", id))
}

func (s *Store) ListScenarioComparisons(ctx context.Context, workspaceID string) ([]models.ScenarioComparison, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ScenarioComparison
	query := s.db.WithContext(ctx).Model(&models.ScenarioComparison{})
	if workspaceID != "" {
		query = query.Where("workspace_id = ?", workspaceID)
	}
	if err := query.Order("created_at desc").Limit(500).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SaveScenarioComparison(ctx context.Context, item *models.ScenarioComparison) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}
