package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"landedcost/internal/models"
	"landedcost/internal/repository"
)

func (s *Store) CreateJob(ctx context.Context, item *models.Job) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	return first[models.Job](s.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id))
}

func (s *Store) ListJobs(ctx context.Context, params repository.ListJobsParams) ([]models.Job, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := jobsQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.Job
	if err := query.Limit(normalizeLimit(params.Limit, 200)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountJobs(ctx context.Context, params repository.ListJobsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := jobsQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func jobsQuery(db *gorm.DB, params repository.ListJobsParams) *gorm.DB {
	query := db.Model(&models.Job{})
	if v, ok := strFilter(params.Type); ok {
		query = query.Where("type = ?", v)
	}
	if statuses := cleanStrings(params.Statuses); len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if v, ok := strFilter(params.Priority); ok {
		query = query.Where("priority = ?", v)
	}
	if v, ok := strFilter(params.WorkspaceID); ok {
		query = query.Where("workspace_id = ?", v)
	}
	return query
}

func (s *Store) TransitionJob(ctx context.Context, id string, from []string, to string, update repository.JobUpdate) (*models.Job, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, nil
	}
	from = cleanStrings(from)
	if strings.TrimSpace(id) == "" || len(from) == 0 || strings.TrimSpace(to) == "" {
		return nil, false, nil
	}
	updates := jobUpdates(update)
	updates["status"] = to
	updates["updated_at"] = time.Now().UTC()

	var out *models.Job
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Job{}).
			Where("id = ? AND status IN ?", id, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		job, err := first[models.Job](tx.Model(&models.Job{}).Where("id = ?", id))
		if err != nil {
			return err
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func jobUpdates(u repository.JobUpdate) map[string]any {
	updates := map[string]any{}
	if u.Progress != nil {
		updates["progress"] = *u.Progress
	}
	if u.Metadata != nil {
		updates["metadata"] = u.Metadata
	}
	if u.RetryCount != nil {
		updates["retry_count"] = *u.RetryCount
	}
	if u.Priority != nil {
		updates["priority"] = *u.Priority
	}
	if u.Error != nil {
		updates["error"] = *u.Error
	}
	if u.ErrorCode != nil {
		updates["error_code"] = *u.ErrorCode
	}
	if u.NextRunAt != nil {
		updates["next_run_at"] = *u.NextRunAt
	}
	if u.ClearNextRunAt {
		updates["next_run_at"] = nil
	}
	if u.StartedAt != nil {
		updates["started_at"] = *u.StartedAt
	}
	if u.CompletedAt != nil {
		updates["completed_at"] = *u.CompletedAt
	}
	return updates
}

func (s *Store) UpdateJobProgress(ctx context.Context, id string, progress int, metadata []byte) error {
	if s == nil || s.db == nil {
		return nil
	}
	updates := map[string]any{
		"progress":   gorm.Expr("GREATEST(progress, ?)", progress),
		"updated_at": time.Now().UTC(),
	}
	if metadata != nil {
		updates["metadata"] = metadata
	}
	return s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", id, "running").
		Updates(updates).Error
}

func (s *Store) UpdateJobPriority(ctx context.Context, id string, priority string, metadata []byte) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	updates := map[string]any{"priority": priority, "updated_at": time.Now().UTC()}
	if metadata != nil {
		updates["metadata"] = metadata
	}
	res := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", id, "pending").
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) SaveJobResult(ctx context.Context, item *models.JobResult) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "payload"}),
	}).Create(item).Error
}

func (s *Store) GetJobResult(ctx context.Context, jobID string) (*models.JobResult, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	return first[models.JobResult](s.db.WithContext(ctx).Model(&models.JobResult{}).Where("job_id = ?", jobID))
}
