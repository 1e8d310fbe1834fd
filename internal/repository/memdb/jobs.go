package memdbrepository

import (
	"context"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/pkg/errors"

	"landedcost/internal/models"
	"landedcost/internal/repository"
)

func (s *Store) CreateJob(_ context.Context, item *models.Job) error {
	if s == nil || item == nil {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		existing, err := get[models.Job](txn, jobsTable, item.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errors.Errorf("job %s already exists", item.ID)
		}
		s.stamp(&item.CreatedAt, &item.UpdatedAt)
		return insert(txn, jobsTable, *item)
	})
}

func (s *Store) GetJob(_ context.Context, id string) (*models.Job, error) {
	if s == nil {
		return nil, nil
	}
	return get[models.Job](s.read(), jobsTable, id)
}

func (s *Store) ListJobs(_ context.Context, params repository.ListJobsParams) ([]models.Job, error) {
	items, err := s.filterJobs(params)
	if err != nil {
		return nil, err
	}
	return page(items, params.Limit, params.Offset), nil
}

func (s *Store) CountJobs(_ context.Context, params repository.ListJobsParams) (int64, error) {
	items, err := s.filterJobs(params)
	return int64(len(items)), err
}

func (s *Store) filterJobs(params repository.ListJobsParams) ([]models.Job, error) {
	if s == nil {
		return nil, nil
	}
	all, err := scan[models.Job](s.read(), jobsTable, idIndex)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, job := range all {
		if !match(params.Type, job.Type) || !match(params.Priority, job.Priority) || !match(params.WorkspaceID, job.WorkspaceID) {
			continue
		}
		if len(params.Statuses) > 0 && !contains(params.Statuses, job.Status) {
			continue
		}
		out = append(out, job)
	}
	sortByTime(out, params.Asc,
		func(j models.Job) time.Time { return j.CreatedAt },
		func(j models.Job) string { return j.ID })
	return out, nil
}

func (s *Store) TransitionJob(_ context.Context, id string, from []string, to string, update repository.JobUpdate) (*models.Job, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var out *models.Job
	err := s.write(func(txn *memdb.Txn) error {
		job, err := get[models.Job](txn, jobsTable, id)
		if err != nil || job == nil {
			return err
		}
		if !contains(from, job.Status) {
			return nil
		}
		applyJobUpdate(job, update)
		job.Status = to
		job.UpdatedAt = s.now()
		if err := insert(txn, jobsTable, *job); err != nil {
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

func applyJobUpdate(job *models.Job, u repository.JobUpdate) {
	if u.Progress != nil {
		job.Progress = *u.Progress
	}
	if u.Metadata != nil {
		job.Metadata = u.Metadata
	}
	if u.RetryCount != nil {
		job.RetryCount = *u.RetryCount
	}
	if u.Priority != nil {
		job.Priority = *u.Priority
	}
	if u.Error != nil {
		job.Error = *u.Error
	}
	if u.ErrorCode != nil {
		job.ErrorCode = *u.ErrorCode
	}
	if u.NextRunAt != nil {
		t := *u.NextRunAt
		job.NextRunAt = &t
	}
	if u.ClearNextRunAt {
		job.NextRunAt = nil
	}
	if u.StartedAt != nil {
		t := *u.StartedAt
		job.StartedAt = &t
	}
	if u.CompletedAt != nil {
		t := *u.CompletedAt
		job.CompletedAt = &t
	}
}

func (s *Store) UpdateJobProgress(_ context.Context, id string, progress int, metadata []byte) error {
	if s == nil {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		job, err := get[models.Job](txn, jobsTable, id)
		if err != nil || job == nil || job.Status != "running" {
			return err
		}
		if progress > job.Progress {
			job.Progress = progress
		}
		if metadata != nil {
			job.Metadata = metadata
		}
		job.UpdatedAt = s.now()
		return insert(txn, jobsTable, *job)
	})
}

func (s *Store) UpdateJobPriority(_ context.Context, id string, priority string, metadata []byte) (bool, error) {
	if s == nil {
		return false, nil
	}
	updated := false
	err := s.write(func(txn *memdb.Txn) error {
		job, err := get[models.Job](txn, jobsTable, id)
		if err != nil || job == nil || job.Status != "pending" {
			return err
		}
		job.Priority = priority
		if metadata != nil {
			job.Metadata = metadata
		}
		job.UpdatedAt = s.now()
		updated = true
		return insert(txn, jobsTable, *job)
	})
	return updated, err
}

func (s *Store) SaveJobResult(_ context.Context, item *models.JobResult) error {
	if s == nil || item == nil {
		return nil
	}
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&item.CreatedAt, nil)
		return insert(txn, jobResultsTable, *item)
	})
}

func (s *Store) GetJobResult(_ context.Context, jobID string) (*models.JobResult, error) {
	if s == nil {
		return nil, nil
	}
	return get[models.JobResult](s.read(), jobResultsTable, jobID)
}
