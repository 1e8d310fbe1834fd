package repository

import (
	"context"
	"time"

	"landedcost/internal/models"
)

type JobRepository interface {
	CreateJob(ctx context.Context, item *models.Job) error
	// GetJob returns nil, nil when the job does not exist.
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, params ListJobsParams) ([]models.Job, error)
	CountJobs(ctx context.Context, params ListJobsParams) (int64, error)
	// TransitionJob is a compare-and-swap on status: it applies update and moves the job to `to` only when
	// its current status is one of from. ok is false when the job is missing or in another status.
	TransitionJob(ctx context.Context, id string, from []string, to string, update JobUpdate) (job *models.Job, ok bool, err error)
	// UpdateJobProgress writes progress and metadata of a running job. Progress never moves backwards.
	UpdateJobProgress(ctx context.Context, id string, progress int, metadata []byte) error
	// UpdateJobPriority changes the priority of a pending job.
	UpdateJobPriority(ctx context.Context, id string, priority string, metadata []byte) (bool, error)
	SaveJobResult(ctx context.Context, item *models.JobResult) error
	GetJobResult(ctx context.Context, jobID string) (*models.JobResult, error)
}

type ProductRepository interface {
	UpsertProducts(ctx context.Context, items []models.Product) error
	GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]models.Product, error)
	CountProducts(ctx context.Context, params ListProductsParams) (int64, error)
}

type RecommendationRepository interface {
	InsertRecommendations(ctx context.Context, items []models.OptimizationRecommendation) error
	GetRecommendation(ctx context.Context, id string) (*models.OptimizationRecommendation, error)
	ListRecommendations(ctx context.Context, params ListRecommendationsParams) ([]models.OptimizationRecommendation, error)
	CountRecommendations(ctx context.Context, params ListRecommendationsParams) (int64, error)
	// UpdateRecommendationStatus is a compare-and-swap on status.
	UpdateRecommendationStatus(ctx context.Context, id string, from []string, to string, at time.Time) (bool, error)
	// ArchiveRecommendations stamps ArchivedAt on unarchived records in statuses last changed before cutoff.
	ArchiveRecommendations(ctx context.Context, statuses []string, cutoff time.Time, now time.Time) (int64, error)
}

type ScenarioRepository interface {
	CreateScenario(ctx context.Context, item *models.EnhancedScenario) error
	GetScenario(ctx context.Context, id string) (*models.EnhancedScenario, error)
	GetScenariosByIDs(ctx context.Context, ids []string) ([]models.EnhancedScenario, error)
	ListScenarios(ctx context.Context, params ListScenariosParams) ([]models.EnhancedScenario, error)
	CountScenarios(ctx context.Context, params ListScenariosParams) (int64, error)
	SaveScenario(ctx context.Context, item *models.EnhancedScenario) error

	CreateScenarioGroup(ctx context.Context, item *models.ScenarioGroup) error
	GetScenarioGroup(ctx context.Context, id string) (*models.ScenarioGroup, error)
	ListScenarioGroups(ctx context.Context, workspaceID string) ([]models.ScenarioGroup, error)

	CreateScenarioTemplate(ctx context.Context, item *models.ScenarioTemplate) error
	GetScenarioTemplate(ctx context.Context, id string) (*models.ScenarioTemplate, error)
	ListScenarioTemplates(ctx context.Context, workspaceID string) ([]models.ScenarioTemplate, error)

	CreateScenarioComparison(ctx context.Context, item *models.ScenarioComparison) error
	GetScenarioComparison(ctx context.Context, id string) (*models.ScenarioComparison, error)
	ListScenarioComparisons(ctx context.Context, workspaceID string) ([]models.ScenarioComparison, error)
	SaveScenarioComparison(ctx context.Context, item *models.ScenarioComparison) error
}

type SettingsRepository interface {
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
	CountSystemSettings(ctx context.Context, params ListSystemSettingsParams) (int64, error)
}

// Repository is implemented by the gorm store (postgres) and the memdb store (in-process).
type Repository interface {
	JobRepository
	ProductRepository
	RecommendationRepository
	ScenarioRepository
	SettingsRepository
}

// JobUpdate carries the fields a transition sets besides status. Nil fields are left alone.
type JobUpdate struct {
	Progress       *int
	Metadata       []byte
	RetryCount     *int
	Priority       *string
	Error          *string
	ErrorCode      *string
	NextRunAt      *time.Time
	ClearNextRunAt bool
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

type ListJobsParams struct {
	Limit       int
	Offset      int
	Type        *string
	Statuses    []string
	Priority    *string
	WorkspaceID *string
	OrderBy     string
	Asc         *bool
}

type ListProductsParams struct {
	Limit       int
	Offset      int
	WorkspaceID *string
	HSCode      *string
	OrderBy     string
	Asc         *bool
}

type ListRecommendationsParams struct {
	Limit           int
	Offset          int
	WorkspaceID     *string
	ScenarioID      *string
	ProductID       *string
	Type            *string
	Status          *string
	Priority        *string
	IncludeArchived bool
	OrderBy         string
	Asc             *bool
}

type ListScenariosParams struct {
	Limit       int
	Offset      int
	WorkspaceID *string
	GroupID     *string
	Status      *string
	OrderBy     string
	Asc         *bool
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}
