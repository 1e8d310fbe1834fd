package memdbrepository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"landedcost/internal/models"
	"landedcost/internal/repository"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func TestTransitionJobIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.CreateJob(ctx, &models.Job{ID: "j1", Type: "savings_analysis", Status: "pending", Priority: "medium"}))

	progress := 0
	job, ok, err := s.TransitionJob(ctx, "j1", []string{"pending"}, "running", repository.JobUpdate{Progress: &progress})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "running", job.Status)

	// a second claim loses
	_, ok, err = s.TransitionJob(ctx, "j1", []string{"pending"}, "running", repository.JobUpdate{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.TransitionJob(ctx, "missing", []string{"pending"}, "running", repository.JobUpdate{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateJobProgressNeverDecreases(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.CreateJob(ctx, &models.Job{ID: "j1", Status: "running", Priority: "low"}))

	require.NoError(t, s.UpdateJobProgress(ctx, "j1", 40, []byte(`{"done":2}`)))
	require.NoError(t, s.UpdateJobProgress(ctx, "j1", 10, nil))

	job, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, 40, job.Progress)
	assert.JSONEq(t, `{"done":2}`, string(job.Metadata))
}

func TestUpdateJobProgressIgnoresJobsNotRunning(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.CreateJob(ctx, &models.Job{ID: "j1", Status: "paused", Priority: "low", Progress: 20}))
	require.NoError(t, s.UpdateJobProgress(ctx, "j1", 90, nil))

	job, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, 20, job.Progress)
}

func TestStoredJobsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	item := &models.Job{ID: "j1", Status: "pending", Priority: "low"}
	require.NoError(t, s.CreateJob(ctx, item))
	item.Status = "running"

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
	got.Status = "failed"

	again, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "pending", again.Status)
}

func TestListJobsFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, status := range []string{"pending", "running", "pending", "completed"} {
		require.NoError(t, s.CreateJob(ctx, &models.Job{
			ID:        string(rune('a' + i)),
			Status:    status,
			Priority:  "medium",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	asc := true
	items, err := s.ListJobs(ctx, repository.ListJobsParams{Statuses: []string{"pending"}, Asc: &asc})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "c", items[1].ID)

	total, err := s.CountJobs(ctx, repository.ListJobsParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)

	items, err = s.ListJobs(ctx, repository.ListJobsParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "c", items[0].ID)
}

func TestUpdateJobPriorityOnlyWhilePending(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.CreateJob(ctx, &models.Job{ID: "p", Status: "pending", Priority: "low"}))
	require.NoError(t, s.CreateJob(ctx, &models.Job{ID: "r", Status: "running", Priority: "low"}))

	ok, err := s.UpdateJobPriority(ctx, "p", "medium", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.UpdateJobPriority(ctx, "r", "medium", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecommendationStatusAndArchive(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertRecommendations(ctx, []models.OptimizationRecommendation{
		{ID: "r1", WorkspaceID: "w", Status: "pending", Priority: "high", RecommendationType: "shipping", CreatedAt: old, ImpactAnalysis: datatypes.JSON(`{}`)},
		{ID: "r2", WorkspaceID: "w", Status: "pending", Priority: "medium", RecommendationType: "origin", CreatedAt: old},
	}))

	changed := old.Add(time.Hour)
	ok, err := s.UpdateRecommendationStatus(ctx, "r1", []string{"pending"}, "rejected", changed)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.UpdateRecommendationStatus(ctx, "r1", []string{"pending"}, "accepted", changed)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.ArchiveRecommendations(ctx, []string{"rejected", "implemented"}, old.Add(2*time.Hour), old.Add(3*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	visible, err := s.ListRecommendations(ctx, repository.ListRecommendationsParams{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "r2", visible[0].ID)

	all, err := s.CountRecommendations(ctx, repository.ListRecommendationsParams{IncludeArchived: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all)

	// archived records are frozen
	ok, err = s.UpdateRecommendationStatus(ctx, "r1", []string{"rejected"}, "pending", changed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSystemSettingUpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.UpsertSystemSetting(ctx, &models.SystemSetting{Key: "feature.starvation_guard", Value: datatypes.JSON(`true`)}))
	require.NoError(t, s.UpsertSystemSetting(ctx, &models.SystemSetting{Key: "scheduler.max_concurrent", Value: datatypes.JSON(`2`)}))
	require.NoError(t, s.UpsertSystemSetting(ctx, &models.SystemSetting{Key: "feature.starvation_guard", Value: datatypes.JSON(`false`)}))

	item, err := s.GetSystemSettingByKey(ctx, "feature.starvation_guard")
	require.NoError(t, err)
	assert.EqualValues(t, 1, item.ID)
	assert.Equal(t, "false", string(item.Value))

	prefix := "feature."
	total, err := s.CountSystemSettings(ctx, repository.ListSystemSettingsParams{Prefix: &prefix})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestProductsUpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.UpsertProducts(ctx, []models.Product{
		{ID: "p1", WorkspaceID: "w", HSCode: "8471"},
		{ID: "p2", WorkspaceID: "w", HSCode: "6109"},
	}))
	require.NoError(t, s.UpsertProducts(ctx, []models.Product{{ID: "p1", WorkspaceID: "w", HSCode: "847130"}}))

	items, err := s.GetProductsByIDs(ctx, []string{"p1", "missing", "p1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "847130", items[0].HSCode)

	hs := "6109"
	total, err := s.CountProducts(ctx, repository.ListProductsParams{HSCode: &hs})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
