package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"landedcost/internal/apperr"
	"landedcost/internal/comparison"
	"landedcost/internal/jobs"
	"landedcost/internal/models"
	"landedcost/internal/recommendation"
	"landedcost/internal/repository"
	"landedcost/internal/savings"
)

const (
	ScenarioStatusDraft     = "draft"
	ScenarioStatusAnalyzing = "analyzing"
	ScenarioStatusAnalyzed  = "analyzed"

	ComparisonStatusPending   = "pending"
	ComparisonStatusCompleted = "completed"
)

// Tasks are the job handlers behind the three job types.
type Tasks struct {
	Repo       repository.Repository
	Engine     *savings.Engine
	Generator  recommendation.Generator
	Thresholds comparison.Thresholds
	Logger     *zap.Logger
	Now        func() time.Time
}

func (t *Tasks) Register(s *jobs.Scheduler) {
	s.Register(jobs.TypeSavingsAnalysis, t.SavingsAnalysis)
	s.Register(jobs.TypeScenarioComparison, t.ScenarioComparison)
	s.Register(jobs.TypeRecommendationGeneration, t.RecommendationGeneration)
}

func (t *Tasks) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now().UTC()
}

func (t *Tasks) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

// savingsCheckpoint keeps finished products so a resumed job skips them.
type savingsCheckpoint struct {
	Outcomes map[string]savings.Outcome `json:"outcomes"`
}

func (t *Tasks) SavingsAnalysis(ctx context.Context, exec *jobs.Execution) (any, error) {
	if t.Engine == nil {
		return nil, errors.New("savings engine unavailable")
	}
	var p jobs.SavingsAnalysisParams
	if err := exec.Decode(&p); err != nil {
		return nil, err
	}

	var cp savingsCheckpoint
	resumed, err := exec.Checkpoint(&cp)
	if err != nil {
		return nil, err
	}
	if cp.Outcomes == nil {
		cp.Outcomes = map[string]savings.Outcome{}
	}
	if resumed {
		t.logger().Info("savings analysis resumed",
			zap.String("job_id", exec.Job.ID),
			zap.Int("completed", len(cp.Outcomes)),
			zap.Int("total", len(p.ProductIDs)),
		)
	}

	batch, err := t.Engine.AnalyzeBatchSavings(ctx, p.ProductIDs, p.Configuration, savings.RunOptions{
		Completed: cp.Outcomes,
		After: func(_ int, o savings.Outcome) error {
			cp.Outcomes[o.ProductID] = o
			progress := jobs.Progress{Total: len(p.ProductIDs), CurrentItem: o.ProductID}
			for _, prev := range cp.Outcomes {
				if prev.Failure != nil {
					progress.Failed++
				} else {
					progress.Completed++
				}
			}
			return exec.Report(ctx, progress, cp)
		},
	})
	if err != nil {
		return nil, err
	}

	if p.GenerateRecommendations {
		if _, err := t.generate(ctx, recommendation.Source{
			WorkspaceID: p.WorkspaceID,
			ScenarioID:  p.ScenarioID,
			JobID:       exec.Job.ID,
		}, batch); err != nil {
			return nil, err
		}
	}
	if p.ScenarioID != "" {
		if err := t.refreshScenario(ctx, p.ScenarioID, exec.Job.ID, batch); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// refreshScenario stores the summary of the latest analysis on the scenario.
func (t *Tasks) refreshScenario(ctx context.Context, id, jobID string, batch *savings.BatchSavingsAnalysis) error {
	sc, err := t.Repo.GetScenario(ctx, id)
	if err != nil {
		return errors.Wrap(err, "load scenario")
	}
	if sc == nil {
		t.logger().Warn("analyzed scenario no longer exists", zap.String("scenario_id", id), zap.String("job_id", jobID))
		return nil
	}
	opt := comparison.FromBatch(sc.ID, sc.Name, batch)
	now := t.now()
	sc.PotentialSaving = opt.PotentialSaving
	sc.SavingsPercentage = opt.SavingsPercentage
	sc.Confidence = opt.Confidence
	sc.OverallRisk = string(opt.Risk)
	sc.AnalyzedAt = &now
	sc.LastJobID = &jobID
	sc.Status = ScenarioStatusAnalyzed
	sc.UpdatedAt = now
	return errors.Wrap(t.Repo.SaveScenario(ctx, sc), "save scenario")
}

func (t *Tasks) generate(ctx context.Context, src recommendation.Source, batch *savings.BatchSavingsAnalysis) ([]string, error) {
	recs, err := t.Generator.Generate(src, batch.Results)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []string{}, nil
	}
	if err := t.Repo.InsertRecommendations(ctx, recs); err != nil {
		return nil, errors.Wrap(err, "insert recommendations")
	}
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	t.logger().Info("recommendations generated",
		zap.String("workspace_id", src.WorkspaceID),
		zap.String("job_id", src.JobID),
		zap.Int("count", len(ids)),
	)
	return ids, nil
}

// analysisOf loads the savings result a completed job stored.
func (t *Tasks) analysisOf(ctx context.Context, jobID string) (*savings.BatchSavingsAnalysis, error) {
	res, err := t.Repo.GetJobResult(ctx, jobID)
	if err != nil {
		return nil, errors.Wrap(err, "load job result")
	}
	if res == nil {
		return nil, apperr.NotFound("job_result", jobID)
	}
	if res.Type != jobs.TypeSavingsAnalysis {
		return nil, apperr.Invalid("source_job_id", "job %s is a %s job", jobID, res.Type)
	}
	var batch savings.BatchSavingsAnalysis
	if err := json.Unmarshal(res.Payload, &batch); err != nil {
		return nil, errors.Wrap(err, "decode savings result")
	}
	return &batch, nil
}

func (t *Tasks) ScenarioComparison(ctx context.Context, exec *jobs.Execution) (any, error) {
	var p jobs.ScenarioComparisonParams
	if err := exec.Decode(&p); err != nil {
		return nil, err
	}
	found, err := t.Repo.GetScenariosByIDs(ctx, p.ScenarioIDs)
	if err != nil {
		return nil, errors.Wrap(err, "load scenarios")
	}
	byID := make(map[string]models.EnhancedScenario, len(found))
	for _, sc := range found {
		byID[sc.ID] = sc
	}

	options := make([]comparison.Option, 0, len(p.ScenarioIDs))
	for i, id := range p.ScenarioIDs {
		sc, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound("scenario", id)
		}
		if sc.LastJobID == nil {
			return nil, apperr.Invalid("scenario_ids", "scenario %s has not been analyzed", id)
		}
		batch, err := t.analysisOf(ctx, *sc.LastJobID)
		if err != nil {
			return nil, err
		}
		options = append(options, comparison.FromBatch(sc.ID, sc.Name, batch))
		if err := exec.Report(ctx, jobs.Progress{Total: len(p.ScenarioIDs), Completed: i + 1, CurrentItem: id}, nil); err != nil {
			return nil, err
		}
	}

	result, err := comparison.Compare(options, t.Thresholds)
	if err != nil {
		return nil, err
	}
	if p.ComparisonID != "" {
		if err := t.storeComparison(ctx, p.ComparisonID, exec.Job.ID, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (t *Tasks) storeComparison(ctx context.Context, id, jobID string, result *comparison.MultiScenarioComparison) error {
	item, err := t.Repo.GetScenarioComparison(ctx, id)
	if err != nil {
		return errors.Wrap(err, "load comparison")
	}
	if item == nil {
		return apperr.NotFound("comparison", id)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "encode comparison")
	}
	item.Result = datatypes.JSON(raw)
	item.Status = ComparisonStatusCompleted
	item.JobID = &jobID
	item.UpdatedAt = t.now()
	return errors.Wrap(t.Repo.SaveScenarioComparison(ctx, item), "save comparison")
}

type GenerationResult struct {
	SourceJobID       string   `json:"source_job_id"`
	Generated         int      `json:"generated"`
	RecommendationIDs []string `json:"recommendation_ids"`
}

func (t *Tasks) RecommendationGeneration(ctx context.Context, exec *jobs.Execution) (any, error) {
	var p jobs.RecommendationGenerationParams
	if err := exec.Decode(&p); err != nil {
		return nil, err
	}
	batch, err := t.analysisOf(ctx, p.SourceJobID)
	if err != nil {
		return nil, err
	}
	ids, err := t.generate(ctx, recommendation.Source{
		WorkspaceID: p.WorkspaceID,
		ScenarioID:  p.ScenarioID,
		JobID:       p.SourceJobID,
	}, batch)
	if err != nil {
		return nil, err
	}
	return GenerationResult{SourceJobID: p.SourceJobID, Generated: len(ids), RecommendationIDs: ids}, nil
}
