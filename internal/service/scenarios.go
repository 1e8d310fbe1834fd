package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"landedcost/internal/apperr"
	"landedcost/internal/jobs"
	"landedcost/internal/models"
	"landedcost/internal/repository"
	"landedcost/internal/scenario"
)

// JobSubmitter is the scheduler entry point used by services that start jobs.
type JobSubmitter interface {
	Submit(ctx context.Context, req jobs.SubmitRequest) (*models.Job, error)
}

// ScenarioService manages saved scenarios and starts their analysis and comparison jobs.
type ScenarioService struct {
	Repo  repository.Repository
	Jobs  JobSubmitter
	NewID func() string
	Now   func() time.Time
}

func (s *ScenarioService) id() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *ScenarioService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type CreateScenarioInput struct {
	WorkspaceID   string                  `json:"workspace_id"`
	GroupID       string                  `json:"group_id"`
	TemplateID    string                  `json:"template_id"`
	Name          string                  `json:"name"`
	Description   string                  `json:"description"`
	Configuration *scenario.Configuration `json:"configuration"`
	ProductIDs    []string                `json:"product_ids"`
}

// CreateScenario stores a draft scenario. Without an explicit configuration the template's is used.
func (s *ScenarioService) CreateScenario(ctx context.Context, in CreateScenarioInput) (*models.EnhancedScenario, error) {
	in.WorkspaceID = strings.TrimSpace(in.WorkspaceID)
	in.Name = strings.TrimSpace(in.Name)
	if in.WorkspaceID == "" {
		return nil, apperr.Invalid("workspace_id", "workspace_id is required")
	}
	if in.Name == "" {
		return nil, apperr.Invalid("name", "name is required")
	}
	productIDs := cleanIDs(in.ProductIDs)
	if len(productIDs) == 0 {
		return nil, apperr.Invalid("product_ids", "at least one product id is required")
	}

	item := &models.EnhancedScenario{
		ID:          s.id(),
		WorkspaceID: in.WorkspaceID,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Status:      ScenarioStatusDraft,
	}
	var cfg scenario.Configuration
	switch {
	case in.Configuration != nil:
		cfg = *in.Configuration
	case strings.TrimSpace(in.TemplateID) != "":
		tpl, err := s.Repo.GetScenarioTemplate(ctx, strings.TrimSpace(in.TemplateID))
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			return nil, apperr.NotFound("scenario_template", in.TemplateID)
		}
		if err := json.Unmarshal(tpl.Configuration, &cfg); err != nil {
			return nil, errors.Wrap(err, "decode template configuration")
		}
	default:
		return nil, apperr.Invalid("configuration", "configuration or template_id is required")
	}
	if v := strings.TrimSpace(in.TemplateID); v != "" {
		item.TemplateID = &v
	}
	if v := strings.TrimSpace(in.GroupID); v != "" {
		group, err := s.Repo.GetScenarioGroup(ctx, v)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return nil, apperr.NotFound("scenario_group", v)
		}
		item.GroupID = &v
	}

	rawCfg, err := encodeConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	rawIDs, _ := json.Marshal(productIDs)
	item.Configuration = rawCfg
	item.ProductIDs = datatypes.JSON(rawIDs)
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if err := s.Repo.CreateScenario(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

type AnalyzeInput struct {
	Priority                string `json:"priority"`
	GenerateRecommendations bool   `json:"generate_recommendations"`
}

// AnalyzeScenario submits a savings job over the scenario's products and configuration.
func (s *ScenarioService) AnalyzeScenario(ctx context.Context, id string, in AnalyzeInput) (*models.Job, error) {
	if s.Jobs == nil {
		return nil, errors.New("job scheduler unavailable")
	}
	sc, err := s.Repo.GetScenario(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, apperr.NotFound("scenario", id)
	}
	var cfg scenario.Configuration
	if err := json.Unmarshal(sc.Configuration, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode scenario configuration")
	}
	var productIDs []string
	if err := json.Unmarshal(sc.ProductIDs, &productIDs); err != nil {
		return nil, errors.Wrap(err, "decode scenario products")
	}
	params, err := json.Marshal(jobs.SavingsAnalysisParams{
		WorkspaceID:             sc.WorkspaceID,
		ScenarioID:              sc.ID,
		ProductIDs:              productIDs,
		Configuration:           cfg,
		GenerateRecommendations: in.GenerateRecommendations,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode job parameters")
	}
	// Marked before submitting: a fast job must not have its summary overwritten by this save.
	previous := sc.Status
	sc.Status = ScenarioStatusAnalyzing
	sc.UpdatedAt = s.now()
	if err := s.Repo.SaveScenario(ctx, sc); err != nil {
		return nil, err
	}
	job, err := s.Jobs.Submit(ctx, jobs.SubmitRequest{Type: jobs.TypeSavingsAnalysis, Priority: in.Priority, Parameters: params})
	if err != nil {
		sc.Status = previous
		_ = s.Repo.SaveScenario(ctx, sc)
		return nil, err
	}
	return job, nil
}

type CreateGroupInput struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *ScenarioService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.ScenarioGroup, error) {
	if strings.TrimSpace(in.WorkspaceID) == "" {
		return nil, apperr.Invalid("workspace_id", "workspace_id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Invalid("name", "name is required")
	}
	now := s.now()
	item := &models.ScenarioGroup{
		ID:          s.id(),
		WorkspaceID: strings.TrimSpace(in.WorkspaceID),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.CreateScenarioGroup(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

type CreateTemplateInput struct {
	WorkspaceID   string                 `json:"workspace_id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Configuration scenario.Configuration `json:"configuration"`
}

func (s *ScenarioService) CreateTemplate(ctx context.Context, in CreateTemplateInput) (*models.ScenarioTemplate, error) {
	if strings.TrimSpace(in.WorkspaceID) == "" {
		return nil, apperr.Invalid("workspace_id", "workspace_id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Invalid("name", "name is required")
	}
	raw, err := encodeConfiguration(in.Configuration)
	if err != nil {
		return nil, err
	}
	now := s.now()
	item := &models.ScenarioTemplate{
		ID:            s.id(),
		WorkspaceID:   strings.TrimSpace(in.WorkspaceID),
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		Configuration: raw,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.CreateScenarioTemplate(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

type CreateComparisonInput struct {
	WorkspaceID string   `json:"workspace_id"`
	Name        string   `json:"name"`
	ScenarioIDs []string `json:"scenario_ids"`
	Priority    string   `json:"priority"`
}

// CreateComparison stores a pending comparison and submits the job that fills in its result and job id.
func (s *ScenarioService) CreateComparison(ctx context.Context, in CreateComparisonInput) (*models.ScenarioComparison, *models.Job, error) {
	if s.Jobs == nil {
		return nil, nil, errors.New("job scheduler unavailable")
	}
	in.WorkspaceID = strings.TrimSpace(in.WorkspaceID)
	if in.WorkspaceID == "" {
		return nil, nil, apperr.Invalid("workspace_id", "workspace_id is required")
	}
	ids := cleanIDs(in.ScenarioIDs)
	if len(ids) == 0 {
		return nil, nil, apperr.Invalid("scenario_ids", "at least one scenario id is required")
	}
	rawIDs, _ := json.Marshal(ids)
	now := s.now()
	item := &models.ScenarioComparison{
		ID:          s.id(),
		WorkspaceID: in.WorkspaceID,
		Name:        strings.TrimSpace(in.Name),
		ScenarioIDs: datatypes.JSON(rawIDs),
		Status:      ComparisonStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.CreateScenarioComparison(ctx, item); err != nil {
		return nil, nil, err
	}
	params, err := json.Marshal(jobs.ScenarioComparisonParams{
		WorkspaceID:  in.WorkspaceID,
		ComparisonID: item.ID,
		ScenarioIDs:  ids,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "encode job parameters")
	}
	job, err := s.Jobs.Submit(ctx, jobs.SubmitRequest{Type: jobs.TypeScenarioComparison, Priority: in.Priority, Parameters: params})
	if err != nil {
		return nil, nil, err
	}
	return item, job, nil
}

func encodeConfiguration(cfg scenario.Configuration) (datatypes.JSON, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "encode configuration")
	}
	return datatypes.JSON(raw), nil
}

func cleanIDs(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, item := range items {
		val := strings.TrimSpace(item)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
