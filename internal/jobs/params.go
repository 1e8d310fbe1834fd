package jobs

import (
	"bytes"
	"encoding/json"
	"strings"

	"landedcost/internal/apperr"
	"landedcost/internal/scenario"
)

type SavingsAnalysisParams struct {
	WorkspaceID             string                 `json:"workspace_id"`
	ScenarioID              string                 `json:"scenario_id,omitempty"`
	ProductIDs              []string               `json:"product_ids"`
	Configuration           scenario.Configuration `json:"configuration"`
	GenerateRecommendations bool                   `json:"generate_recommendations"`
}

type ScenarioComparisonParams struct {
	WorkspaceID  string   `json:"workspace_id"`
	ComparisonID string   `json:"comparison_id,omitempty"`
	ScenarioIDs  []string `json:"scenario_ids"`
}

type RecommendationGenerationParams struct {
	WorkspaceID string `json:"workspace_id"`
	ScenarioID  string `json:"scenario_id,omitempty"`
	SourceJobID string `json:"source_job_id"`
}

// Parameters holds exactly one variant, selected by the job type.
type Parameters struct {
	SavingsAnalysis          *SavingsAnalysisParams
	ScenarioComparison       *ScenarioComparisonParams
	RecommendationGeneration *RecommendationGenerationParams
}

func strict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Invalid("parameters", "%v", err)
	}
	return nil
}

// DecodeParameters parses and validates the parameters of a job of type typ.
func DecodeParameters(typ string, raw []byte) (Parameters, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Parameters{}, apperr.Invalid("parameters", "parameters are required")
	}
	switch typ {
	case TypeSavingsAnalysis:
		var p SavingsAnalysisParams
		if err := strict(raw, &p); err != nil {
			return Parameters{}, err
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			return Parameters{}, apperr.Invalid("workspace_id", "workspace_id is required")
		}
		p.ProductIDs = dedupe(p.ProductIDs)
		if len(p.ProductIDs) == 0 {
			return Parameters{}, apperr.Invalid("product_ids", "at least one product id is required")
		}
		p.Configuration = p.Configuration.WithDefaults()
		if err := p.Configuration.Validate(); err != nil {
			return Parameters{}, err
		}
		return Parameters{SavingsAnalysis: &p}, nil
	case TypeScenarioComparison:
		var p ScenarioComparisonParams
		if err := strict(raw, &p); err != nil {
			return Parameters{}, err
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			return Parameters{}, apperr.Invalid("workspace_id", "workspace_id is required")
		}
		p.ScenarioIDs = dedupe(p.ScenarioIDs)
		if len(p.ScenarioIDs) == 0 {
			return Parameters{}, apperr.Invalid("scenario_ids", "at least one scenario id is required")
		}
		return Parameters{ScenarioComparison: &p}, nil
	case TypeRecommendationGeneration:
		var p RecommendationGenerationParams
		if err := strict(raw, &p); err != nil {
			return Parameters{}, err
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			return Parameters{}, apperr.Invalid("workspace_id", "workspace_id is required")
		}
		if strings.TrimSpace(p.SourceJobID) == "" {
			return Parameters{}, apperr.Invalid("source_job_id", "source_job_id is required")
		}
		return Parameters{RecommendationGeneration: &p}, nil
	default:
		return Parameters{}, apperr.Invalid("type", "unknown job type %q", typ)
	}
}

// Encode returns the JSON of the set variant.
func (p Parameters) Encode() ([]byte, error) {
	switch {
	case p.SavingsAnalysis != nil:
		return json.Marshal(p.SavingsAnalysis)
	case p.ScenarioComparison != nil:
		return json.Marshal(p.ScenarioComparison)
	case p.RecommendationGeneration != nil:
		return json.Marshal(p.RecommendationGeneration)
	default:
		return nil, apperr.Invalid("parameters", "no parameters set")
	}
}

func (p Parameters) WorkspaceID() string {
	switch {
	case p.SavingsAnalysis != nil:
		return p.SavingsAnalysis.WorkspaceID
	case p.ScenarioComparison != nil:
		return p.ScenarioComparison.WorkspaceID
	case p.RecommendationGeneration != nil:
		return p.RecommendationGeneration.WorkspaceID
	default:
		return ""
	}
}

func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, raw := range items {
		v := strings.TrimSpace(raw)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
