// Package recommendation turns analyzed scenario results into persisted optimization recommendations and
// owns their status lifecycle.
package recommendation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"landedcost/internal/models"
	"landedcost/internal/savings"
	"landedcost/internal/scenario"
)

const (
	TypeClassification = "classification"
	TypeOrigin         = "origin"
	TypeShipping       = "shipping"
	TypeFBA            = "fba"
	TypeTradeAgreement = "trade_agreement"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

func typeFor(axis scenario.Axis) string {
	switch axis {
	case scenario.AxisClassification:
		return TypeClassification
	case scenario.AxisOrigin:
		return TypeOrigin
	case scenario.AxisTradeAgreement:
		return TypeTradeAgreement
	case scenario.AxisFulfillment:
		return TypeFBA
	default:
		return TypeShipping
	}
}

// Generator only auto-assigns high and medium priority; low and critical are for manual entries.
type Generator struct {
	// Results saving no more than MaterialityThreshold per unit are skipped.
	MaterialityThreshold  decimal.Decimal
	HighPriorityThreshold decimal.Decimal

	NewID func() string
	Now   func() time.Time
}

// Source identifies where generated recommendations come from.
type Source struct {
	WorkspaceID string
	ScenarioID  string
	JobID       string
}

type ImpactAnalysis struct {
	Financial   FinancialImpact        `json:"financial"`
	Operational OperationalImpact      `json:"operational"`
	Risk        savings.RiskAssessment `json:"risk"`
}

type FinancialImpact struct {
	BaselineCostPerUnit  decimal.Decimal  `json:"baseline_cost_per_unit"`
	OptimizedCostPerUnit decimal.Decimal  `json:"optimized_cost_per_unit"`
	SavingsPerUnit       decimal.Decimal  `json:"savings_per_unit"`
	SavingsPercentage    decimal.Decimal  `json:"savings_percentage"`
	AnnualSavings        decimal.Decimal  `json:"annual_savings"`
	ImplementationCost   decimal.Decimal  `json:"implementation_cost"`
	ROI                  decimal.Decimal  `json:"roi"`
	PaybackMonths        *decimal.Decimal `json:"payback_months,omitempty"`
}

type OperationalImpact struct {
	Complexity          savings.Complexity `json:"complexity"`
	TimeToImplementDays int                `json:"time_to_implement_days"`
	Changes             []scenario.Change  `json:"changes"`
}

// Generate snapshots each material result into a pending recommendation. Output follows input order.
func (g Generator) Generate(src Source, results []savings.ProductScenarioResult) ([]models.OptimizationRecommendation, error) {
	if strings.TrimSpace(src.WorkspaceID) == "" {
		return nil, errors.New("workspace id is required")
	}
	newID := g.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	now := g.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	out := make([]models.OptimizationRecommendation, 0, len(results))
	for _, r := range results {
		perUnit := r.Savings.TotalSavingsPerUnit
		if !perUnit.GreaterThan(g.MaterialityThreshold) || len(r.Changes) == 0 {
			continue
		}
		priority := PriorityMedium
		if perUnit.GreaterThan(g.HighPriorityThreshold) {
			priority = PriorityHigh
		}

		impact, err := json.Marshal(ImpactAnalysis{
			Financial: FinancialImpact{
				BaselineCostPerUnit:  r.Baseline.TotalLandedCost,
				OptimizedCostPerUnit: r.Optimized.TotalLandedCost,
				SavingsPerUnit:       perUnit,
				SavingsPercentage:    r.Savings.TotalSavingsPercentage,
				AnnualSavings:        r.Savings.AnnualSavings,
				ImplementationCost:   r.ImplementationCost,
				ROI:                  r.Savings.ROI,
				PaybackMonths:        r.Savings.PaybackMonths,
			},
			Operational: OperationalImpact{
				Complexity:          r.Complexity,
				TimeToImplementDays: r.TimeToImplementDays,
				Changes:             r.Changes,
			},
			Risk: r.Risk,
		})
		if err != nil {
			return nil, errors.Wrap(err, "marshal impact analysis")
		}
		reqs := r.Requirements
		if reqs == nil {
			reqs = []savings.Requirement{}
		}
		requirements, err := json.Marshal(reqs)
		if err != nil {
			return nil, errors.Wrap(err, "marshal implementation requirements")
		}

		rec := models.OptimizationRecommendation{
			ID:                         newID(),
			WorkspaceID:                src.WorkspaceID,
			ScenarioID:                 optional(src.ScenarioID),
			ProductID:                  optional(r.ProductID),
			SourceJobID:                optional(src.JobID),
			RecommendationType:         typeFor(r.PrimaryAxis),
			Title:                      title(r),
			Description:                description(r),
			ImpactAnalysis:             datatypes.JSON(impact),
			ImplementationRequirements: datatypes.JSON(requirements),
			ConfidenceScore:            r.Confidence,
			Priority:                   priority,
			Status:                     StatusPending,
			CreatedAt:                  now(),
		}
		rec.UpdatedAt = rec.CreatedAt
		out = append(out, rec)
	}
	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func title(r savings.ProductScenarioResult) string {
	primary := r.PrimaryAxis
	for _, ch := range r.Changes {
		if ch.Axis != primary {
			continue
		}
		switch ch.Axis {
		case scenario.AxisShipping:
			return fmt.Sprintf("Ship %s by %s", r.ProductID, ch.To)
		case scenario.AxisOrigin:
			return fmt.Sprintf("Source %s from %s", r.ProductID, ch.To)
		case scenario.AxisClassification:
			return fmt.Sprintf("Reclassify %s under %s", r.ProductID, ch.To)
		case scenario.AxisTradeAgreement:
			return fmt.Sprintf("Claim preferential duty for %s", r.ProductID)
		case scenario.AxisFulfillment:
			return fmt.Sprintf("Fulfill %s via %s", r.ProductID, ch.To)
		}
	}
	return fmt.Sprintf("Optimize landed cost of %s", r.ProductID)
}

func description(r savings.ProductScenarioResult) string {
	parts := make([]string, 0, len(r.Changes))
	for _, ch := range r.Changes {
		from := ch.From
		if from == "" {
			from = "current"
		}
		parts = append(parts, fmt.Sprintf("%s: %s -> %s", ch.Axis, from, ch.To))
	}
	return fmt.Sprintf("%s. Saves %s per unit (%s%%), %s per year at confidence %.2f.",
		strings.Join(parts, "; "),
		r.Savings.TotalSavingsPerUnit.StringFixed(2),
		r.Savings.TotalSavingsPercentage.StringFixed(2),
		r.Savings.AnnualSavings.StringFixed(2),
		r.Confidence,
	)
}
