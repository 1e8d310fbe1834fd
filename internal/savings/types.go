// Package savings evaluates candidate scenarios against each product's baseline landed cost and
// aggregates the per-product winners into a batch analysis.
package savings

import (
	"github.com/shopspring/decimal"

	"landedcost/internal/apperr"
	"landedcost/internal/costmodel"
	"landedcost/internal/scenario"
)

type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

func (c Complexity) rank() int {
	switch c {
	case ComplexityHigh:
		return 2
	case ComplexityMedium:
		return 1
	default:
		return 0
	}
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

func maxRisk(levels ...RiskLevel) RiskLevel {
	out := RiskLow
	for _, l := range levels {
		if l.rank() > out.rank() {
			out = l
		}
	}
	return out
}

type RequirementType string

const (
	RequirementDocumentation  RequirementType = "documentation"
	RequirementCertification  RequirementType = "certification"
	RequirementSupplierChange RequirementType = "supplier_change"
	RequirementProcessChange  RequirementType = "process_change"
	RequirementLegalReview    RequirementType = "legal_review"
)

type Requirement struct {
	Type        RequirementType `json:"type"`
	Description string          `json:"description"`
	Complexity  Complexity      `json:"complexity"`
	Cost        decimal.Decimal `json:"cost"`
	Days        int             `json:"days"`
}

type RiskAssessment struct {
	Compliance  RiskLevel `json:"compliance"`
	Supplier    RiskLevel `json:"supplier"`
	Market      RiskLevel `json:"market"`
	Operational RiskLevel `json:"operational"`
	Overall     RiskLevel `json:"overall"`
}

func lowRisk() RiskAssessment {
	return RiskAssessment{Compliance: RiskLow, Supplier: RiskLow, Market: RiskLow, Operational: RiskLow, Overall: RiskLow}
}

// SavingsBreakdown is per unit unless a field says otherwise. TotalSavingsPerUnit is always the sum of the
// five reductions; the percentage is relative to the baseline total and is 0 when that total is 0.
type SavingsBreakdown struct {
	DutyReduction          decimal.Decimal  `json:"duty_reduction"`
	VATReduction           decimal.Decimal  `json:"vat_reduction"`
	ShippingReduction      decimal.Decimal  `json:"shipping_reduction"`
	FulfillmentReduction   decimal.Decimal  `json:"fulfillment_reduction"`
	OtherReduction         decimal.Decimal  `json:"other_reduction"`
	TotalSavingsPerUnit    decimal.Decimal  `json:"total_savings_per_unit"`
	TotalSavingsPercentage decimal.Decimal  `json:"total_savings_percentage"`
	AnnualSavings          decimal.Decimal  `json:"annual_savings"`
	ROI                    decimal.Decimal  `json:"roi"`
	PaybackMonths          *decimal.Decimal `json:"payback_months,omitempty"`
}

// ProductScenarioResult is the winning candidate of one product. Re-analysis produces a new value.
type ProductScenarioResult struct {
	ProductID           string                        `json:"product_id"`
	ScenarioID          string                        `json:"scenario_id"`
	Changes             []scenario.Change             `json:"changes,omitempty"`
	PrimaryAxis         scenario.Axis                 `json:"primary_axis,omitempty"`
	Baseline            costmodel.LandedCostBreakdown `json:"baseline"`
	Optimized           costmodel.LandedCostBreakdown `json:"optimized"`
	Savings             SavingsBreakdown              `json:"savings"`
	Confidence          float64                       `json:"confidence"`
	Risk                RiskAssessment                `json:"risk_assessment"`
	Requirements        []Requirement                 `json:"implementation_requirements"`
	ImplementationCost  decimal.Decimal               `json:"implementation_cost"`
	Complexity          Complexity                    `json:"complexity"`
	TimeToImplementDays int                           `json:"time_to_implement_days"`
	AnnualVolume        int64                         `json:"annual_volume"`
	CandidatesEvaluated int                           `json:"candidates_evaluated"`
}

// HasSavings reports whether the result improves on the baseline.
func (r ProductScenarioResult) HasSavings() bool {
	return r.Savings.TotalSavingsPerUnit.IsPositive()
}

// ProductFailure records why a product was left out of a batch.
type ProductFailure struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Outcome is the per-product unit of work: exactly one of Result and Failure is set.
type Outcome struct {
	ProductID string                 `json:"product_id"`
	Result    *ProductScenarioResult `json:"result,omitempty"`
	Failure   *ProductFailure        `json:"failure,omitempty"`
}

// Transient reports a failure caused by an unavailable provider rather than by the product.
func (o Outcome) Transient() bool {
	return o.Failure != nil && o.Failure.Code == apperr.CodeProviderUnavailable
}

type ScenarioRef struct {
	ProductID     string          `json:"product_id"`
	ScenarioID    string          `json:"scenario_id"`
	AnnualSavings decimal.Decimal `json:"annual_savings"`
}

type Summary struct {
	QuickWins               []ScenarioRef   `json:"quick_wins"`
	HighImpactScenarios     []ScenarioRef   `json:"high_impact_scenarios"`
	LongTermOpportunities   []ScenarioRef   `json:"long_term_opportunities"`
	TotalImplementationCost decimal.Decimal `json:"total_implementation_cost"`
	NetSavings              decimal.Decimal `json:"net_savings"`
}

// BatchSavingsAnalysis totals are annual. Results and failures keep input order.
type BatchSavingsAnalysis struct {
	TotalProducts          int                     `json:"total_products"`
	AnalyzedProducts       int                     `json:"analyzed_products"`
	FailedProducts         int                     `json:"failed_products"`
	TotalCurrentCost       decimal.Decimal         `json:"total_current_cost"`
	TotalOptimizedCost     decimal.Decimal         `json:"total_optimized_cost"`
	TotalSavings           decimal.Decimal         `json:"total_savings"`
	TotalSavingsPercentage decimal.Decimal         `json:"total_savings_percentage"`
	AverageROI             decimal.Decimal         `json:"average_roi"`
	Summary                Summary                 `json:"summary"`
	Recommendations        []string                `json:"recommendations"`
	Results                []ProductScenarioResult `json:"results"`
	Failures               []ProductFailure        `json:"failures,omitempty"`
}
