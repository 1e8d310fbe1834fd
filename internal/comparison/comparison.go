// Package comparison ranks already-computed scenarios against each other.
package comparison

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"landedcost/internal/apperr"
	"landedcost/internal/savings"
)

// Option is one scenario entering a comparison.
type Option struct {
	ScenarioID         string            `json:"scenario_id"`
	Name               string            `json:"name,omitempty"`
	PotentialSaving    decimal.Decimal   `json:"potential_saving"`
	SavingsPercentage  decimal.Decimal   `json:"savings_percentage"`
	Confidence         float64           `json:"confidence"`
	Risk               savings.RiskLevel `json:"risk"`
	ImplementationCost decimal.Decimal   `json:"implementation_cost"`
}

type Ranked struct {
	Option
	Rank int `json:"rank"`
}

type MultiScenarioComparison struct {
	Best            Ranked          `json:"best_scenario"`
	Worst           Ranked          `json:"worst_scenario"`
	Ranked          []Ranked        `json:"ranked"`
	Variance        decimal.Decimal `json:"variance"`
	Recommendations []string        `json:"recommendations"`
	RiskAnalysis    []string        `json:"risk_analysis"`
}

type Thresholds struct {
	// HighVariance is in squared percentage points.
	HighVariance  decimal.Decimal
	LowConfidence float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{HighVariance: decimal.NewFromInt(25), LowConfidence: 0.7}
}

// FromBatch summarizes one analyzed scenario for comparison. Confidence and risk are those of the weakest
// saving result.
func FromBatch(scenarioID, name string, b *savings.BatchSavingsAnalysis) Option {
	opt := Option{
		ScenarioID:         scenarioID,
		Name:               name,
		PotentialSaving:    decimal.Zero,
		SavingsPercentage:  decimal.Zero,
		Confidence:         1,
		Risk:               savings.RiskLow,
		ImplementationCost: decimal.Zero,
	}
	if b == nil {
		opt.Confidence = 0
		return opt
	}
	opt.PotentialSaving = b.TotalSavings
	opt.SavingsPercentage = b.TotalSavingsPercentage
	opt.ImplementationCost = b.Summary.TotalImplementationCost
	for _, r := range b.Results {
		if !r.HasSavings() {
			continue
		}
		opt.Confidence = min(opt.Confidence, r.Confidence)
		if riskRank(r.Risk.Overall) > riskRank(opt.Risk) {
			opt.Risk = r.Risk.Overall
		}
	}
	return opt
}

// Compare ranks options by savings percentage, then potential saving, then id. A single option is both best
// and worst with zero variance.
func Compare(options []Option, th Thresholds) (*MultiScenarioComparison, error) {
	if len(options) == 0 {
		return nil, apperr.Invalid("scenarios", "at least one scenario is required")
	}
	sorted := make([]Option, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.SavingsPercentage.Equal(b.SavingsPercentage) {
			return a.SavingsPercentage.GreaterThan(b.SavingsPercentage)
		}
		if !a.PotentialSaving.Equal(b.PotentialSaving) {
			return a.PotentialSaving.GreaterThan(b.PotentialSaving)
		}
		return a.ScenarioID < b.ScenarioID
	})

	out := &MultiScenarioComparison{
		Ranked:          make([]Ranked, len(sorted)),
		Recommendations: []string{},
		RiskAnalysis:    []string{},
	}
	for i, o := range sorted {
		out.Ranked[i] = Ranked{Option: o, Rank: i}
	}
	out.Best = out.Ranked[0]
	out.Worst = out.Ranked[len(out.Ranked)-1]
	out.Variance = variance(sorted)

	if out.Best.SavingsPercentage.IsPositive() {
		out.Recommendations = append(out.Recommendations, "adopt_best:"+out.Best.ScenarioID)
	} else {
		out.Recommendations = append(out.Recommendations, "no_scenario_saves")
	}
	if out.Variance.GreaterThan(th.HighVariance) {
		out.Recommendations = append(out.Recommendations, "high_variance")
	}
	if out.Best.Risk == savings.RiskHigh {
		for _, r := range out.Ranked[1:] {
			if riskRank(r.Risk) < riskRank(savings.RiskHigh) && r.SavingsPercentage.IsPositive() {
				out.Recommendations = append(out.Recommendations, "consider_lower_risk:"+r.ScenarioID)
				break
			}
		}
	}

	for _, r := range out.Ranked {
		if r.Risk == savings.RiskHigh {
			out.RiskAnalysis = append(out.RiskAnalysis, "risk_high:"+r.ScenarioID)
		}
		if r.Confidence < th.LowConfidence {
			out.RiskAnalysis = append(out.RiskAnalysis, "low_confidence:"+r.ScenarioID)
		}
		if r.ImplementationCost.GreaterThan(r.PotentialSaving) && r.PotentialSaving.IsPositive() {
			out.RiskAnalysis = append(out.RiskAnalysis, fmt.Sprintf("cost_exceeds_annual_saving:%s", r.ScenarioID))
		}
	}
	return out, nil
}

// variance is the population variance of the savings percentages.
func variance(options []Option) decimal.Decimal {
	n := decimal.NewFromInt(int64(len(options)))
	sum := decimal.Zero
	for _, o := range options {
		sum = sum.Add(o.SavingsPercentage)
	}
	mean := sum.Div(n)
	acc := decimal.Zero
	for _, o := range options {
		d := o.SavingsPercentage.Sub(mean)
		acc = acc.Add(d.Mul(d))
	}
	return acc.Div(n).Round(4)
}

func riskRank(r savings.RiskLevel) int {
	switch r {
	case savings.RiskHigh:
		return 2
	case savings.RiskMedium:
		return 1
	default:
		return 0
	}
}
