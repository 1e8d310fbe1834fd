package savings

import (
	"fmt"

	"github.com/shopspring/decimal"

	"landedcost/internal/costmodel"
)

var hundred = decimal.NewFromInt(100)

// ComputeSavings derives the savings of optimized over baseline. Other reduction absorbs every component
// not broken out (value, insurance, broker and other fees), so the reductions always sum to the total.
func ComputeSavings(baseline, optimized costmodel.LandedCostBreakdown, volume, implementationCost decimal.Decimal, horizonMonths int) SavingsBreakdown {
	out := SavingsBreakdown{
		DutyReduction:        baseline.DutyAmount.Sub(optimized.DutyAmount),
		VATReduction:         baseline.VATAmount.Sub(optimized.VATAmount),
		ShippingReduction:    baseline.ShippingCost.Sub(optimized.ShippingCost),
		FulfillmentReduction: baseline.FulfillmentFees.Sub(optimized.FulfillmentFees),
		TotalSavingsPerUnit:  baseline.TotalLandedCost.Sub(optimized.TotalLandedCost),
	}
	out.OtherReduction = out.TotalSavingsPerUnit.
		Sub(out.DutyReduction).
		Sub(out.VATReduction).
		Sub(out.ShippingReduction).
		Sub(out.FulfillmentReduction)

	out.TotalSavingsPercentage = percent(out.TotalSavingsPerUnit, baseline.TotalLandedCost)
	out.AnnualSavings = out.TotalSavingsPerUnit.Mul(volume).Round(2)

	if horizonMonths <= 0 {
		horizonMonths = 12
	}
	horizonReturn := out.AnnualSavings.Mul(decimal.NewFromInt(int64(horizonMonths))).Div(decimal.NewFromInt(12))
	out.ROI = decimal.Zero
	if implementationCost.IsPositive() {
		out.ROI = horizonReturn.Sub(implementationCost).Div(implementationCost).Mul(hundred).Round(2)
	}
	if out.AnnualSavings.IsPositive() {
		monthly := out.AnnualSavings.Div(decimal.NewFromInt(12))
		payback := implementationCost.Div(monthly).Round(2)
		out.PaybackMonths = &payback
	}
	return out
}

func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(4)
}

// Aggregate folds per-product outcomes into a batch analysis. It is pure: equal inputs give equal output.
func Aggregate(outcomes []Outcome, opts Options) *BatchSavingsAnalysis {
	out := &BatchSavingsAnalysis{
		TotalProducts:      len(outcomes),
		TotalCurrentCost:   decimal.Zero,
		TotalOptimizedCost: decimal.Zero,
		Results:            []ProductScenarioResult{},
		Recommendations:    []string{},
		Summary: Summary{
			QuickWins:               []ScenarioRef{},
			HighImpactScenarios:     []ScenarioRef{},
			LongTermOpportunities:   []ScenarioRef{},
			TotalImplementationCost: decimal.Zero,
		},
	}

	roiSum := decimal.Zero
	withSavings := 0
	for _, o := range outcomes {
		if o.Failure != nil {
			out.FailedProducts++
			out.Failures = append(out.Failures, *o.Failure)
			continue
		}
		if o.Result == nil {
			continue
		}
		r := *o.Result
		out.AnalyzedProducts++
		out.Results = append(out.Results, r)

		volume := decimal.NewFromInt(max(r.AnnualVolume, 1))
		out.TotalCurrentCost = out.TotalCurrentCost.Add(r.Baseline.TotalLandedCost.Mul(volume))
		out.TotalOptimizedCost = out.TotalOptimizedCost.Add(r.Optimized.TotalLandedCost.Mul(volume))

		if !r.HasSavings() {
			continue
		}
		withSavings++
		roiSum = roiSum.Add(r.Savings.ROI)
		out.Summary.TotalImplementationCost = out.Summary.TotalImplementationCost.Add(r.ImplementationCost)

		ref := ScenarioRef{ProductID: r.ProductID, ScenarioID: r.ScenarioID, AnnualSavings: r.Savings.AnnualSavings}
		if r.Complexity == ComplexityLow && r.Confidence >= opts.QuickWinConfidence {
			out.Summary.QuickWins = append(out.Summary.QuickWins, ref)
		}
		if opts.HighImpactAnnualSavings.IsPositive() && r.Savings.AnnualSavings.GreaterThanOrEqual(opts.HighImpactAnnualSavings) {
			out.Summary.HighImpactScenarios = append(out.Summary.HighImpactScenarios, ref)
		}
		if r.Complexity == ComplexityHigh && r.Savings.TotalSavingsPercentage.GreaterThanOrEqual(opts.LongTermMinPct) {
			out.Summary.LongTermOpportunities = append(out.Summary.LongTermOpportunities, ref)
		}
	}

	out.TotalSavings = out.TotalCurrentCost.Sub(out.TotalOptimizedCost)
	out.TotalSavingsPercentage = percent(out.TotalSavings, out.TotalCurrentCost)
	out.AverageROI = decimal.Zero
	if withSavings > 0 {
		out.AverageROI = roiSum.Div(decimal.NewFromInt(int64(withSavings))).Round(2)
	}
	out.Summary.NetSavings = out.TotalSavings.Sub(out.Summary.TotalImplementationCost)
	out.Recommendations = batchRecommendations(out, withSavings)
	return out
}

func batchRecommendations(b *BatchSavingsAnalysis, withSavings int) []string {
	recs := []string{}
	if withSavings == 0 {
		recs = append(recs, "no_savings_found")
	}
	if n := len(b.Summary.QuickWins); n > 0 {
		recs = append(recs, fmt.Sprintf("implement_quick_wins:%d", n))
	}
	if n := len(b.Summary.HighImpactScenarios); n > 0 {
		recs = append(recs, fmt.Sprintf("prioritize_high_impact:%d", n))
	}
	if n := len(b.Summary.LongTermOpportunities); n > 0 {
		recs = append(recs, fmt.Sprintf("plan_long_term:%d", n))
	}
	if withSavings > 0 && b.Summary.NetSavings.IsNegative() {
		recs = append(recs, "implementation_cost_exceeds_savings")
	}
	if b.FailedProducts > 0 {
		recs = append(recs, fmt.Sprintf("review_failed_products:%d", b.FailedProducts))
	}
	return recs
}
