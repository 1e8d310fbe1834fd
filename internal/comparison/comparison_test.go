package comparison

import (
	"testing"

	"github.com/shopspring/decimal"

	"landedcost/internal/apperr"
	"landedcost/internal/savings"
)

func opt(id, pct, saving string, risk savings.RiskLevel) Option {
	return Option{
		ScenarioID:        id,
		SavingsPercentage: decimal.RequireFromString(pct),
		PotentialSaving:   decimal.RequireFromString(saving),
		Confidence:        0.9,
		Risk:              risk,
	}
}

func TestCompareRanksAndVariance(t *testing.T) {
	out, err := Compare([]Option{
		opt("b", "10", "5000", savings.RiskLow),
		opt("a", "20", "1000", savings.RiskHigh),
		opt("c", "0", "0", savings.RiskLow),
	}, DefaultThresholds())
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if out.Best.ScenarioID != "a" || out.Worst.ScenarioID != "c" || out.Worst.Rank != 2 {
		t.Fatalf("best=%s worst=%s rank=%d", out.Best.ScenarioID, out.Worst.ScenarioID, out.Worst.Rank)
	}
	// mean 10, deviations 10,0,-10 -> 200/3.
	if !out.Variance.Equal(decimal.RequireFromString("66.6667")) {
		t.Fatalf("variance=%s", out.Variance)
	}
	want := []string{"adopt_best:a", "high_variance", "consider_lower_risk:b"}
	if len(out.Recommendations) != len(want) {
		t.Fatalf("recommendations=%v want=%v", out.Recommendations, want)
	}
	for i := range want {
		if out.Recommendations[i] != want[i] {
			t.Fatalf("recommendations=%v want=%v", out.Recommendations, want)
		}
	}
	if len(out.RiskAnalysis) != 1 || out.RiskAnalysis[0] != "risk_high:a" {
		t.Fatalf("risk analysis=%v", out.RiskAnalysis)
	}
}

func TestCompareSingleScenario(t *testing.T) {
	out, err := Compare([]Option{opt("only", "7.5", "300", savings.RiskLow)}, DefaultThresholds())
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if out.Best.ScenarioID != "only" || out.Worst.ScenarioID != "only" {
		t.Fatalf("best=%s worst=%s", out.Best.ScenarioID, out.Worst.ScenarioID)
	}
	if !out.Variance.IsZero() {
		t.Fatalf("variance=%s want=0", out.Variance)
	}
}

func TestCompareTieBreaks(t *testing.T) {
	out, _ := Compare([]Option{
		opt("z", "5", "100", savings.RiskLow),
		opt("y", "5", "200", savings.RiskLow),
		opt("x", "5", "200", savings.RiskLow),
	}, DefaultThresholds())
	got := []string{out.Ranked[0].ScenarioID, out.Ranked[1].ScenarioID, out.Ranked[2].ScenarioID}
	if got[0] != "x" || got[1] != "y" || got[2] != "z" {
		t.Fatalf("order=%v want=[x y z]", got)
	}
}

func TestCompareEmpty(t *testing.T) {
	if _, err := Compare(nil, DefaultThresholds()); apperr.CodeOf(err) != apperr.CodeInvalidInput {
		t.Fatalf("err=%v want invalid_input", err)
	}
}

func TestFromBatch(t *testing.T) {
	b := &savings.BatchSavingsAnalysis{
		TotalSavings:           decimal.NewFromInt(900),
		TotalSavingsPercentage: decimal.NewFromInt(9),
		Results: []savings.ProductScenarioResult{
			{Confidence: 0.95, Risk: savings.RiskAssessment{Overall: savings.RiskMedium}, Savings: savings.SavingsBreakdown{TotalSavingsPerUnit: decimal.NewFromInt(3)}},
			{Confidence: 0.6, Risk: savings.RiskAssessment{Overall: savings.RiskLow}, Savings: savings.SavingsBreakdown{TotalSavingsPerUnit: decimal.NewFromInt(1)}},
			{Confidence: 0.1, Risk: savings.RiskAssessment{Overall: savings.RiskHigh}},
		},
	}
	o := FromBatch("s1", "Mexico", b)
	if o.Confidence != 0.6 || o.Risk != savings.RiskMedium || !o.PotentialSaving.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("option=%+v", o)
	}
}
