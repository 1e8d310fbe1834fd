package savings

import (
	"fmt"

	"github.com/shopspring/decimal"

	"landedcost/internal/scenario"
)

// AxisProfile is what changing one axis demands and risks.
type AxisProfile struct {
	Requirements func(ch scenario.Change) []Requirement
	Risk         RiskAssessment
}

// Catalog maps every axis to its implementation profile.
type Catalog map[scenario.Axis]AxisProfile

func req(t RequirementType, c Complexity, cost int64, days int, format string, args ...any) Requirement {
	return Requirement{Type: t, Description: fmt.Sprintf(format, args...), Complexity: c, Cost: decimal.NewFromInt(cost), Days: days}
}

// DefaultCatalog is used when the engine has none configured.
var DefaultCatalog = Catalog{
	scenario.AxisShipping: {
		Requirements: func(ch scenario.Change) []Requirement {
			return []Requirement{
				req(RequirementProcessChange, ComplexityLow, 500, 14, "switch shipping from %s to %s", orDefault(ch.From), ch.To),
			}
		},
		Risk: RiskAssessment{Compliance: RiskLow, Supplier: RiskLow, Market: RiskLow, Operational: RiskMedium},
	},
	scenario.AxisOrigin: {
		Requirements: func(ch scenario.Change) []Requirement {
			return []Requirement{
				req(RequirementSupplierChange, ComplexityHigh, 15000, 120, "qualify a supplier in %s", ch.To),
				req(RequirementDocumentation, ComplexityLow, 500, 14, "certificate of origin for %s", ch.To),
			}
		},
		Risk: RiskAssessment{Compliance: RiskMedium, Supplier: RiskHigh, Market: RiskMedium, Operational: RiskMedium},
	},
	scenario.AxisClassification: {
		Requirements: func(ch scenario.Change) []Requirement {
			return []Requirement{
				req(RequirementLegalReview, ComplexityMedium, 3000, 60, "binding ruling for reclassification %s -> %s", ch.From, ch.To),
				req(RequirementDocumentation, ComplexityLow, 300, 7, "technical specification supporting %s", ch.To),
			}
		},
		Risk: RiskAssessment{Compliance: RiskHigh, Supplier: RiskLow, Market: RiskLow, Operational: RiskLow},
	},
	scenario.AxisTradeAgreement: {
		Requirements: func(ch scenario.Change) []Requirement {
			return []Requirement{
				req(RequirementCertification, ComplexityMedium, 1500, 30, "preferential origin certification"),
			}
		},
		Risk: RiskAssessment{Compliance: RiskMedium, Supplier: RiskLow, Market: RiskLow, Operational: RiskLow},
	},
	scenario.AxisFulfillment: {
		Requirements: func(ch scenario.Change) []Requirement {
			return []Requirement{
				req(RequirementProcessChange, ComplexityMedium, 2000, 30, "move fulfillment from %s to %s", orDefault(ch.From), ch.To),
			}
		},
		Risk: RiskAssessment{Compliance: RiskLow, Supplier: RiskLow, Market: RiskLow, Operational: RiskMedium},
	},
}

func orDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}

type implementation struct {
	requirements []Requirement
	cost         decimal.Decimal
	complexity   Complexity
	days         int
	risk         RiskAssessment
}

func (c Catalog) assess(cand scenario.Candidate) implementation {
	out := implementation{cost: decimal.Zero, complexity: ComplexityLow, risk: lowRisk()}
	for _, ch := range cand.Changes {
		profile, ok := c[ch.Axis]
		if !ok {
			continue
		}
		if profile.Requirements != nil {
			out.requirements = append(out.requirements, profile.Requirements(ch)...)
		}
		r := profile.Risk
		out.risk.Compliance = maxRisk(out.risk.Compliance, r.Compliance)
		out.risk.Supplier = maxRisk(out.risk.Supplier, r.Supplier)
		out.risk.Market = maxRisk(out.risk.Market, r.Market)
		out.risk.Operational = maxRisk(out.risk.Operational, r.Operational)
	}
	for _, r := range out.requirements {
		out.cost = out.cost.Add(r.Cost)
		if r.Complexity.rank() > out.complexity.rank() {
			out.complexity = r.Complexity
		}
		if r.Days > out.days {
			out.days = r.Days
		}
	}
	// Changing several axes at once compounds risk.
	if len(cand.Changes) > 2 {
		out.risk.Operational = maxRisk(out.risk.Operational, RiskHigh)
	}
	out.risk.Overall = maxRisk(out.risk.Compliance, out.risk.Supplier, out.risk.Market, out.risk.Operational)
	return out
}

// primaryAxis is the change with the highest implementation cost; the first change wins ties.
func (c Catalog) primaryAxis(cand scenario.Candidate) scenario.Axis {
	var best scenario.Axis
	bestCost := decimal.NewFromInt(-1)
	for _, ch := range cand.Changes {
		cost := decimal.Zero
		if profile, ok := c[ch.Axis]; ok && profile.Requirements != nil {
			for _, r := range profile.Requirements(ch) {
				cost = cost.Add(r.Cost)
			}
		}
		if cost.GreaterThan(bestCost) {
			best, bestCost = ch.Axis, cost
		}
	}
	return best
}
