package scenario

import (
	"testing"

	"github.com/shopspring/decimal"

	"landedcost/internal/apperr"
	"landedcost/internal/costmodel"
)

func testBuilder() Builder {
	return Builder{
		Params: costmodel.Params{
			DefaultShipping: costmodel.ShippingOption{Method: "standard", BaseCost: decimal.NewFromInt(10), PerKg: decimal.NewFromInt(4)},
			ShippingRates: map[string]costmodel.ShippingOption{
				"standard": {Method: "standard", BaseCost: decimal.NewFromInt(10), PerKg: decimal.NewFromInt(4)},
				"sea":      {Method: "sea", BaseCost: decimal.NewFromInt(2), PerKg: decimal.NewFromInt(1)},
				"express":  {Method: "express", BaseCost: decimal.NewFromInt(30), PerKg: decimal.NewFromInt(9)},
			},
			FulfillmentFees: map[string]decimal.Decimal{"fbm": decimal.NewFromInt(6), "fba": decimal.NewFromInt(4)},
		},
		SavingHints: map[Axis]decimal.Decimal{
			AxisOrigin:         decimal.NewFromInt(4),
			AxisClassification: decimal.NewFromInt(3),
			AxisTradeAgreement: decimal.NewFromInt(5),
		},
	}
}

func testProduct() costmodel.Product {
	return costmodel.Product{
		ID:                 "p1",
		Value:              decimal.NewFromInt(100),
		WeightKg:           decimal.NewFromInt(2),
		HSCode:             "8471.30",
		OriginCountry:      "CN",
		DestinationCountry: "US",
		ShippingMethod:     "standard",
		FulfillmentMethod:  "fbm",
		AlternativeHSCodes: []string{"8471.41", "8471.50"},
	}
}

func allAxes() Variations {
	return Variations{
		Shipping:           true,
		ShippingMethods:    []string{"sea", "express"},
		Origin:             true,
		OriginCountries:    []string{"VN", "MX", "IN"},
		Classification:     true,
		TradeAgreements:    true,
		Fulfillment:        true,
		FulfillmentMethods: []string{"fba"},
	}
}

func TestBuildRespectsCap(t *testing.T) {
	b := testBuilder()
	for _, depth := range []Depth{DepthBasic, DepthComprehensive, DepthExhaustive} {
		for n := 1; n <= 40; n++ {
			cfg := Configuration{Variations: allAxes(), MaxScenarios: n, AnalysisDepth: depth, MinSavingThreshold: decimal.NewFromInt(-1000)}
			got := b.Collect(testProduct(), cfg)
			if len(got) > n {
				t.Fatalf("depth=%s cap=%d yielded=%d", depth, n, len(got))
			}
		}
	}
}

func TestBuildNoAxesYieldsBaseline(t *testing.T) {
	got := testBuilder().Collect(testProduct(), Configuration{MaxScenarios: 5})
	if len(got) != 1 || !got[0].IsBaseline() || got[0].ID != BaselineID {
		t.Fatalf("candidates=%+v want baseline only", got)
	}
}

func TestBuildSimplerFirst(t *testing.T) {
	cfg := Configuration{Variations: allAxes(), MaxScenarios: 100, AnalysisDepth: DepthExhaustive, MinSavingThreshold: decimal.NewFromInt(-1000)}
	got := testBuilder().Collect(testProduct(), cfg)
	if len(got) == 0 {
		t.Fatalf("no candidates")
	}
	prev := 0
	for _, c := range got {
		if len(c.Changes) < prev {
			t.Fatalf("candidate %s changes %d axes after a %d-axis candidate", c.ID, len(c.Changes), prev)
		}
		prev = len(c.Changes)
	}
	// Single-alternative axes (trade agreement, fulfillment) lead.
	if first := got[0].Changes[0].Axis; first != AxisTradeAgreement {
		t.Fatalf("first axis=%s want=%s", first, AxisTradeAgreement)
	}
}

func TestBuildBasicDepthChangesOneAxis(t *testing.T) {
	cfg := Configuration{Variations: allAxes(), MaxScenarios: 100, AnalysisDepth: DepthBasic, MinSavingThreshold: decimal.NewFromInt(-1000)}
	got := testBuilder().Collect(testProduct(), cfg)
	// 2 shipping + 3 origin + 2 classification + 1 claim + 1 fulfillment.
	if len(got) != 9 {
		t.Fatalf("candidates=%d want=9", len(got))
	}
	for _, c := range got {
		if len(c.Changes) != 1 {
			t.Fatalf("candidate %s changes %d axes", c.ID, len(c.Changes))
		}
	}
}

func TestBuildPrunesBelowThreshold(t *testing.T) {
	cfg := Configuration{
		Variations:         Variations{Shipping: true, ShippingMethods: []string{"sea", "express"}},
		MaxScenarios:       10,
		AnalysisDepth:      DepthBasic,
		MinSavingThreshold: decimal.Zero,
	}
	got := testBuilder().Collect(testProduct(), cfg)
	// express is more expensive than standard and is pruned.
	if len(got) != 1 || got[0].ID != "shipping=sea" {
		t.Fatalf("candidates=%+v want shipping=sea only", got)
	}
	// standard 10+4*2=18, sea 2+1*2=4.
	if !got[0].EstimatedSaving.Equal(decimal.NewFromInt(14)) {
		t.Fatalf("estimate=%s want=14", got[0].EstimatedSaving)
	}
}

func TestBuildStopsEarly(t *testing.T) {
	cfg := Configuration{Variations: allAxes(), MaxScenarios: 100, AnalysisDepth: DepthExhaustive, MinSavingThreshold: decimal.NewFromInt(-1000)}
	n := 0
	for range testBuilder().Build(testProduct(), cfg) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("n=%d want=3", n)
	}
}

func TestCandidateApply(t *testing.T) {
	c := Candidate{Changes: []Change{
		{Axis: AxisOrigin, From: "CN", To: "VN"},
		{Axis: AxisTradeAgreement, To: "claim"},
	}}
	p := c.Apply(testProduct())
	if p.OriginCountry != "VN" || p.HSCode != "8471.30" {
		t.Fatalf("applied=%+v", p)
	}
	if !c.ClaimsTradeAgreement() {
		t.Fatalf("expected trade agreement claim")
	}
}

func TestConfigurationValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Configuration
		ok   bool
	}{
		{"zero cap", Configuration{}, false},
		{"negative cap", Configuration{MaxScenarios: -1}, false},
		{"confidence", Configuration{MaxScenarios: 1, ConfidenceThreshold: 1.2}, false},
		{"depth", Configuration{MaxScenarios: 1, AnalysisDepth: "deep"}, false},
		{"shipping without methods", Configuration{MaxScenarios: 1, Variations: Variations{Shipping: true}}, false},
		{"ok", Configuration{MaxScenarios: 1, AnalysisDepth: DepthBasic}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && apperr.CodeOf(err) != apperr.CodeInvalidInput {
				t.Fatalf("err=%v want invalid input", err)
			}
		})
	}
}
