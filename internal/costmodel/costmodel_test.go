package costmodel

import (
	"testing"

	"github.com/shopspring/decimal"

	"landedcost/internal/apperr"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testParams() Params {
	return Params{
		Currency:        "USD",
		DefaultShipping: ShippingOption{Method: "standard", BaseCost: d("10"), PerKg: d("2")},
		ShippingRates: map[string]ShippingOption{
			"express": {Method: "express", BaseCost: d("25"), PerKg: d("4.5")},
		},
		InsurancePercent:  d("0.5"),
		BrokerFee:         d("15"),
		FulfillmentFees:   map[string]decimal.Decimal{"fba": d("3.22"), "fbm": d("5")},
		VolumetricDivisor: d("5000"),
	}
}

func TestComputeTotalEqualsComponents(t *testing.T) {
	cases := []struct {
		name string
		p    Product
		q    RateQuote
	}{
		{
			name: "plain",
			p:    Product{ID: "p1", Value: d("199.99"), WeightKg: d("1.37"), FulfillmentMethod: "fba"},
			q:    RateQuote{DutyPercent: d("3.7"), VATPercent: d("20"), AdditionalFees: d("0.33")},
		},
		{
			name: "compounding",
			p:    Product{ID: "p2", Value: d("1234.567"), WeightKg: d("0.2"), ShippingMethod: "express"},
			q:    RateQuote{DutyPercent: d("12.5"), VATPercent: d("19"), VATOnDuty: true},
		},
		{
			name: "zero value",
			p:    Product{ID: "p3"},
			q:    RateQuote{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := ComputeLandedCost(tc.p, tc.q, nil, testParams())
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			if !out.TotalLandedCost.Equal(out.ComponentSum()) {
				t.Fatalf("total=%s sum=%s", out.TotalLandedCost, out.ComponentSum())
			}
		})
	}
}

func TestDutyOnDeclaredValue(t *testing.T) {
	p := Product{ID: "p", Value: d("1000")}
	out, err := Model{}.Compute(p, RateQuote{DutyPercent: d("12")}, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !out.DutyAmount.Equal(d("120")) {
		t.Fatalf("duty=%s want=120", out.DutyAmount)
	}
	if !out.TotalLandedCost.Equal(d("1120")) {
		t.Fatalf("total=%s want=1120", out.TotalLandedCost)
	}
}

func TestVATBase(t *testing.T) {
	p := Product{ID: "p", Value: d("100")}
	q := RateQuote{DutyPercent: d("10"), VATPercent: d("20")}

	simple, _ := Model{}.Compute(p, q, nil)
	if !simple.VATAmount.Equal(d("20")) {
		t.Fatalf("vat=%s want=20", simple.VATAmount)
	}
	q.VATOnDuty = true
	compound, _ := Model{}.Compute(p, q, nil)
	if !compound.VATAmount.Equal(d("22")) {
		t.Fatalf("vat=%s want=22", compound.VATAmount)
	}
}

func TestShippingUsesChargeableWeight(t *testing.T) {
	m := Model{Params: testParams()}
	p := Product{
		ID:         "bulky",
		Value:      d("10"),
		WeightKg:   d("1"),
		Dimensions: Dimensions{LengthCm: d("50"), WidthCm: d("40"), HeightCm: d("30")},
	}
	// 60000 cm3 / 5000 = 12kg volumetric.
	if got := m.ChargeableWeight(p); !got.Equal(d("12")) {
		t.Fatalf("chargeable=%s want=12", got)
	}
	out, err := m.Compute(p, RateQuote{}, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !out.ShippingCost.Equal(d("34")) {
		t.Fatalf("shipping=%s want=34", out.ShippingCost)
	}

	opt := ShippingOption{Method: "sea", BaseCost: d("1"), PerKg: d("0.1")}
	out, _ = m.Compute(p, RateQuote{}, &opt)
	if !out.ShippingCost.Equal(d("2.2")) {
		t.Fatalf("explicit shipping=%s want=2.2", out.ShippingCost)
	}
}

func TestPreferentialRate(t *testing.T) {
	zero := decimal.Zero
	q := RateQuote{DutyPercent: d("12"), TradeAgreement: "USMCA", PreferentialDutyPercent: &zero}
	if !q.WithPreferential().DutyPercent.IsZero() {
		t.Fatalf("preferential duty not applied")
	}
	q.TradeAgreement = ""
	if !q.WithPreferential().DutyPercent.Equal(d("12")) {
		t.Fatalf("ineligible quote changed")
	}
}

func TestProfitMargin(t *testing.T) {
	price := d("200")
	p := Product{ID: "p", Value: d("100"), SellingPrice: &price}
	out, _ := Model{}.Compute(p, RateQuote{}, nil)
	if out.ProfitMargin == nil || !out.ProfitMargin.Equal(d("50")) {
		t.Fatalf("margin=%v want=50", out.ProfitMargin)
	}
}

func TestInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		p    Product
		q    RateQuote
	}{
		{"negative value", Product{Value: d("-1")}, RateQuote{}},
		{"negative weight", Product{WeightKg: d("-0.1")}, RateQuote{}},
		{"duty above 100", Product{}, RateQuote{DutyPercent: d("100.5")}},
		{"negative vat", Product{}, RateQuote{VATPercent: d("-2")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Model{}.Compute(tc.p, tc.q, nil)
			if apperr.CodeOf(err) != apperr.CodeInvalidInput {
				t.Fatalf("err=%v want invalid input", err)
			}
		})
	}
}
