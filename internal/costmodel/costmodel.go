// Package costmodel computes a landed-cost breakdown for one unit of a product.
//
// All money is shopspring/decimal. Every component is rounded to cents before it is summed, so the total is
// exactly the sum of the listed components. Percentages apply to the declared customs value; VAT is levied on
// value alone unless the rate quote marks VATOnDuty, in which case the base is value plus duty.
package costmodel

import (
	"strings"

	"github.com/shopspring/decimal"

	"landedcost/internal/apperr"
)

var (
	hundred  = decimal.NewFromInt(100)
	centsExp = int32(2)
)

type Dimensions struct {
	LengthCm decimal.Decimal `json:"length_cm" yaml:"length_cm"`
	WidthCm  decimal.Decimal `json:"width_cm" yaml:"width_cm"`
	HeightCm decimal.Decimal `json:"height_cm" yaml:"height_cm"`
}

func (d Dimensions) VolumeCm3() decimal.Decimal {
	return d.LengthCm.Mul(d.WidthCm).Mul(d.HeightCm)
}

// Product is the per-unit view the cost model works on.
type Product struct {
	ID                 string           `json:"id" yaml:"id"`
	SKU                string           `json:"sku" yaml:"sku"`
	Name               string           `json:"name" yaml:"name"`
	Value              decimal.Decimal  `json:"value" yaml:"value"`
	WeightKg           decimal.Decimal  `json:"weight_kg" yaml:"weight_kg"`
	Dimensions         Dimensions       `json:"dimensions" yaml:"dimensions"`
	HSCode             string           `json:"hs_code" yaml:"hs_code"`
	OriginCountry      string           `json:"origin_country" yaml:"origin_country"`
	DestinationCountry string           `json:"destination_country" yaml:"destination_country"`
	ShippingMethod     string           `json:"shipping_method" yaml:"shipping_method"`
	FulfillmentMethod  string           `json:"fulfillment_method" yaml:"fulfillment_method"`
	AnnualVolume       int64            `json:"annual_volume" yaml:"annual_volume"`
	SellingPrice       *decimal.Decimal `json:"selling_price,omitempty" yaml:"selling_price"`
	AlternativeHSCodes []string         `json:"alternative_hs_codes,omitempty" yaml:"alternative_hs_codes"`
}

// Volume returns the annual unit volume, treating an unset volume as a single unit.
func (p Product) Volume() decimal.Decimal {
	if p.AnnualVolume <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(p.AnnualVolume)
}

// RateQuote is what the rate/classification provider returns for (hs code, origin, destination).
type RateQuote struct {
	HSCode                  string           `json:"hs_code" yaml:"hs_code"`
	Origin                  string           `json:"origin" yaml:"origin"`
	Destination             string           `json:"destination" yaml:"destination"`
	DutyPercent             decimal.Decimal  `json:"duty_percent" yaml:"duty_percent"`
	VATPercent              decimal.Decimal  `json:"vat_percent" yaml:"vat_percent"`
	AdditionalFees          decimal.Decimal  `json:"additional_fees" yaml:"additional_fees"`
	TradeAgreement          string           `json:"trade_agreement,omitempty" yaml:"trade_agreement"`
	PreferentialDutyPercent *decimal.Decimal `json:"preferential_duty_percent,omitempty" yaml:"preferential_duty_percent"`
	VATOnDuty               bool             `json:"vat_on_duty" yaml:"vat_on_duty"`
	Confidence              float64          `json:"confidence" yaml:"confidence"`
	Source                  string           `json:"source,omitempty" yaml:"source"`
}

// Eligible reports whether a preferential trade-agreement rate is on offer.
func (q RateQuote) Eligible() bool {
	return strings.TrimSpace(q.TradeAgreement) != "" && q.PreferentialDutyPercent != nil
}

// WithPreferential returns a copy that uses the preferential duty rate. Ineligible quotes are returned as is.
func (q RateQuote) WithPreferential() RateQuote {
	if !q.Eligible() {
		return q
	}
	out := q
	out.DutyPercent = *q.PreferentialDutyPercent
	return out
}

type ShippingOption struct {
	Method      string          `json:"method" mapstructure:"method"`
	BaseCost    decimal.Decimal `json:"base_cost" mapstructure:"base"`
	PerKg       decimal.Decimal `json:"per_kg" mapstructure:"per_kg"`
	TransitDays int             `json:"transit_days" mapstructure:"transit_days"`
}

// Params are the configured tariffs of everything that is not duty or VAT.
type Params struct {
	Currency          string
	DefaultShipping   ShippingOption
	ShippingRates     map[string]ShippingOption
	InsurancePercent  decimal.Decimal
	BrokerFee         decimal.Decimal
	FulfillmentFees   map[string]decimal.Decimal
	VolumetricDivisor decimal.Decimal
}

// ShippingFor resolves a method name, falling back to the default standard rate.
func (p Params) ShippingFor(method string) ShippingOption {
	key := strings.ToLower(strings.TrimSpace(method))
	if key != "" {
		if opt, ok := p.ShippingRates[key]; ok {
			if opt.Method == "" {
				opt.Method = key
			}
			return opt
		}
	}
	return p.DefaultShipping
}

// FulfillmentFee returns the per-unit fee of a fulfillment method; unknown methods cost nothing.
func (p Params) FulfillmentFee(method string) decimal.Decimal {
	key := strings.ToLower(strings.TrimSpace(method))
	if fee, ok := p.FulfillmentFees[key]; ok {
		return fee
	}
	return decimal.Zero
}

type LandedCostBreakdown struct {
	ProductValue    decimal.Decimal  `json:"product_value"`
	DutyAmount      decimal.Decimal  `json:"duty_amount"`
	VATAmount       decimal.Decimal  `json:"vat_amount"`
	ShippingCost    decimal.Decimal  `json:"shipping_cost"`
	InsuranceCost   decimal.Decimal  `json:"insurance_cost"`
	FulfillmentFees decimal.Decimal  `json:"fulfillment_fees"`
	BrokerFees      decimal.Decimal  `json:"broker_fees"`
	OtherFees       decimal.Decimal  `json:"other_fees"`
	TotalLandedCost decimal.Decimal  `json:"total_landed_cost"`
	SellingPrice    *decimal.Decimal `json:"selling_price,omitempty"`
	ProfitMargin    *decimal.Decimal `json:"profit_margin,omitempty"`
}

// ComponentSum is the sum of every listed component; it always equals TotalLandedCost for computed breakdowns.
func (b LandedCostBreakdown) ComponentSum() decimal.Decimal {
	return b.ProductValue.
		Add(b.DutyAmount).
		Add(b.VATAmount).
		Add(b.ShippingCost).
		Add(b.InsuranceCost).
		Add(b.FulfillmentFees).
		Add(b.BrokerFees).
		Add(b.OtherFees)
}

// Model is a pure calculator bound to one set of fee parameters.
type Model struct {
	Params Params
}

// ChargeableWeight is max(actual weight, volumetric weight).
func (m Model) ChargeableWeight(p Product) decimal.Decimal {
	w := p.WeightKg
	if m.Params.VolumetricDivisor.GreaterThan(decimal.Zero) {
		vol := p.Dimensions.VolumeCm3().Div(m.Params.VolumetricDivisor)
		if vol.GreaterThan(w) {
			w = vol
		}
	}
	return w
}

// Compute returns the landed cost of one unit. A nil shipping option uses the product's shipping method,
// then the configured default.
func (m Model) Compute(p Product, rate RateQuote, shipping *ShippingOption) (LandedCostBreakdown, error) {
	if err := validate(p, rate); err != nil {
		return LandedCostBreakdown{}, err
	}
	opt := m.Params.ShippingFor(p.ShippingMethod)
	if shipping != nil {
		opt = *shipping
	}

	value := p.Value.Round(centsExp)
	duty := percentOf(p.Value, rate.DutyPercent)
	vatBase := p.Value
	if rate.VATOnDuty {
		vatBase = vatBase.Add(duty)
	}
	vat := percentOf(vatBase, rate.VATPercent)

	out := LandedCostBreakdown{
		ProductValue:    value,
		DutyAmount:      duty,
		VATAmount:       vat,
		ShippingCost:    opt.BaseCost.Add(opt.PerKg.Mul(m.ChargeableWeight(p))).Round(centsExp),
		InsuranceCost:   percentOf(p.Value, m.Params.InsurancePercent),
		FulfillmentFees: m.Params.FulfillmentFee(p.FulfillmentMethod).Round(centsExp),
		BrokerFees:      m.Params.BrokerFee.Round(centsExp),
		OtherFees:       rate.AdditionalFees.Round(centsExp),
	}
	out.TotalLandedCost = out.ComponentSum()

	if p.SellingPrice != nil && p.SellingPrice.GreaterThan(decimal.Zero) {
		price := *p.SellingPrice
		margin := price.Sub(out.TotalLandedCost).Div(price).Mul(hundred).Round(centsExp)
		out.SellingPrice = &price
		out.ProfitMargin = &margin
	}
	return out, nil
}

// ComputeLandedCost is Compute on a throwaway model.
func ComputeLandedCost(p Product, rate RateQuote, shipping *ShippingOption, params Params) (LandedCostBreakdown, error) {
	return Model{Params: params}.Compute(p, rate, shipping)
}

func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred).Round(centsExp)
}

func outOfRange(pct decimal.Decimal) bool {
	return pct.IsNegative() || pct.GreaterThan(hundred)
}

func validate(p Product, rate RateQuote) error {
	if p.Value.IsNegative() {
		return apperr.Invalid("value", "product %s has negative value %s", p.ID, p.Value)
	}
	if p.WeightKg.IsNegative() {
		return apperr.Invalid("weight_kg", "product %s has negative weight %s", p.ID, p.WeightKg)
	}
	d := p.Dimensions
	if d.LengthCm.IsNegative() || d.WidthCm.IsNegative() || d.HeightCm.IsNegative() {
		return apperr.Invalid("dimensions", "product %s has negative dimensions", p.ID)
	}
	if outOfRange(rate.DutyPercent) {
		return apperr.Invalid("duty_percent", "%s outside [0, 100]", rate.DutyPercent)
	}
	if outOfRange(rate.VATPercent) {
		return apperr.Invalid("vat_percent", "%s outside [0, 100]", rate.VATPercent)
	}
	if rate.AdditionalFees.IsNegative() {
		return apperr.Invalid("additional_fees", "negative fees %s", rate.AdditionalFees)
	}
	return nil
}
