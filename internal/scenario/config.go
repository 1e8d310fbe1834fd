// Package scenario describes the variation space of an analysis run and expands it into candidate scenarios.
package scenario

import (
	"strings"

	"github.com/shopspring/decimal"

	"landedcost/internal/apperr"
)

type Axis string

const (
	AxisShipping       Axis = "shipping"
	AxisOrigin         Axis = "origin"
	AxisClassification Axis = "classification"
	AxisTradeAgreement Axis = "trade_agreement"
	AxisFulfillment    Axis = "fulfillment"
)

// Axes lists every variation axis in its canonical order.
var Axes = []Axis{AxisShipping, AxisOrigin, AxisClassification, AxisTradeAgreement, AxisFulfillment}

type Depth string

const (
	DepthBasic         Depth = "basic"
	DepthComprehensive Depth = "comprehensive"
	DepthExhaustive    Depth = "exhaustive"
)

// Variations are the per-axis toggles and the alternative values to try on each axis.
// Classification alternatives come from the product itself; trade agreements are claimed, not listed.
type Variations struct {
	Shipping           bool     `json:"shipping" yaml:"shipping"`
	ShippingMethods    []string `json:"shipping_methods,omitempty" yaml:"shipping_methods"`
	Origin             bool     `json:"origin" yaml:"origin"`
	OriginCountries    []string `json:"origin_countries,omitempty" yaml:"origin_countries"`
	Classification     bool     `json:"classification" yaml:"classification"`
	TradeAgreements    bool     `json:"trade_agreements" yaml:"trade_agreements"`
	Fulfillment        bool     `json:"fulfillment" yaml:"fulfillment"`
	FulfillmentMethods []string `json:"fulfillment_methods,omitempty" yaml:"fulfillment_methods"`
}

// Configuration is fixed for the lifetime of a run. Callers pass it by value.
type Configuration struct {
	Variations          Variations      `json:"variations" yaml:"variations"`
	TimeHorizonMonths   int             `json:"time_horizon_months" yaml:"time_horizon_months"`
	ConfidenceThreshold float64         `json:"confidence_threshold" yaml:"confidence_threshold"`
	MinSavingThreshold  decimal.Decimal `json:"min_saving_threshold" yaml:"min_saving_threshold"`
	MaxScenarios        int             `json:"max_scenarios" yaml:"max_scenarios"`
	AnalysisDepth       Depth           `json:"analysis_depth" yaml:"analysis_depth"`
}

// WithDefaults fills the zero-valued optional fields.
func (c Configuration) WithDefaults() Configuration {
	if c.TimeHorizonMonths == 0 {
		c.TimeHorizonMonths = 12
	}
	if c.AnalysisDepth == "" {
		c.AnalysisDepth = DepthComprehensive
	}
	c.AnalysisDepth = Depth(strings.ToLower(string(c.AnalysisDepth)))
	return c
}

func (c Configuration) Validate() error {
	if c.MaxScenarios <= 0 {
		return apperr.Invalid("max_scenarios", "must be > 0, got %d", c.MaxScenarios)
	}
	if c.TimeHorizonMonths < 0 {
		return apperr.Invalid("time_horizon_months", "must be >= 0, got %d", c.TimeHorizonMonths)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return apperr.Invalid("confidence_threshold", "must be within [0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.MinSavingThreshold.IsNegative() {
		return apperr.Invalid("min_saving_threshold", "must be >= 0, got %s", c.MinSavingThreshold)
	}
	switch c.AnalysisDepth {
	case DepthBasic, DepthComprehensive, DepthExhaustive, "":
	default:
		return apperr.Invalid("analysis_depth", "unknown depth %q", c.AnalysisDepth)
	}
	v := c.Variations
	if v.Shipping && len(v.ShippingMethods) == 0 {
		return apperr.Invalid("variations.shipping_methods", "required when shipping variation is enabled")
	}
	if v.Origin && len(v.OriginCountries) == 0 {
		return apperr.Invalid("variations.origin_countries", "required when origin variation is enabled")
	}
	if v.Fulfillment && len(v.FulfillmentMethods) == 0 {
		return apperr.Invalid("variations.fulfillment_methods", "required when fulfillment variation is enabled")
	}
	return nil
}

// MaxChangedAxes is how many axes one candidate may change at this depth.
func (d Depth) MaxChangedAxes(enabled int) int {
	switch d {
	case DepthBasic:
		return min(1, enabled)
	case DepthExhaustive:
		return enabled
	default:
		return min(2, enabled)
	}
}
