package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"landedcost/internal/config"
	"landedcost/internal/costmodel"
	"landedcost/internal/rates"
	"landedcost/internal/recommendation"
	"landedcost/internal/repository"
	"landedcost/internal/savings"
	"landedcost/internal/scenario"
)

// CostParams turns the cost_model section into calculator parameters.
func CostParams(cfg config.CostModelConfig) costmodel.Params {
	p := costmodel.Params{
		Currency:          strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		ShippingRates:     map[string]costmodel.ShippingOption{},
		InsurancePercent:  decimal.NewFromFloat(cfg.InsurancePct),
		BrokerFee:         decimal.NewFromFloat(cfg.BrokerFee),
		FulfillmentFees:   map[string]decimal.Decimal{},
		VolumetricDivisor: decimal.NewFromFloat(cfg.VolumetricDivisor),
	}
	for method, r := range cfg.ShippingRates {
		key := strings.ToLower(strings.TrimSpace(method))
		p.ShippingRates[key] = costmodel.ShippingOption{
			Method:      key,
			BaseCost:    decimal.NewFromFloat(r.Base),
			PerKg:       decimal.NewFromFloat(r.PerKg),
			TransitDays: r.TransitDays,
		}
	}
	if def, ok := p.ShippingRates[strings.ToLower(strings.TrimSpace(cfg.DefaultShippingMethod))]; ok {
		p.DefaultShipping = def
	}
	for method, fee := range cfg.FulfillmentFees {
		p.FulfillmentFees[strings.ToLower(strings.TrimSpace(method))] = decimal.NewFromFloat(fee)
	}
	return p
}

// NewEngine assembles a savings engine from configuration.
func NewEngine(cfg config.Config, provider rates.Provider, products savings.ProductSource, logger *zap.Logger) *savings.Engine {
	params := CostParams(cfg.CostModel)
	hints := map[scenario.Axis]decimal.Decimal{}
	for axis, pct := range cfg.Analysis.AxisSavingHints {
		hints[scenario.Axis(strings.ToLower(axis))] = decimal.NewFromFloat(pct)
	}
	return &savings.Engine{
		Rates:    provider,
		Products: products,
		Builder:  scenario.Builder{Params: params, SavingHints: hints},
		Model:    costmodel.Model{Params: params},
		Catalog:  savings.DefaultCatalog,
		Options: savings.Options{
			LookupTimeout:           cfg.Analysis.LookupTimeout,
			LookupRetries:           cfg.Rates.LookupRetries,
			RetryDelay:              cfg.Rates.RetryDelay,
			QuickWinConfidence:      cfg.Analysis.QuickWinConfidence,
			HighImpactAnnualSavings: decimal.NewFromFloat(cfg.Analysis.HighImpactAnnualSavings),
			LongTermMinPct:          decimal.NewFromFloat(cfg.Analysis.LongTermMinPct),
		},
		Logger: logger,
	}
}

// NewGenerator builds the recommendation generator from the recommendations section.
func NewGenerator(cfg config.RecommendationsConfig) recommendation.Generator {
	return recommendation.Generator{
		MaterialityThreshold:  decimal.NewFromFloat(cfg.MaterialityThreshold),
		HighPriorityThreshold: decimal.NewFromFloat(cfg.HighPriorityThreshold),
	}
}

// RepoProducts serves the engine from the product table.
type RepoProducts struct {
	Repo repository.ProductRepository
}

func (p RepoProducts) GetProducts(ctx context.Context, ids []string) ([]costmodel.Product, error) {
	if p.Repo == nil {
		return nil, nil
	}
	items, err := p.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]costmodel.Product, 0, len(items))
	for _, item := range items {
		out = append(out, item.CostModel())
	}
	return out, nil
}
