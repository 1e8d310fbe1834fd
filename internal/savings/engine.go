package savings

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/avast/retry-go"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"landedcost/internal/apperr"
	"landedcost/internal/costmodel"
	"landedcost/internal/rates"
	"landedcost/internal/scenario"
)

// ProductSource resolves product ids. Ids it does not know are simply absent from the result.
type ProductSource interface {
	GetProducts(ctx context.Context, ids []string) ([]costmodel.Product, error)
}

type Options struct {
	LookupTimeout time.Duration
	LookupRetries uint
	RetryDelay    time.Duration

	QuickWinConfidence      float64
	HighImpactAnnualSavings decimal.Decimal
	LongTermMinPct          decimal.Decimal
}

// RunOptions let a caller resume a batch and observe it product by product.
type RunOptions struct {
	// Completed holds outcomes from an earlier, interrupted run, keyed by product id. Transient failures in it
	// are analyzed again.
	Completed map[string]Outcome
	// After is called once per newly analyzed product. A non-nil error stops the batch before the next
	// product and is returned from the run unchanged.
	After func(done int, o Outcome) error
}

type Engine struct {
	Rates    rates.Provider
	Products ProductSource
	Builder  scenario.Builder
	Model    costmodel.Model
	Catalog  Catalog
	Options  Options
	Logger   *zap.Logger
}

// AnalyzeBatchSavings loads the products and runs AnalyzeBatch. Unknown ids become not_found failures.
func (e *Engine) AnalyzeBatchSavings(ctx context.Context, productIDs []string, cfg scenario.Configuration, opts RunOptions) (*BatchSavingsAnalysis, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(productIDs) == 0 {
		return nil, apperr.Invalid("product_ids", "at least one product id is required")
	}
	if e.Products == nil {
		return nil, errors.New("savings engine has no product source")
	}
	found, err := e.Products.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	byID := make(map[string]costmodel.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	products := make([]costmodel.Product, 0, len(productIDs))
	missing := map[string]bool{}
	for _, id := range productIDs {
		if p, ok := byID[id]; ok {
			products = append(products, p)
			continue
		}
		missing[id] = true
		products = append(products, costmodel.Product{ID: id})
	}
	return e.run(ctx, products, cfg, opts, missing)
}

// AnalyzeBatch evaluates every product in order. Per-product failures are recorded in the result; only a
// bad configuration, a provider that failed for every product, or a stop from opts.After fail the batch.
func (e *Engine) AnalyzeBatch(ctx context.Context, products []costmodel.Product, cfg scenario.Configuration, opts RunOptions) (*BatchSavingsAnalysis, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, apperr.Invalid("products", "at least one product is required")
	}
	return e.run(ctx, products, cfg, opts, nil)
}

func (e *Engine) run(ctx context.Context, products []costmodel.Product, cfg scenario.Configuration, opts RunOptions, missing map[string]bool) (*BatchSavingsAnalysis, error) {
	if e.Rates == nil {
		return nil, errors.New("savings engine has no rate provider")
	}
	memo := map[string]lookupResult{}
	outcomes := make([]Outcome, 0, len(products))
	var failures *multierror.Error
	done := 0
	for _, p := range products {
		if prev, ok := opts.Completed[p.ID]; ok && !prev.Transient() {
			outcomes = append(outcomes, prev)
			done++
			continue
		}

		var o Outcome
		if missing[p.ID] {
			o = failed(p.ID, apperr.NotFound("product", p.ID))
		} else {
			r, err := e.analyzeProduct(ctx, p, cfg, memo)
			if err != nil && ctx.Err() != nil {
				// The whole run was cancelled; the product is not at fault.
				return nil, errors.WithStack(ctx.Err())
			}
			if err != nil {
				o = failed(p.ID, err)
			} else {
				o = Outcome{ProductID: p.ID, Result: r}
			}
		}
		if o.Failure != nil {
			failures = multierror.Append(failures, errors.Errorf("%s: %s", p.ID, o.Failure.Message))
		}
		outcomes = append(outcomes, o)
		done++

		if opts.After != nil {
			if err := opts.After(done, o); err != nil {
				return nil, err
			}
		}
	}

	if failures != nil && e.Logger != nil {
		e.Logger.Warn("products excluded from batch",
			zap.Int("failed", failures.Len()),
			zap.Int("total", len(products)),
			zap.Error(failures.ErrorOrNil()),
		)
	}
	if allUnavailable(outcomes) {
		return nil, errors.WithStack(&apperr.ProviderUnavailableError{
			Provider: e.Rates.Name(),
			Cause:    stderrors.New("rate lookups failed for every product"),
		})
	}
	return Aggregate(outcomes, e.Options), nil
}

func failed(productID string, err error) Outcome {
	return Outcome{ProductID: productID, Failure: &ProductFailure{
		ProductID: productID,
		Code:      apperr.CodeOf(err),
		Message:   err.Error(),
	}}
}

func allUnavailable(outcomes []Outcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if !o.Transient() {
			return false
		}
	}
	return true
}

type lookupResult struct {
	quote costmodel.RateQuote
	err   error
}

// lookup memoizes quotes and permanent misses for the batch. Unavailability is not memoized.
func (e *Engine) lookup(ctx context.Context, memo map[string]lookupResult, hs, origin, dest string) (costmodel.RateQuote, error) {
	key := rates.Key(hs, origin, dest)
	if r, ok := memo[key]; ok {
		return r.quote, r.err
	}

	attempts := e.Options.LookupRetries
	if attempts == 0 {
		attempts = 1
	}
	var quote costmodel.RateQuote
	err := retry.Do(
		func() error {
			callCtx := ctx
			if e.Options.LookupTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, e.Options.LookupTimeout)
				defer cancel()
			}
			q, err := e.Rates.LookupRate(callCtx, hs, origin, dest)
			if err != nil {
				if stderrors.Is(err, context.DeadlineExceeded) && apperr.CodeOf(err) != apperr.CodeProviderUnavailable {
					return errors.WithStack(&apperr.ProviderUnavailableError{Provider: e.Rates.Name(), Cause: err})
				}
				return err
			}
			quote = q
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(e.Options.RetryDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return apperr.CodeOf(err) == apperr.CodeProviderUnavailable
		}),
	)
	if err == nil || apperr.CodeOf(err) == apperr.CodeRateNotFound {
		memo[key] = lookupResult{quote: quote, err: err}
	}
	return quote, err
}

type evaluated struct {
	cand       scenario.Candidate
	breakdown  costmodel.LandedCostBreakdown
	confidence float64
	impl       implementation
}

func (e *Engine) catalog() Catalog {
	if e.Catalog != nil {
		return e.Catalog
	}
	return DefaultCatalog
}

func (e *Engine) analyzeProduct(ctx context.Context, p costmodel.Product, cfg scenario.Configuration, memo map[string]lookupResult) (*ProductScenarioResult, error) {
	baseQuote, err := e.lookup(ctx, memo, p.HSCode, p.OriginCountry, p.DestinationCountry)
	if err != nil {
		return nil, errors.Wrap(err, "baseline rate")
	}
	baseline, err := e.Model.Compute(p, baseQuote, nil)
	if err != nil {
		return nil, err
	}

	var best *evaluated
	evaluatedCount := 0
	for cand := range e.Builder.Build(p, cfg) {
		if cand.IsBaseline() {
			continue
		}
		alt := cand.Apply(p)
		quote, err := e.lookup(ctx, memo, alt.HSCode, alt.OriginCountry, alt.DestinationCountry)
		if err != nil {
			if apperr.CodeOf(err) == apperr.CodeRateNotFound {
				continue
			}
			return nil, errors.Wrapf(err, "candidate %s rate", cand.ID)
		}
		if cand.ClaimsTradeAgreement() {
			if !quote.Eligible() {
				continue
			}
			quote = quote.WithPreferential()
		}
		confidence := min(baseQuote.Confidence, quote.Confidence)
		if confidence < cfg.ConfidenceThreshold {
			continue
		}
		var shipping *costmodel.ShippingOption
		if _, ok := cand.Changed(scenario.AxisShipping); ok {
			opt := e.Model.Params.ShippingFor(alt.ShippingMethod)
			shipping = &opt
		}
		breakdown, err := e.Model.Compute(alt, quote, shipping)
		if err != nil {
			return nil, err
		}
		evaluatedCount++
		ev := &evaluated{cand: cand, breakdown: breakdown, confidence: confidence, impl: e.catalog().assess(cand)}
		if best == nil || better(ev, best, baseline) {
			best = ev
		}
	}

	volume := p.Volume()
	result := &ProductScenarioResult{
		ProductID:           p.ID,
		ScenarioID:          scenario.BaselineID,
		Baseline:            baseline,
		Optimized:           baseline,
		Confidence:          baseQuote.Confidence,
		Risk:                lowRisk(),
		Requirements:        []Requirement{},
		ImplementationCost:  decimal.Zero,
		Complexity:          ComplexityLow,
		AnnualVolume:        volume.IntPart(),
		CandidatesEvaluated: evaluatedCount,
	}
	if best != nil && saving(baseline, best.breakdown).IsPositive() {
		result.ScenarioID = best.cand.ID
		result.Changes = best.cand.Changes
		result.PrimaryAxis = e.catalog().primaryAxis(best.cand)
		result.Optimized = best.breakdown
		result.Confidence = best.confidence
		result.Risk = best.impl.risk
		result.Requirements = best.impl.requirements
		result.ImplementationCost = best.impl.cost
		result.Complexity = best.impl.complexity
		result.TimeToImplementDays = best.impl.days
	}
	result.Savings = ComputeSavings(result.Baseline, result.Optimized, volume, result.ImplementationCost, cfg.TimeHorizonMonths)
	return result, nil
}

func saving(baseline, optimized costmodel.LandedCostBreakdown) decimal.Decimal {
	return baseline.TotalLandedCost.Sub(optimized.TotalLandedCost)
}

// better orders candidates by savings, then confidence, then lower complexity. Earlier candidates win
// full ties.
func better(a, b *evaluated, baseline costmodel.LandedCostBreakdown) bool {
	sa, sb := saving(baseline, a.breakdown), saving(baseline, b.breakdown)
	if !sa.Equal(sb) {
		return sa.GreaterThan(sb)
	}
	if a.confidence != b.confidence {
		return a.confidence > b.confidence
	}
	return a.impl.complexity.rank() < b.impl.complexity.rank()
}
