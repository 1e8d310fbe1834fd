package scenario

import (
	"iter"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"landedcost/internal/costmodel"
)

const BaselineID = "baseline"

// Change is one axis moved away from the product's current value.
type Change struct {
	Axis Axis   `json:"axis"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Candidate is one concrete alternative to evaluate against the baseline.
type Candidate struct {
	ID              string          `json:"id"`
	Changes         []Change        `json:"changes"`
	EstimatedSaving decimal.Decimal `json:"estimated_saving"`
}

func (c Candidate) IsBaseline() bool {
	return len(c.Changes) == 0
}

// Changed returns the new value for axis, if the candidate changes it.
func (c Candidate) Changed(axis Axis) (string, bool) {
	for _, ch := range c.Changes {
		if ch.Axis == axis {
			return ch.To, true
		}
	}
	return "", false
}

// ClaimsTradeAgreement reports whether the preferential rate should be used.
func (c Candidate) ClaimsTradeAgreement() bool {
	_, ok := c.Changed(AxisTradeAgreement)
	return ok
}

// Apply returns the product as it would look under this candidate.
func (c Candidate) Apply(p costmodel.Product) costmodel.Product {
	out := p
	for _, ch := range c.Changes {
		switch ch.Axis {
		case AxisShipping:
			out.ShippingMethod = ch.To
		case AxisOrigin:
			out.OriginCountry = ch.To
		case AxisClassification:
			out.HSCode = ch.To
		case AxisFulfillment:
			out.FulfillmentMethod = ch.To
		}
	}
	return out
}

// Builder expands a configuration into candidates. Estimates are rough: a configured percentage of the
// product value per rate-driven axis plus table deltas for shipping and fulfillment.
type Builder struct {
	Params costmodel.Params
	// SavingHints maps an axis to the estimated saving as a percentage of product value.
	SavingHints map[Axis]decimal.Decimal
}

type axisOptions struct {
	axis    Axis
	current string
	values  []string
}

const claimValue = "claim"

func (b Builder) options(p costmodel.Product, v Variations) []axisOptions {
	var out []axisOptions
	add := func(axis Axis, enabled bool, current string, candidates []string) {
		if !enabled {
			return
		}
		values := distinctExcluding(candidates, current)
		if len(values) == 0 {
			return
		}
		out = append(out, axisOptions{axis: axis, current: current, values: values})
	}
	add(AxisShipping, v.Shipping, p.ShippingMethod, v.ShippingMethods)
	add(AxisOrigin, v.Origin, p.OriginCountry, v.OriginCountries)
	add(AxisClassification, v.Classification, p.HSCode, p.AlternativeHSCodes)
	add(AxisTradeAgreement, v.TradeAgreements, "", []string{claimValue})
	add(AxisFulfillment, v.Fulfillment, p.FulfillmentMethod, v.FulfillmentMethods)

	// Fewer alternatives first; the canonical axis order breaks ties.
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].values) < len(out[j].values)
	})
	return out
}

// Build lazily yields at most cfg.MaxScenarios candidates for p. Candidates that change fewer axes come
// first; within one level, axis combinations with fewer alternatives come first. When no axis is enabled
// the baseline is the only candidate.
func (b Builder) Build(p costmodel.Product, cfg Configuration) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		if cfg.MaxScenarios <= 0 {
			return
		}
		opts := b.options(p, cfg.Variations)
		if len(opts) == 0 {
			yield(Candidate{ID: BaselineID})
			return
		}

		kept := 0
		maxK := cfg.AnalysisDepth.MaxChangedAxes(len(opts))
		for k := 1; k <= maxK; k++ {
			for _, combo := range rankedCombinations(opts, k) {
				stop := false
				product(combo, func(changes []Change) bool {
					c := Candidate{Changes: changes}
					c.EstimatedSaving = b.estimate(p, c)
					if c.EstimatedSaving.LessThan(cfg.MinSavingThreshold) {
						return true
					}
					c.ID = candidateID(changes)
					if !yield(c) {
						stop = true
						return false
					}
					kept++
					if kept >= cfg.MaxScenarios {
						stop = true
						return false
					}
					return true
				})
				if stop {
					return
				}
			}
		}
	}
}

// Collect drains Build into a slice.
func (b Builder) Collect(p costmodel.Product, cfg Configuration) []Candidate {
	var out []Candidate
	for c := range b.Build(p, cfg) {
		out = append(out, c)
	}
	return out
}

func (b Builder) estimate(p costmodel.Product, c Candidate) decimal.Decimal {
	total := decimal.Zero
	hundred := decimal.NewFromInt(100)
	model := costmodel.Model{Params: b.Params}
	for _, ch := range c.Changes {
		switch ch.Axis {
		case AxisShipping:
			weight := model.ChargeableWeight(p)
			cur := b.Params.ShippingFor(ch.From)
			alt := b.Params.ShippingFor(ch.To)
			total = total.Add(shippingCost(cur, weight).Sub(shippingCost(alt, weight)))
		case AxisFulfillment:
			total = total.Add(b.Params.FulfillmentFee(ch.From).Sub(b.Params.FulfillmentFee(ch.To)))
		default:
			if pct, ok := b.SavingHints[ch.Axis]; ok {
				total = total.Add(p.Value.Mul(pct).Div(hundred))
			}
		}
	}
	return total.Round(2)
}

func shippingCost(opt costmodel.ShippingOption, weight decimal.Decimal) decimal.Decimal {
	return opt.BaseCost.Add(opt.PerKg.Mul(weight))
}

func rankedCombinations(opts []axisOptions, k int) [][]axisOptions {
	var out [][]axisOptions
	idx := make([]int, k)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == k {
			combo := make([]axisOptions, k)
			for i, j := range idx {
				combo[i] = opts[j]
			}
			out = append(out, combo)
			return
		}
		for i := start; i < len(opts); i++ {
			idx[depth] = i
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	sort.SliceStable(out, func(i, j int) bool {
		return comboSize(out[i]) < comboSize(out[j])
	})
	return out
}

func comboSize(combo []axisOptions) int {
	n := 1
	for _, o := range combo {
		n *= len(o.values)
	}
	return n
}

// product walks the cartesian product of the combo's values in odometer order until fn returns false.
func product(combo []axisOptions, fn func([]Change) bool) {
	pos := make([]int, len(combo))
	for {
		changes := make([]Change, len(combo))
		for i, o := range combo {
			changes[i] = Change{Axis: o.axis, From: o.current, To: o.values[pos[i]]}
		}
		sort.Slice(changes, func(i, j int) bool { return axisRank(changes[i].Axis) < axisRank(changes[j].Axis) })
		if !fn(changes) {
			return
		}
		i := len(pos) - 1
		for ; i >= 0; i-- {
			pos[i]++
			if pos[i] < len(combo[i].values) {
				break
			}
			pos[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

func axisRank(a Axis) int {
	for i, x := range Axes {
		if x == a {
			return i
		}
	}
	return len(Axes)
}

func candidateID(changes []Change) string {
	parts := make([]string, 0, len(changes))
	for _, ch := range changes {
		parts = append(parts, string(ch.Axis)+"="+ch.To)
	}
	return strings.Join(parts, "+")
}

func distinctExcluding(values []string, current string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, current) {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
