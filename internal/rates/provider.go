// Package rates holds the clients of the external duty-rate and classification provider.
//
// Every provider fails with *apperr.RateLookupError when it has no rate for a key and with
// *apperr.ProviderUnavailableError when it could not answer at all. Callers rely on that split to tell
// permanent per-product failures from transient ones.
package rates

import (
	"context"
	"strings"

	"landedcost/internal/costmodel"
)

type Provider interface {
	Name() string
	LookupRate(ctx context.Context, hsCode, origin, destination string) (costmodel.RateQuote, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, hsCode, origin, destination string) (costmodel.RateQuote, error)

func (f ProviderFunc) Name() string { return "func" }

func (f ProviderFunc) LookupRate(ctx context.Context, hsCode, origin, destination string) (costmodel.RateQuote, error) {
	return f(ctx, hsCode, origin, destination)
}

// Key is the canonical cache and table key of a lookup.
func Key(hsCode, origin, destination string) string {
	return NormalizeHS(hsCode) + "|" + normalizeCountry(origin) + "|" + normalizeCountry(destination)
}

// NormalizeHS strips separators so "8471.30" and "847130" match.
func NormalizeHS(code string) string {
	code = strings.TrimSpace(code)
	code = strings.NewReplacer(".", "", " ", "", "-", "").Replace(code)
	return code
}

func normalizeCountry(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
