package rates

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"landedcost/internal/apperr"
	"landedcost/internal/costmodel"
)

const anyOrigin = "*"

// StaticProvider answers from an in-process table. Lookups fall back from the full HS code to shorter
// headings (down to four digits), then to the "*" origin.
type StaticProvider struct {
	mu    sync.RWMutex
	table map[string]costmodel.RateQuote
}

type staticFile struct {
	Rates []costmodel.RateQuote `yaml:"rates"`
}

func NewStaticProvider(quotes ...costmodel.RateQuote) *StaticProvider {
	p := &StaticProvider{table: map[string]costmodel.RateQuote{}}
	for _, q := range quotes {
		p.Put(q)
	}
	return p
}

// LoadStaticFile reads a YAML document of the form `rates: [{hs_code, origin, destination, ...}]`.
func LoadStaticFile(path string) (*StaticProvider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read rates file %s", path)
	}
	var f staticFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrapf(err, "parse rates file %s", path)
	}
	return NewStaticProvider(f.Rates...), nil
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) Put(q costmodel.RateQuote) {
	if q.Confidence == 0 {
		q.Confidence = 1
	}
	if q.Source == "" {
		q.Source = p.Name()
	}
	p.mu.Lock()
	p.table[Key(q.HSCode, q.Origin, q.Destination)] = q
	p.mu.Unlock()
}

func (p *StaticProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.table)
}

func (p *StaticProvider) LookupRate(ctx context.Context, hsCode, origin, destination string) (costmodel.RateQuote, error) {
	if err := ctx.Err(); err != nil {
		return costmodel.RateQuote{}, errors.WithStack(&apperr.ProviderUnavailableError{Provider: p.Name(), Cause: err})
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	hs := NormalizeHS(hsCode)
	for _, o := range []string{origin, anyOrigin} {
		for n := len(hs); ; n-- {
			q, ok := p.table[Key(hs[:n], o, destination)]
			if ok {
				q.HSCode = hsCode
				q.Origin = origin
				q.Destination = destination
				return q, nil
			}
			if n <= 4 {
				break
			}
		}
	}
	return costmodel.RateQuote{}, errors.WithStack(&apperr.RateLookupError{HSCode: hsCode, Origin: origin, Destination: destination})
}
