package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"landedcost/internal/apperr"
	"landedcost/internal/costmodel"
)

// HTTPProvider calls GET {BaseURL}/v1/rates?hs_code=&origin=&destination=.
type HTTPProvider struct {
	BaseURL string
	APIKey  string

	HTTP *http.Client
}

type errorResponse struct {
	Error string `json:"error"`
}

func (p *HTTPProvider) Name() string { return "http" }

func (p *HTTPProvider) httpClient() *http.Client {
	if p.HTTP != nil {
		return p.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (p *HTTPProvider) newRequest(ctx context.Context, hsCode, origin, destination string) (*http.Request, error) {
	if strings.TrimSpace(p.BaseURL) == "" {
		return nil, errors.New("rates base url is empty")
	}
	q := url.Values{}
	q.Set("hs_code", hsCode)
	q.Set("origin", origin)
	q.Set("destination", destination)
	u := strings.TrimRight(p.BaseURL, "/") + "/v1/rates?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if strings.TrimSpace(p.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(p.APIKey))
	}
	return req, nil
}

func (p *HTTPProvider) LookupRate(ctx context.Context, hsCode, origin, destination string) (costmodel.RateQuote, error) {
	req, err := p.newRequest(ctx, hsCode, origin, destination)
	if err != nil {
		return costmodel.RateQuote{}, err
	}
	unavailable := func(cause error) error {
		return errors.WithStack(&apperr.ProviderUnavailableError{Provider: p.Name(), Cause: cause})
	}

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return costmodel.RateQuote{}, unavailable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return costmodel.RateQuote{}, unavailable(err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		var er errorResponse
		_ = json.Unmarshal(b, &er)
		return costmodel.RateQuote{}, errors.WithStack(&apperr.RateLookupError{
			HSCode: hsCode, Origin: origin, Destination: destination, Message: strings.TrimSpace(er.Error),
		})
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return costmodel.RateQuote{}, unavailable(fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return costmodel.RateQuote{}, errors.Errorf("rates http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var quote costmodel.RateQuote
	if err := json.Unmarshal(b, &quote); err != nil {
		return costmodel.RateQuote{}, errors.Wrap(err, "decode rate quote")
	}
	if quote.HSCode == "" {
		quote.HSCode = hsCode
	}
	if quote.Origin == "" {
		quote.Origin = origin
	}
	if quote.Destination == "" {
		quote.Destination = destination
	}
	quote.Source = p.Name()
	return quote, nil
}
