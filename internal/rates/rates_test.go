package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"landedcost/internal/apperr"
	"landedcost/internal/costmodel"
)

func TestStaticLookupFallbacks(t *testing.T) {
	p := NewStaticProvider(
		costmodel.RateQuote{HSCode: "8471.30", Origin: "CN", Destination: "US", DutyPercent: decimal.NewFromInt(25)},
		costmodel.RateQuote{HSCode: "8471", Origin: "*", Destination: "US", DutyPercent: decimal.NewFromInt(2), Confidence: 0.7},
	)
	ctx := context.Background()

	q, err := p.LookupRate(ctx, "847130", "cn", "us")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !q.DutyPercent.Equal(decimal.NewFromInt(25)) || q.Confidence != 1 {
		t.Fatalf("quote=%+v", q)
	}

	q, err = p.LookupRate(ctx, "8471.30.10", "VN", "US")
	if err != nil {
		t.Fatalf("heading fallback: %v", err)
	}
	if !q.DutyPercent.Equal(decimal.NewFromInt(2)) || q.Origin != "VN" {
		t.Fatalf("quote=%+v", q)
	}

	_, err = p.LookupRate(ctx, "9403", "VN", "US")
	if apperr.CodeOf(err) != apperr.CodeRateNotFound {
		t.Fatalf("err=%v want rate_not_found", err)
	}
}

func TestLoadStaticFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.yaml")
	doc := `rates:
  - hs_code: "6109.10"
    origin: VN
    destination: US
    duty_percent: "16.5"
    vat_percent: "0"
    trade_agreement: ""
    confidence: 0.9
  - hs_code: "6109.10"
    origin: MX
    destination: US
    duty_percent: "16.5"
    trade_agreement: USMCA
    preferential_duty_percent: "0"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := LoadStaticFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("len=%d want=2", p.Len())
	}
	q, err := p.LookupRate(context.Background(), "6109.10", "MX", "US")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !q.Eligible() || !q.WithPreferential().DutyPercent.IsZero() {
		t.Fatalf("quote=%+v want eligible USMCA at 0%%", q)
	}
}

func TestHTTPProviderStatusMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("hs_code") {
		case "missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"no such heading"}`))
		case "down":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		default:
			if r.Header.Get("Authorization") != "Bearer k" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"duty_percent":"4.5","vat_percent":"20","confidence":0.95}`))
		}
	}))
	defer srv.Close()

	p := &HTTPProvider{BaseURL: srv.URL, APIKey: "k"}
	ctx := context.Background()

	q, err := p.LookupRate(ctx, "8471", "CN", "GB")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !q.DutyPercent.Equal(decimal.RequireFromString("4.5")) || q.HSCode != "8471" || q.Source != "http" {
		t.Fatalf("quote=%+v", q)
	}

	if _, err := p.LookupRate(ctx, "missing", "CN", "GB"); apperr.CodeOf(err) != apperr.CodeRateNotFound {
		t.Fatalf("404 err=%v", err)
	}
	if _, err := p.LookupRate(ctx, "down", "CN", "GB"); apperr.CodeOf(err) != apperr.CodeProviderUnavailable {
		t.Fatalf("503 err=%v", err)
	}

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := p.LookupRate(short, "slow", "CN", "GB"); apperr.CodeOf(err) != apperr.CodeProviderUnavailable {
		t.Fatalf("timeout err=%v", err)
	}
}

func TestCachedProviderCachesSuccessOnly(t *testing.T) {
	var calls atomic.Int32
	inner := ProviderFunc(func(ctx context.Context, hs, origin, dest string) (costmodel.RateQuote, error) {
		calls.Add(1)
		if hs == "none" {
			return costmodel.RateQuote{}, &apperr.RateLookupError{HSCode: hs}
		}
		return costmodel.RateQuote{HSCode: hs, DutyPercent: decimal.NewFromInt(3), Confidence: 0.8}, nil
	})
	p := &CachedProvider{Provider: inner, Cache: NewMemoryCache(time.Minute), TTL: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		q, err := p.LookupRate(ctx, "1234", "CN", "US")
		if err != nil || !q.DutyPercent.Equal(decimal.NewFromInt(3)) {
			t.Fatalf("q=%+v err=%v", q, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("calls=%d want=1", calls.Load())
	}
	for i := 0; i < 2; i++ {
		_, _ = p.LookupRate(ctx, "none", "CN", "US")
	}
	if calls.Load() != 3 {
		t.Fatalf("calls=%d want=3", calls.Load())
	}
}
