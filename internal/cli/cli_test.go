package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landedcost/internal/jobs"
)

func TestClientUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/jobs":
			var req jobs.SubmitRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 0, "message": "ok",
				"data": map[string]any{"id": "j1", "type": req.Type, "status": "pending", "priority": req.Priority},
			})
		case r.URL.Path == "/api/v1/jobs":
			assert.Equal(t, "pending,paused", r.URL.Query().Get("status"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 0, "message": "ok",
				"data": []map[string]any{{"id": "j1", "status": "pending"}},
				"meta": map[string]any{"total": 12},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 404, "message": "job j9 not found", "meta": map[string]any{"error_code": "not_found"},
			})
		}
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL + "/", Token: "tok"}
	ctx := context.Background()

	job, err := c.SubmitJob(ctx, jobs.SubmitRequest{Type: jobs.TypeSavingsAnalysis, Priority: "high", Parameters: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, "high", job.Priority)

	items, total, err := c.ListJobs(ctx, ListJobsOptions{Statuses: []string{"pending", "paused"}})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 12, total)

	_, err = c.GetJob(ctx, "j9")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "not_found", apiErr.Code)

	_, err = c.ControlJob(ctx, "j1", "explode")
	assert.Error(t, err)
}

func TestClientDoesNotRetryServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code":502,"message":"upstream"}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Retries: 3, HTTP: &http.Client{Timeout: time.Second}}
	_, err := c.GetJob(context.Background(), "j1")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestWriteFormats(t *testing.T) {
	job := Job{ID: "j1", Type: "savings_analysis", Status: "running", Priority: "high", Progress: 40, MaxRetries: 3}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, Rows([]Job{job})))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "40%")

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, job))
	assert.Contains(t, buf.String(), "status: running")

	buf.Reset()
	require.NoError(t, Write(&buf, FormatJSON, job))
	assert.Contains(t, buf.String(), `"status": "running"`)

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestAnalyzeLocal(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return p
	}
	in := AnalyzeInput{
		RatesPath: write("rates.yaml", `
rates:
  - {hs_code: "8471", origin: CN, destination: US, duty_percent: "12", confidence: 0.9}
  - {hs_code: "8471", origin: MX, destination: US, duty_percent: "12", trade_agreement: USMCA, preferential_duty_percent: "0", confidence: 0.8}
`),
		ProductsPath: write("products.yaml", `
products:
  - {id: p1, value: "1000", hs_code: "8471", origin_country: CN, destination_country: US, annual_volume: 100}
  - {id: p1, value: "5", hs_code: "8471", origin_country: CN, destination_country: US}
`),
		ScenarioPath: write("scenario.yaml", `
configuration:
  variations: {origin: true, origin_countries: [MX], trade_agreements: true}
  max_scenarios: 10
`),
	}
	res, err := AnalyzeLocal(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalProducts)
	require.Len(t, res.Results, 1)
	assert.True(t, res.TotalSavings.IsPositive())
}
