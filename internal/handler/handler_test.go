package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landedcost/internal/jobs"
	"landedcost/internal/models"
	"landedcost/internal/recommendation"
	memdbrepository "landedcost/internal/repository/memdb"
	"landedcost/internal/service"
)

type testServer struct {
	router *gin.Engine
	store  *memdbrepository.Store
	sched  *jobs.Scheduler
}

func newTestServer(t *testing.T, token string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := memdbrepository.New()
	require.NoError(t, err)
	// not started: submitted jobs stay pending
	sched := jobs.New(store, jobs.Options{MaxConcurrent: 1, Metrics: jobs.NewMetrics(nil)})
	sched.Register(jobs.TypeSavingsAnalysis, func(ctx context.Context, exec *jobs.Execution) (any, error) {
		return map[string]bool{"ok": true}, nil
	})
	settings := &service.SystemSettingsService{Repo: store, Scheduler: sched}

	r := gin.New()
	r.Use(RequireBearer(token))
	(&HealthHandler{}).Register(r)
	(&JobHandler{Scheduler: sched, Repo: store}).Register(r)
	(&ProductHandler{Repo: store}).Register(r)
	(&RecommendationHandler{Repo: store, Manager: &recommendation.Manager{Repo: store}}).Register(r)
	(&SettingsHandler{Repo: store, Settings: settings}).Register(r)
	return &testServer{router: r, store: store, sched: sched}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, header ...string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func savingsBody(priority string) map[string]any {
	return map[string]any{
		"type":     jobs.TypeSavingsAnalysis,
		"priority": priority,
		"parameters": map[string]any{
			"workspace_id":  "w1",
			"product_ids":   []string{"p1"},
			"configuration": map[string]any{"max_scenarios": 5},
		},
	}
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, "")

	code, env := s.do(t, http.MethodPost, "/api/v1/jobs", savingsBody("high"))
	require.Equal(t, http.StatusOK, code, env.Message)
	var job struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Priority string `json:"priority"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, jobs.StatusPending, job.Status)
	assert.Equal(t, jobs.PriorityHigh, job.Priority)

	code, _ = s.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/jobs?status=pending,running", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, env.Meta["total"])

	code, env = s.do(t, http.MethodGet, "/api/v1/jobs/"+job.ID+"/result", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "state_conflict", env.Meta["error_code"])

	code, _ = s.do(t, http.MethodPost, "/api/v1/jobs/"+job.ID+"/cancel", nil)
	assert.Equal(t, http.StatusOK, code)
	code, env = s.do(t, http.MethodPost, "/api/v1/jobs/"+job.ID+"/pause", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "state_conflict", env.Meta["error_code"])

	// only dead-lettered jobs can be rerun
	code, _ = s.do(t, http.MethodPost, "/api/v1/jobs/"+job.ID+"/rerun", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestSubmitRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, "")

	code, env := s.do(t, http.MethodPost, "/api/v1/jobs", savingsBody("whenever"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", env.Meta["error_code"])

	body := savingsBody("low")
	body["type"] = "unknown"
	code, _ = s.do(t, http.MethodPost, "/api/v1/jobs", body)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", env.Meta["error_code"])
}

func TestBearerTokenGuardsAPI(t *testing.T) {
	s := newTestServer(t, "s3cret")

	code, _ := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/jobs", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(t, http.MethodGet, "/api/v1/jobs", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(t, http.MethodGet, "/api/v1/jobs", nil, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, code)
}

func TestProductUpsertValidates(t *testing.T) {
	s := newTestServer(t, "")
	good := map[string]any{
		"id": "p1", "workspace_id": "w1", "value": "10", "weight_kg": "1",
		"hs_code": "8471", "origin_country": "CN", "destination_country": "US", "annual_volume": 10,
	}
	code, env := s.do(t, http.MethodPut, "/api/v1/products", map[string]any{"products": []any{good}})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = s.do(t, http.MethodGet, "/api/v1/products/p1", nil)
	assert.Equal(t, http.StatusOK, code)

	bad := map[string]any{}
	for k, v := range good {
		bad[k] = v
	}
	bad["value"] = "-1"
	code, env = s.do(t, http.MethodPut, "/api/v1/products", map[string]any{"products": []any{bad}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", env.Meta["error_code"])

	code, _ = s.do(t, http.MethodGet, "/api/v1/products/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSettingsResizeScheduler(t *testing.T) {
	s := newTestServer(t, "")
	code, env := s.do(t, http.MethodPut, "/api/v1/settings/"+service.SettingMaxConcurrent, map[string]any{"value": 3})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, 3, s.sched.Stats().MaxConcurrent)

	code, _ = s.do(t, http.MethodPut, "/api/v1/settings/"+service.SettingMaxConcurrent, map[string]any{"value": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 3, s.sched.Stats().MaxConcurrent)

	code, _ = s.do(t, http.MethodGet, "/api/v1/settings/"+service.SettingMaxConcurrent, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRecommendationStatusTransitions(t *testing.T) {
	s := newTestServer(t, "")
	now := time.Now().UTC()
	require.NoError(t, s.store.InsertRecommendations(context.Background(), []models.OptimizationRecommendation{{
		ID:                 "r1",
		WorkspaceID:        "w1",
		RecommendationType: "origin",
		Title:              "Move sourcing",
		ImpactAnalysis:     []byte(`{}`),
		Priority:           recommendation.PriorityHigh,
		Status:             recommendation.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}}))

	path := "/api/v1/recommendations/r1/status"
	code, _ := s.do(t, http.MethodPost, path, map[string]string{"status": "implemented"})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = s.do(t, http.MethodPost, path, map[string]string{"status": "accepted"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodPost, path, map[string]string{"status": "implemented"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodPost, path, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(t, http.MethodGet, "/api/v1/recommendations?workspace_id=w1&status=implemented", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, env.Meta["total"])
}
