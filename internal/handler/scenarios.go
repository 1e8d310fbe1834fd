package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"landedcost/internal/apperr"
	"landedcost/internal/repository"
	"landedcost/internal/service"
)

type ScenarioHandler struct {
	Repo    repository.ScenarioRepository
	Service *service.ScenarioService
}

func (h *ScenarioHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/scenarios")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/analyze", h.analyze)

	t := r.Group("/api/v1/scenario-templates")
	t.POST("", h.createTemplate)
	t.GET("", h.listTemplates)
	t.GET("/:id", h.getTemplate)

	gr := r.Group("/api/v1/scenario-groups")
	gr.POST("", h.createGroup)
	gr.GET("", h.listGroups)
	gr.GET("/:id", h.getGroup)

	cmp := r.Group("/api/v1/comparisons")
	cmp.POST("", h.createComparison)
	cmp.GET("", h.listComparisons)
	cmp.GET("/:id", h.getComparison)
}

func (h *ScenarioHandler) ready(c *gin.Context) bool {
	if h.Repo == nil || h.Service == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return false
	}
	return true
}

// @Summary Create scenario
// @Tags scenarios
// @Accept json
// @Param body body service.CreateScenarioInput true "scenario"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/v1/scenarios [post]
func (h *ScenarioHandler) create(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req service.CreateScenarioInput
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.CreateScenario(c.Request.Context(), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary List scenarios
// @Tags scenarios
// @Param workspace_id query string false "workspace"
// @Param group_id query string false "group"
// @Param status query string false "draft|analyzing|analyzed"
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Param order_by query string false "created_at|updated_at|potential_saving"
// @Param asc query bool false "ascending order"
// @Success 200 {object} apiResponse
// @Router /api/v1/scenarios [get]
func (h *ScenarioHandler) list(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListScenariosParams{
		Limit:       limit,
		Offset:      offset,
		WorkspaceID: strQueryPtr(c, "workspace_id"),
		GroupID:     strQueryPtr(c, "group_id"),
		Status:      strQueryPtr(c, "status"),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"created_at":       "created_at",
			"updated_at":       "updated_at",
			"potential_saving": "potential_saving",
		}),
		Asc: boolQueryPtr(c, "asc"),
	}
	items, err := h.Repo.ListScenarios(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountScenarios(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get scenario
// @Tags scenarios
// @Param id path string true "scenario id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/scenarios/{id} [get]
func (h *ScenarioHandler) get(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	item, err := h.Repo.GetScenario(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Fail(c, apperr.NotFound("scenario", id))
		return
	}
	Ok(c, item, nil)
}

// @Summary Analyze scenario
// @Description Submits a savings_analysis job over the scenario's products; the scenario summary is refreshed when it completes.
// @Tags scenarios
// @Accept json
// @Param id path string true "scenario id"
// @Param body body service.AnalyzeInput false "priority and recommendation generation"
// @Success 200 {object} apiResponse
// @Router /api/v1/scenarios/{id}/analyze [post]
func (h *ScenarioHandler) analyze(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req service.AnalyzeInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body", nil)
			return
		}
	}
	job, err := h.Service.AnalyzeScenario(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, viewOf(job), nil)
}

// @Summary Create scenario template
// @Tags scenarios
// @Accept json
// @Param body body service.CreateTemplateInput true "template"
// @Success 200 {object} apiResponse
// @Router /api/v1/scenario-templates [post]
func (h *ScenarioHandler) createTemplate(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req service.CreateTemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary List scenario templates
// @Tags scenarios
// @Param workspace_id query string false "workspace"
// @Success 200 {object} apiResponse
// @Router /api/v1/scenario-templates [get]
func (h *ScenarioHandler) listTemplates(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	items, err := h.Repo.ListScenarioTemplates(c.Request.Context(), strings.TrimSpace(c.Query("workspace_id")))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary Get scenario template
// @Tags scenarios
// @Param id path string true "template id"
// @Success 200 {object} apiResponse
// @Router /api/v1/scenario-templates/{id} [get]
func (h *ScenarioHandler) getTemplate(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	item, err := h.Repo.GetScenarioTemplate(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Fail(c, apperr.NotFound("scenario_template", id))
		return
	}
	Ok(c, item, nil)
}

// @Summary Create scenario group
// @Tags scenarios
// @Accept json
// @Param body body service.CreateGroupInput true "group"
// @Success 200 {object} apiResponse
// @Router /api/v1/scenario-groups [post]
func (h *ScenarioHandler) createGroup(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req service.CreateGroupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.CreateGroup(c.Request.Context(), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary List scenario groups
// @Tags scenarios
// @Param workspace_id query string false "workspace"
// @Success 200 {object} apiResponse
// @Router /api/v1/scenario-groups [get]
func (h *ScenarioHandler) listGroups(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	items, err := h.Repo.ListScenarioGroups(c.Request.Context(), strings.TrimSpace(c.Query("workspace_id")))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary Get scenario group with its scenarios
// @Tags scenarios
// @Param id path string true "group id"
// @Success 200 {object} apiResponse
// @Router /api/v1/scenario-groups/{id} [get]
func (h *ScenarioHandler) getGroup(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	group, err := h.Repo.GetScenarioGroup(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if group == nil {
		Fail(c, apperr.NotFound("scenario_group", id))
		return
	}
	scenarios, err := h.Repo.ListScenarios(c.Request.Context(), repository.ListScenariosParams{
		Limit:   500,
		GroupID: &id,
		Asc:     boolPtr(true),
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"group": group, "scenarios": scenarios}, nil)
}

// @Summary Compare scenarios
// @Description Stores a pending comparison and submits a scenario_comparison job that fills in its result.
// @Tags comparisons
// @Accept json
// @Param body body service.CreateComparisonInput true "scenarios to compare"
// @Success 200 {object} apiResponse
// @Router /api/v1/comparisons [post]
func (h *ScenarioHandler) createComparison(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req service.CreateComparisonInput
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, job, err := h.Service.CreateComparison(c.Request.Context(), req)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{"comparison": item, "job": viewOf(job)}, nil)
}

// @Summary List comparisons
// @Tags comparisons
// @Param workspace_id query string false "workspace"
// @Success 200 {object} apiResponse
// @Router /api/v1/comparisons [get]
func (h *ScenarioHandler) listComparisons(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	items, err := h.Repo.ListScenarioComparisons(c.Request.Context(), strings.TrimSpace(c.Query("workspace_id")))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary Get comparison
// @Tags comparisons
// @Param id path string true "comparison id"
// @Success 200 {object} apiResponse
// @Router /api/v1/comparisons/{id} [get]
func (h *ScenarioHandler) getComparison(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	item, err := h.Repo.GetScenarioComparison(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Fail(c, apperr.NotFound("comparison", id))
		return
	}
	Ok(c, item, nil)
}
