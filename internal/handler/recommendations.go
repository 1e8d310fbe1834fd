package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"landedcost/internal/apperr"
	"landedcost/internal/recommendation"
	"landedcost/internal/repository"
)

type RecommendationHandler struct {
	Repo    repository.RecommendationRepository
	Manager *recommendation.Manager
}

func (h *RecommendationHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/recommendations")
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/status", h.updateStatus)
}

// @Summary List recommendations
// @Tags recommendations
// @Param workspace_id query string false "workspace"
// @Param scenario_id query string false "scenario"
// @Param product_id query string false "product"
// @Param type query string false "classification|origin|shipping|fba|trade_agreement"
// @Param status query string false "pending|accepted|rejected|implemented"
// @Param priority query string false "low|medium|high|critical"
// @Param include_archived query bool false "include archived"
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Param order_by query string false "created_at|updated_at|confidence"
// @Param asc query bool false "ascending order"
// @Success 200 {object} apiResponse
// @Router /api/v1/recommendations [get]
func (h *RecommendationHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListRecommendationsParams{
		Limit:           limit,
		Offset:          offset,
		WorkspaceID:     strQueryPtr(c, "workspace_id"),
		ScenarioID:      strQueryPtr(c, "scenario_id"),
		ProductID:       strQueryPtr(c, "product_id"),
		Type:            strQueryPtr(c, "type"),
		Status:          strQueryPtr(c, "status"),
		Priority:        strQueryPtr(c, "priority"),
		IncludeArchived: boolQueryDefault(c, "include_archived", false),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"created_at": "created_at",
			"updated_at": "updated_at",
			"confidence": "confidence_score",
		}),
		Asc: boolQueryPtr(c, "asc"),
	}
	items, err := h.Repo.ListRecommendations(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountRecommendations(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get recommendation
// @Tags recommendations
// @Param id path string true "recommendation id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/recommendations/{id} [get]
func (h *RecommendationHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	item, err := h.Repo.GetRecommendation(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Fail(c, apperr.NotFound("recommendation", id))
		return
	}
	Ok(c, item, nil)
}

type updateRecommendationStatusRequest struct {
	Status string `json:"status"`
}

// @Summary Change recommendation status
// @Tags recommendations
// @Accept json
// @Param id path string true "recommendation id"
// @Param body body updateRecommendationStatusRequest true "target status"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/recommendations/{id}/status [post]
func (h *RecommendationHandler) updateStatus(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "recommendation manager unavailable", nil)
		return
	}
	var req updateRecommendationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Manager.UpdateStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}
