package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"landedcost/internal/apperr"
	"landedcost/internal/models"
	"landedcost/internal/repository"
)

type ProductHandler struct {
	Repo repository.ProductRepository
}

func (h *ProductHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/products")
	g.PUT("", h.upsert)
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

type upsertProductsRequest struct {
	Products []models.Product `json:"products"`
}

// @Summary Create or replace products
// @Tags products
// @Accept json
// @Param body body upsertProductsRequest true "products keyed by id"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/v1/products [put]
func (h *ProductHandler) upsert(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req upsertProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if len(req.Products) == 0 {
		Fail(c, apperr.Invalid("products", "at least one product is required"))
		return
	}
	now := time.Now().UTC()
	for i := range req.Products {
		p := &req.Products[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" || strings.TrimSpace(p.WorkspaceID) == "" {
			Fail(c, apperr.Invalid("products", "product %d needs id and workspace_id", i))
			return
		}
		if err := validateProduct(p); err != nil {
			Fail(c, err)
			return
		}
		p.UpdatedAt = now
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
	}
	if err := h.Repo.UpsertProducts(c.Request.Context(), req.Products); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"upserted": len(req.Products)}, nil)
}

func validateProduct(p *models.Product) error {
	if p.Value.IsNegative() {
		return apperr.Invalid("value", "product %s has a negative value", p.ID)
	}
	if p.WeightKg.IsNegative() || p.LengthCm.IsNegative() || p.WidthCm.IsNegative() || p.HeightCm.IsNegative() {
		return apperr.Invalid("weight_kg", "product %s has a negative measure", p.ID)
	}
	if strings.TrimSpace(p.HSCode) == "" {
		return apperr.Invalid("hs_code", "product %s has no hs_code", p.ID)
	}
	if len(strings.TrimSpace(p.OriginCountry)) != 2 || len(strings.TrimSpace(p.DestinationCountry)) != 2 {
		return apperr.Invalid("origin_country", "product %s needs two-letter origin and destination countries", p.ID)
	}
	if p.AnnualVolume < 0 {
		return apperr.Invalid("annual_volume", "product %s has a negative annual volume", p.ID)
	}
	return nil
}

// @Summary List products
// @Tags products
// @Param workspace_id query string false "workspace"
// @Param hs_code query string false "hs code"
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/products [get]
func (h *ProductHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListProductsParams{
		Limit:       limit,
		Offset:      offset,
		WorkspaceID: strQueryPtr(c, "workspace_id"),
		HSCode:      strQueryPtr(c, "hs_code"),
		Asc:         boolQueryPtr(c, "asc"),
	}
	items, err := h.Repo.ListProducts(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountProducts(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get product
// @Tags products
// @Param id path string true "product id"
// @Success 200 {object} apiResponse
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	items, err := h.Repo.GetProductsByIDs(c.Request.Context(), []string{id})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if len(items) == 0 {
		Fail(c, apperr.NotFound("product", id))
		return
	}
	Ok(c, items[0], nil)
}
