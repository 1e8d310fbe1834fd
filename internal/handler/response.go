package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"landedcost/internal/apperr"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail maps a domain error onto its HTTP status and exposes the stable error code in meta.
func Fail(c *gin.Context, err error) {
	Error(c, apperr.HTTPStatus(err), err.Error(), map[string]any{"error_code": apperr.CodeOf(err)})
}
