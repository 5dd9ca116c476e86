package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estimator/internal/service"
)

// ModelHandler exposes the model provider state
type ModelHandler struct {
	estimateService *service.EstimateService
}

// NewModelHandler creates a new model handler
func NewModelHandler(estimateService *service.EstimateService) *ModelHandler {
	return &ModelHandler{estimateService: estimateService}
}

// Status handles GET /api/v1/model
func (h *ModelHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.estimateService.ModelStatus())
}

// Reload handles POST /api/v1/model/reload
func (h *ModelHandler) Reload(c *gin.Context) {
	info, err := h.estimateService.ReloadModel(c.Request.Context())
	if err != nil {
		writeError(c, err, "Reload failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "model": info})
}
