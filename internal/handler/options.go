package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estimator/internal/model"
	"estimator/internal/service"
)

// OptionsHandler serves what the form needs to render itself
type OptionsHandler struct {
	presets *service.Presets
}

// NewOptionsHandler creates a new options handler
func NewOptionsHandler(presets *service.Presets) *OptionsHandler {
	return &OptionsHandler{presets: presets}
}

// Options handles GET /api/v1/options
func (h *OptionsHandler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, model.NewOptions())
}

// ListPresets handles GET /api/v1/presets
func (h *OptionsHandler) ListPresets(c *gin.Context) {
	presets := h.presets.List()
	c.JSON(http.StatusOK, gin.H{"presets": presets, "total": len(presets)})
}

// GetPreset handles GET /api/v1/presets/:id
func (h *OptionsHandler) GetPreset(c *gin.Context) {
	preset, ok := h.presets.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preset not found"})
		return
	}
	c.JSON(http.StatusOK, preset)
}
