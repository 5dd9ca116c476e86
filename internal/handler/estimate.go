package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"estimator/internal/model"
	"estimator/internal/provider"
	"estimator/internal/service"
)

// EstimateHandler handles estimate-related HTTP requests
type EstimateHandler struct {
	estimateService *service.EstimateService
}

// NewEstimateHandler creates a new estimate handler
func NewEstimateHandler(estimateService *service.EstimateService) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
	}
}

// Create handles POST /api/v1/estimates
func (h *EstimateHandler) Create(c *gin.Context) {
	req, ok := bindEstimateRequest(c)
	if !ok {
		return
	}

	estimate, err := h.estimateService.Estimate(c.Request.Context(), req.Raw())
	if err != nil {
		writeError(c, err, "Estimate failed")
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// Stream handles POST /api/v1/estimates/stream - SSE streaming estimate
func (h *EstimateHandler) Stream(c *gin.Context) {
	req, ok := bindEstimateRequest(c)
	if !ok {
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", map[string]any{"input": req})
	flusher.Flush()

	estimate, err := h.estimateService.EstimateStream(c.Request.Context(), req.Raw(), func(event string, data any) error {
		if err := c.Request.Context().Err(); err != nil {
			return err
		}
		sendSSE(c, event, data)
		flusher.Flush()
		return nil
	})
	if err != nil {
		status, _ := errorStatus(err)
		sendSSE(c, "error", map[string]any{"error": err.Error(), "status": status})
		flusher.Flush()
		return
	}

	sendSSE(c, "result", estimate)
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}

// Encode handles POST /api/v1/features/encode
func (h *EstimateHandler) Encode(c *gin.Context) {
	req, ok := bindEstimateRequest(c)
	if !ok {
		return
	}

	result, err := h.estimateService.Encode(c.Request.Context(), req.Raw())
	if err != nil {
		writeError(c, err, "Encoding failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/estimates/:id
func (h *EstimateHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	estimate, err := h.estimateService.GetEstimate(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Failed to get estimate")
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// Similar handles GET /api/v1/estimates/:id/similar
func (h *EstimateHandler) Similar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	results, err := h.estimateService.Similar(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err, "Similar search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

// Recent handles GET /api/v1/estimates/recent
func (h *EstimateHandler) Recent(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	results, err := h.estimateService.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err, "Failed to list estimates")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

// bindEstimateRequest decodes and validates the request body. On failure it
// has already written the 400 response.
func bindEstimateRequest(c *gin.Context) (*model.EstimateRequest, bool) {
	var req model.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve *model.ValidationError
		if !errors.As(model.NewValidationError(err), &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return nil, false
		}
		writeError(c, ve, "Invalid request")
		return nil, false
	}
	if err := req.Validate(); err != nil {
		writeError(c, err, "Invalid request")
		return nil, false
	}
	return &req, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid estimate ID"})
		return uuid.Nil, false
	}
	return id, true
}

// parseLimit reads ?limit=. Absent means 0, which the service replaces
// with its default.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return 0, false
	}
	return limit, true
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) (int, string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, provider.ErrUnavailable):
		return http.StatusServiceUnavailable, "Model unavailable"
	case errors.Is(err, service.ErrStorageDisabled):
		return http.StatusNotFound, "Prediction log is disabled"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Estimate not found"
	default:
		return http.StatusInternalServerError, ""
	}
}

func writeError(c *gin.Context, err error, prefix string) {
	status, title := errorStatus(err)
	if title != "" {
		prefix = title
	}

	body := gin.H{"error": prefix + ": " + err.Error()}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		body["fields"] = ve.Fields
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error(prefix, zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, body)
}
