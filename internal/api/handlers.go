package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/studysearch/internal/domain"
	"github.com/jonesrussell/studysearch/internal/logger"
	"github.com/jonesrussell/studysearch/internal/service"
)

// Handler holds HTTP request handlers.
type Handler struct {
	curation *service.CurationService
	logger   logger.Logger
	version  string
	name     string
}

// NewHandler creates a new handler instance.
func NewHandler(curation *service.CurationService, name, version string, log logger.Logger) *Handler {
	return &Handler{
		curation: curation,
		logger:   log,
		version:  version,
		name:     name,
	}
}

// Curate handles POST /api/v1/curate.
func (h *Handler) Curate(c *gin.Context) {
	var req domain.CurateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid curate request body", logger.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Invalid request body: " + err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
		})
		return
	}

	set, err := h.curation.CurateResources(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "Curation failed")
		return
	}

	c.JSON(http.StatusOK, set)
}

// Plan handles POST /api/v1/plan.
func (h *Handler) Plan(c *gin.Context) {
	var req domain.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid plan request body", logger.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Invalid request body: " + err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
		})
		return
	}

	plan, err := h.curation.GenerateStudyPlan(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "Study plan generation failed")
		return
	}

	c.JSON(http.StatusOK, plan)
}

// writeError maps pipeline failures onto HTTP responses. Clients get a
// generic message plus a machine-readable code; details stay in the logs.
func (h *Handler) writeError(c *gin.Context, err error, msg string) {
	h.logger.Error(msg, logger.Error(err))

	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := msg

	switch {
	case strings.Contains(err.Error(), "validation"):
		status = http.StatusBadRequest
		code = "VALIDATION_ERROR"
		message = err.Error()
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
			code = "UPSTREAM_TIMEOUT"
		} else {
			status = http.StatusBadGateway
			code = "UPSTREAM_UNAVAILABLE"
		}
		message = "Search providers are unavailable"
	case errors.Is(err, domain.ErrMalformedOutput):
		code = "MALFORMED_MODEL_OUTPUT"
		message = "The model produced an unusable response"
	case errors.Is(err, domain.ErrSynthesisFailed):
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
			code = "SYNTHESIS_TIMEOUT"
		} else {
			code = "SYNTHESIS_FAILED"
		}
		message = "The model could not be reached"
	}

	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	status := h.curation.HealthCheck(c.Request.Context())
	if status.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Liveness handles GET /.
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.name,
		"version": h.version,
	})
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}
