package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examtrack/examtrack-backend/internal/middleware"
	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/examtrack/examtrack-backend/internal/validator"
)

// ProctorHandler handles proctoring event intake and the instructor
// violations feed.
type ProctorHandler struct {
	proctoring *service.ProctorService
}

// NewProctorHandler creates a new ProctorHandler.
func NewProctorHandler(proctoring *service.ProctorService) *ProctorHandler {
	return &ProctorHandler{proctoring: proctoring}
}

// RecordEvent godoc
// POST /api/v1/attempts/:attempt_id/events
// Accepts a client-reported proctoring signal. Throttled and non-catalog
// events still get a 200 — the client cannot tell suppression from
// acceptance and has no incentive to retry.
func (h *ProctorHandler) RecordEvent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.RecordEventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.proctoring.RecordEvent(c.Request.Context(), attemptID, claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Violations godoc
// GET /api/v1/assessments/:assessment_id/violations?since=RFC3339
// Returns recent persisted events for an assessment. Instructor only.
func (h *ProctorHandler) Violations(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"since": "must be an RFC3339 timestamp"})
			return
		}
		since = parsed
	}

	violations, err := h.proctoring.Violations(c.Request.Context(), assessmentID, since)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if violations == nil {
		violations = []model.Violation{}
	}
	response.Success(c, http.StatusOK, gin.H{"violations": violations})
}
