package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examtrack/examtrack-backend/internal/middleware"
	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
	"github.com/examtrack/examtrack-backend/internal/validator"
)

// AttemptHandler handles the attempt lifecycle endpoints.
type AttemptHandler struct {
	sessions *service.AttemptSessionService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(sessions *service.AttemptSessionService) *AttemptHandler {
	return &AttemptHandler{sessions: sessions}
}

// Start godoc
// POST /api/v1/attempts/:attempt_id/start
// Transitions the attempt to in_progress and returns the question paper
// with server time for countdown reconciliation.
func (h *AttemptHandler) Start(c *gin.Context) {
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

	result, err := h.sessions.Start(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrShouldCreateAttempt):
			response.Fail(c, http.StatusBadRequest, response.ErrShouldCreateAttempt)
		case errors.Is(err, service.ErrFaceCheckRequired):
			response.Fail(c, http.StatusForbidden, response.ErrFaceCheckRequired)
		case errors.Is(err, service.ErrCardCheckRequired):
			response.Fail(c, http.StatusForbidden, response.ErrCardCheckRequired)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}

// SaveAnswer godoc
// POST /api/v1/attempts/:attempt_id/answer
// Upserts one answer under the deadline guard.
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
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

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessions.SaveAnswer(c.Request.Context(), attemptID, claims.UserID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrShouldCreateAttempt):
			response.Fail(c, http.StatusBadRequest, response.ErrAttemptSubmitted)
		case errors.Is(err, service.ErrAttemptNotStarted):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		case errors.Is(err, service.ErrTimeExpired):
			response.Fail(c, http.StatusForbidden, response.ErrTimeExpired)
		case errors.Is(err, service.ErrQuestionNotInExam):
			response.Fail(c, http.StatusBadRequest, response.ErrQuestionNotInAttempt)
		case errors.Is(err, service.ErrInvalidAnswer):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// Submit godoc
// POST /api/v1/attempts/:attempt_id/submit
// Grades objective answers synchronously and enqueues essay grading.
func (h *AttemptHandler) Submit(c *gin.Context) {
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

	result, err := h.sessions.Submit(c.Request.Context(), attemptID, claims.UserID)
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

// MyResults godoc
// GET /api/v1/results/my
// Returns the caller's attempt history with scores.
func (h *AttemptHandler) MyResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.sessions.MyResults(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []model.AttemptResult{}
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}
