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

// RoomHandler handles room verification and attempt joining.
type RoomHandler struct {
	admission *service.AdmissionService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(admission *service.AdmissionService) *RoomHandler {
	return &RoomHandler{admission: admission}
}

// VerifyRoom godoc
// POST /api/v1/rooms/verify
// Resolves a room code and mints a short-lived admission token. A bearer
// token is optional; with one, remaining attempts are checked early so
// the client can warn before the proctoring setup flow.
func (h *RoomHandler) VerifyRoom(c *gin.Context) {
	var req model.VerifyRoomRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var participantID *uuid.UUID
	if claims := middleware.GetClaims(c); claims != nil {
		participantID = &claims.UserID
	}

	result, err := h.admission.VerifyRoom(c.Request.Context(), req.RoomCode, participantID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrRoomNotFound)
		case errors.Is(err, service.ErrMaxAttemptsExceeded):
			response.Fail(c, http.StatusForbidden, response.ErrMaxAttemptsExceeded)
		case errors.Is(err, service.ErrBeforeOpen):
			response.Fail(c, http.StatusForbidden, response.ErrBeforeOpen)
		case errors.Is(err, service.ErrAfterClose):
			response.Fail(c, http.StatusForbidden, response.ErrAfterClose)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Join godoc
// POST /api/v1/rooms/join
// Exchanges an admission token for a new attempt. The max-attempts check
// here is authoritative regardless of token freshness.
func (h *RoomHandler) Join(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.JoinRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.admission.Join(c.Request.Context(), req.AdmissionToken, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAdmissionExpired):
			response.Fail(c, http.StatusUnauthorized, response.ErrAdmissionExpired)
		case errors.Is(err, service.ErrAdmissionInvalid):
			response.Fail(c, http.StatusUnauthorized, response.ErrAdmissionInvalid)
		case errors.Is(err, service.ErrRoomNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrRoomNotFound)
		case errors.Is(err, service.ErrMaxAttemptsExceeded):
			response.Fail(c, http.StatusForbidden, response.ErrMaxAttemptsExceeded)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, result)
}
