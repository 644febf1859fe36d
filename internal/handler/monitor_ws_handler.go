package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/examtrack/examtrack-backend/internal/broadcast"
	"github.com/examtrack/examtrack-backend/internal/middleware"
	"github.com/examtrack/examtrack-backend/internal/model"
	ws "github.com/examtrack/examtrack-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorWSHandler streams accepted cheating events to instructor
// observers of an assessment.
type MonitorWSHandler struct {
	broadcaster *broadcast.Broadcaster
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewMonitorWSHandler creates a new MonitorWSHandler.
func NewMonitorWSHandler(broadcaster *broadcast.Broadcaster, log zerolog.Logger, allowedOrigins []string) *MonitorWSHandler {
	return &MonitorWSHandler{
		broadcaster: broadcaster,
		log:         log.With().Str("component", "monitor_ws").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// MonitorStream godoc
// WS /ws/v1/assessments/:assessment_id/monitor?token=...
// Upgrades to WebSocket and relays the assessment's cheating events from
// the Redis channel to the observer.
func (h *MonitorWSHandler) MonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assessment ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("assessment_id", assessmentID.String()).
		Str("instructor_id", claims.UserID.String()).
		Logger()
	wsLog.Info().Msg("Observer connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.broadcaster.Subscribe(ctx, assessmentID)
	defer sub.Close()

	// Reader goroutine: consumes pings and detects the close.
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Observer disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload model.CheatingEventPayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				wsLog.Error().Err(err).Msg("Discarding malformed broadcast payload")
				continue
			}
			if err := ws.WriteTyped(conn, ws.CheatingEventMessage{
				Event:   ws.EventCheating,
				Payload: payload,
			}); err != nil {
				wsLog.Debug().Err(err).Msg("Observer write failed")
				return
			}
		}
	}
}
