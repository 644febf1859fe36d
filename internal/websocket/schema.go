package websocket

import (
	"github.com/examtrack/examtrack-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventCheating Event = "cheating_event"
	EventPong     Event = "pong"
)

// CheatingEventMessage wraps a broadcast payload for observer delivery.
type CheatingEventMessage struct {
	Event   Event                      `json:"event"`
	Payload model.CheatingEventPayload `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
