package model

import (
	"time"

	"github.com/google/uuid"
)

// EventSeverity classifies how strongly an event type indicates cheating.
type EventSeverity string

const (
	SeverityHigh   EventSeverity = "high"
	SeverityMedium EventSeverity = "medium"
	SeverityLow    EventSeverity = "low"
)

// ProctorEvent is one accepted, catalog-matched cheating signal.
// Severity comes from the server-side catalog, never from the client.
type ProctorEvent struct {
	ID         uuid.UUID     `json:"id"`
	AttemptID  uuid.UUID     `json:"attempt_id"`
	EventType  string        `json:"event_type"`
	Severity   EventSeverity `json:"severity"`
	Details    *string       `json:"details,omitempty"`
	DetectedAt time.Time     `json:"detected_at"`
}

// RecordEventRequest is the client-reported proctoring signal.
type RecordEventRequest struct {
	EventType string  `json:"event_type" binding:"required,max=64"`
	Details   *string `json:"details,omitempty"`
}

// RecordEventResponse acknowledges a proctoring event. Throttled and
// non-catalog events are acknowledged without being recorded.
type RecordEventResponse struct {
	Recorded      bool `json:"recorded"`
	CheatingCount int  `json:"cheating_count"`
}

// CheatingEventPayload is the broadcast contract delivered to live
// observers of an assessment.
type CheatingEventPayload struct {
	AttemptID       uuid.UUID     `json:"attempt_id"`
	ParticipantID   uuid.UUID     `json:"participant_id"`
	ParticipantName string        `json:"participant_name"`
	EventType       string        `json:"event_type"`
	Severity        EventSeverity `json:"severity"`
	DetectedAt      time.Time     `json:"detected_at"`
	EventDetails    *string       `json:"event_details,omitempty"`
	CheatingCount   int           `json:"cheating_count"`
}

// Violation is one persisted event joined with participant identity,
// served to instructors.
type Violation struct {
	EventID         uuid.UUID     `json:"event_id"`
	AttemptID       uuid.UUID     `json:"attempt_id"`
	ParticipantID   uuid.UUID     `json:"participant_id"`
	ParticipantName string        `json:"participant_name"`
	EventType       string        `json:"event_type"`
	Severity        EventSeverity `json:"severity"`
	Details         *string       `json:"details,omitempty"`
	DetectedAt      time.Time     `json:"detected_at"`
}
