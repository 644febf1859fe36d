package model

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus enumerates assessment lifecycle states.
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "draft"
	AssessmentStatusPublished AssessmentStatus = "published"
	AssessmentStatusArchived  AssessmentStatus = "archived"
)

// Assessment is an exam definition. Open/close bounds are nullable:
// absence means that side of the window is unbounded.
type Assessment struct {
	ID               uuid.UUID        `json:"id"`
	InstructorID     uuid.UUID        `json:"instructor_id"`
	Title            string           `json:"title"`
	DurationMinutes  int              `json:"duration_minutes"`
	OpenAt           *time.Time       `json:"open_at,omitempty"`
	CloseAt          *time.Time       `json:"close_at,omitempty"`
	RoomCode         *string          `json:"room_code,omitempty"`
	MaxAttempts      int              `json:"max_attempts"` // 0 = unlimited
	RequireFaceCheck bool             `json:"require_face_check"`
	RequireCardCheck bool             `json:"require_card_check"`
	MonitorScreen    bool             `json:"monitor_screen"`
	Status           AssessmentStatus `json:"status"`
}

// ProctoringFlags is the subset of assessment settings the client needs
// to set up its proctoring environment before an attempt starts.
type ProctoringFlags struct {
	RequireFaceCheck bool `json:"require_face_check"`
	RequireCardCheck bool `json:"require_card_check"`
	MonitorScreen    bool `json:"monitor_screen"`
}

// Flags extracts the proctoring flags from an assessment.
func (a *Assessment) Flags() ProctoringFlags {
	return ProctoringFlags{
		RequireFaceCheck: a.RequireFaceCheck,
		RequireCardCheck: a.RequireCardCheck,
		MonitorScreen:    a.MonitorScreen,
	}
}

// VerifyRoomRequest is the payload for verifying a room code.
type VerifyRoomRequest struct {
	RoomCode string `json:"room_code" binding:"required,min=4,max=20"`
}

// VerifyRoomResponse carries everything the client needs between room
// verification and joining: the admission token and the exam parameters.
type VerifyRoomResponse struct {
	AssessmentID    uuid.UUID       `json:"assessment_id"`
	Title           string          `json:"title"`
	DurationMinutes int             `json:"duration_minutes"`
	OpenAt          *time.Time      `json:"open_at,omitempty"`
	CloseAt         *time.Time      `json:"close_at,omitempty"`
	Flags           ProctoringFlags `json:"flags"`
	AdmissionToken  string          `json:"admission_token"`
}

// JoinRequest exchanges an admission token for a new attempt.
type JoinRequest struct {
	AdmissionToken string `json:"admission_token" binding:"required"`
}

// JoinResponse is the result of a successful join.
type JoinResponse struct {
	AssessmentID  uuid.UUID       `json:"assessment_id"`
	AttemptID     uuid.UUID       `json:"attempt_id"`
	AttemptNumber int             `json:"attempt_number"`
	Flags         ProctoringFlags `json:"flags"`
}
