package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt lifecycle states.
// "graded" means objectively graded; the essay portion may still be pending.
type AttemptStatus string

const (
	AttemptStatusPending    AttemptStatus = "pending"
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
	AttemptStatusGraded     AttemptStatus = "graded"
	AttemptStatusConfirmed  AttemptStatus = "confirmed"
)

// Attempt is one participant's instance of taking an assessment.
// AttemptNumber is monotonically increasing per (assessment, participant),
// starting at 1; gaps are allowed, repeats are not.
type Attempt struct {
	ID             uuid.UUID     `json:"id"`
	AssessmentID   uuid.UUID     `json:"assessment_id"`
	ParticipantID  uuid.UUID     `json:"participant_id"`
	AttemptNumber  int           `json:"attempt_number"`
	Status         AttemptStatus `json:"status"`
	StartedAt      *time.Time    `json:"started_at,omitempty"`
	SubmittedAt    *time.Time    `json:"submitted_at,omitempty"`
	ObjectiveScore *float64      `json:"objective_score,omitempty"`
	AIScore        *float64      `json:"ai_score,omitempty"`
	SuggestedTotal *float64      `json:"suggested_total,omitempty"`
	ConfirmedTotal *float64      `json:"confirmed_total,omitempty"`
	CheatingCount  int           `json:"cheating_count"`
}

// Finished reports whether the attempt can no longer be resumed.
func (a *Attempt) Finished() bool {
	return a.SubmittedAt != nil ||
		a.Status == AttemptStatusSubmitted ||
		a.Status == AttemptStatusGraded ||
		a.Status == AttemptStatusConfirmed
}

// StartAttemptResponse is returned by the start transition. ServerNow and
// StartedAt let the client reconcile its countdown against server time.
type StartAttemptResponse struct {
	AttemptID       uuid.UUID  `json:"attempt_id"`
	DurationMinutes int        `json:"duration_minutes"`
	StartedAt       time.Time  `json:"started_at"`
	ServerNow       time.Time  `json:"server_now"`
	Questions       []Question `json:"questions"`
}

// AttemptResult is one row of a participant's attempt history.
type AttemptResult struct {
	AttemptID       uuid.UUID     `json:"attempt_id"`
	AssessmentID    uuid.UUID     `json:"assessment_id"`
	AssessmentTitle string        `json:"assessment_title"`
	AttemptNumber   int           `json:"attempt_number"`
	Status          AttemptStatus `json:"status"`
	SubmittedAt     *time.Time    `json:"submitted_at,omitempty"`
	ObjectiveScore  *float64      `json:"objective_score,omitempty"`
	AIScore         *float64      `json:"ai_score,omitempty"`
	SuggestedTotal  *float64      `json:"suggested_total,omitempty"`
	ConfirmedTotal  *float64      `json:"confirmed_total,omitempty"`
}
