package model

import (
	"github.com/google/uuid"
)

// GradingStatus enumerates answer grading states.
type GradingStatus string

const (
	GradingStatusPending   GradingStatus = "pending"
	GradingStatusGraded    GradingStatus = "graded"
	GradingStatusConfirmed GradingStatus = "confirmed"
)

// Answer holds either a selected option (objective) or free text (essay),
// never both. At most one row exists per (attempt, question) pair.
type Answer struct {
	ID               uuid.UUID     `json:"id"`
	AttemptID        uuid.UUID     `json:"attempt_id"`
	QuestionID       uuid.UUID     `json:"question_id"`
	SelectedOptionID *uuid.UUID    `json:"selected_option_id,omitempty"`
	AnswerText       *string       `json:"answer_text,omitempty"`
	Score            *float64      `json:"score,omitempty"`
	GradingStatus    GradingStatus `json:"grading_status"`
}

// SaveAnswerRequest is the answer upsert payload. Exactly one of
// selected_option_id and answer_text must be present.
type SaveAnswerRequest struct {
	QuestionID       uuid.UUID  `json:"question_id" binding:"required"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id,omitempty"`
	AnswerText       *string    `json:"answer_text,omitempty"`
}

// SubmitAttemptResponse returns the synchronous grading outcome.
// The essay portion is graded asynchronously and arrives later.
type SubmitAttemptResponse struct {
	AttemptID      uuid.UUID     `json:"attempt_id"`
	Status         AttemptStatus `json:"status"`
	ObjectiveScore float64       `json:"objective_score"`
}

// EssayAnswer is an essay answer joined with its question's model answer
// and max points, as fetched by the grading worker.
type EssayAnswer struct {
	AnswerID    uuid.UUID
	QuestionID  uuid.UUID
	AnswerText  string
	ModelAnswer string
	MaxPoints   float64
}
