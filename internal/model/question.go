package model

import (
	"github.com/google/uuid"
)

// QuestionType enumerates question kinds.
type QuestionType string

const (
	QuestionTypeObjective QuestionType = "objective"
	QuestionTypeEssay     QuestionType = "essay"
)

// Question belongs to one assessment. Position is an explicit order key;
// rows without one fall back to identifier order.
type Question struct {
	ID           uuid.UUID    `json:"id"`
	AssessmentID uuid.UUID    `json:"assessment_id"`
	Type         QuestionType `json:"type"`
	Text         string       `json:"text"`
	Points       float64      `json:"points"`
	Position     *int         `json:"position,omitempty"`
	// ModelAnswer is the instructor's reference answer for essay grading.
	// Never serialized to participants.
	ModelAnswer *string `json:"-"`

	Options []QuestionOption `json:"options,omitempty"`
}

// QuestionMeta is the grading-relevant shape of a question.
type QuestionMeta struct {
	ID           uuid.UUID
	AssessmentID uuid.UUID
	Type         QuestionType
	Points       float64
}

// QuestionOption is one choice of an objective question. The correct flag
// stays server-side.
type QuestionOption struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	Position   *int      `json:"position,omitempty"`
	IsCorrect  bool      `json:"-"`
}
