// Package grading scores essay answers against an external
// OpenAI-compatible endpoint.
package grading

import (
	"context"
	"errors"
)

// EssayScore is the result of scoring one essay answer.
type EssayScore struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// Scorer grades a student's essay answer against the instructor's model
// answer. Implementations are fallible and slow; callers bound each call
// with a timeout.
type Scorer interface {
	Score(ctx context.Context, studentAnswer, modelAnswer string, maxPoints float64) (EssayScore, error)
}

// NoopScorer fails every call. Used when no scoring backend is
// configured: answers stay ungraded instead of getting fabricated scores.
type NoopScorer struct{}

func (NoopScorer) Score(context.Context, string, string, float64) (EssayScore, error) {
	return EssayScore{}, errors.New("no scoring backend configured")
}
