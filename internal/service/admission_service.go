package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/examtrack/examtrack-backend/internal/config"
	"github.com/examtrack/examtrack-backend/internal/model"
)

// Admission errors.
var (
	ErrRoomNotFound        = errors.New("no published assessment for room code")
	ErrMaxAttemptsExceeded = errors.New("max attempts exceeded")
	ErrBeforeOpen          = errors.New("assessment not open yet")
	ErrAfterClose          = errors.New("assessment already closed")
)

// AssessmentStore is the assessment access admission needs.
type AssessmentStore interface {
	GetPublishedByRoomCode(ctx context.Context, roomCode string) (*model.Assessment, error)
	GetPublishedByIDAndRoomCode(ctx context.Context, id uuid.UUID, roomCode string) (*model.Assessment, error)
}

// AttemptAllocator counts and creates attempts.
type AttemptAllocator interface {
	Count(ctx context.Context, assessmentID, participantID uuid.UUID) (int, error)
	CreateNext(ctx context.Context, assessmentID, participantID uuid.UUID, roomCode string) (*model.Attempt, error)
}

// AttemptQuota is the result of a max-attempts check.
type AttemptQuota struct {
	Exceeded bool
	Current  int
	Max      int
}

// AdmissionService validates room codes, mints admission tokens, and
// exchanges them for new attempts.
type AdmissionService struct {
	assessments AssessmentStore
	attempts    AttemptAllocator
	tokens      *TokenService
	loc         *time.Location
	log         zerolog.Logger
}

// NewAdmissionService creates a new AdmissionService.
func NewAdmissionService(
	assessments AssessmentStore,
	attempts AttemptAllocator,
	tokens *TokenService,
	cfg *config.Config,
	log zerolog.Logger,
) (*AdmissionService, error) {
	loc, err := ParseOffset(cfg.AppTZOffset)
	if err != nil {
		return nil, err
	}
	return &AdmissionService{
		assessments: assessments,
		attempts:    attempts,
		tokens:      tokens,
		loc:         loc,
		log:         log.With().Str("component", "admission_service").Logger(),
	}, nil
}

// VerifyRoom resolves a room code to a published assessment, checks the
// caller's remaining attempts when an identity is present (advisory; the
// join re-checks), validates the time window, and mints the short-lived
// admission token.
func (s *AdmissionService) VerifyRoom(ctx context.Context, roomCode string, participantID *uuid.UUID) (*model.VerifyRoomResponse, error) {
	roomCode = strings.TrimSpace(roomCode)

	assessment, err := s.assessments.GetPublishedByRoomCode(ctx, roomCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("find assessment by room code: %w", err)
	}

	if participantID != nil {
		quota, err := s.checkMaxAttempts(ctx, assessment.ID, *participantID, assessment.MaxAttempts)
		if err != nil {
			return nil, err
		}
		if quota.Exceeded {
			return nil, ErrMaxAttemptsExceeded
		}
	}

	switch (TimeWindow{Open: assessment.OpenAt, Close: assessment.CloseAt}).Evaluate(time.Now(), s.loc) {
	case WindowBeforeOpen:
		return nil, ErrBeforeOpen
	case WindowAfterClose:
		return nil, ErrAfterClose
	}

	token, err := s.tokens.MintAdmissionToken(assessment.ID, roomCode)
	if err != nil {
		return nil, fmt.Errorf("mint admission token: %w", err)
	}

	return &model.VerifyRoomResponse{
		AssessmentID:    assessment.ID,
		Title:           assessment.Title,
		DurationMinutes: assessment.DurationMinutes,
		OpenAt:          assessment.OpenAt,
		CloseAt:         assessment.CloseAt,
		Flags:           assessment.Flags(),
		AdmissionToken:  token,
	}, nil
}

// Join exchanges an admission token for a new attempt. The token is
// single-purpose: the authoritative max-attempts re-check here, not the
// token itself, is what stops reuse past exhaustion.
func (s *AdmissionService) Join(ctx context.Context, token string, participantID uuid.UUID) (*model.JoinResponse, error) {
	claims, err := s.tokens.VerifyAdmissionToken(token)
	if err != nil {
		return nil, err
	}

	// Re-fetch under the bound room code: an assessment unpublished or
	// re-coded since verification must not admit anyone.
	assessment, err := s.assessments.GetPublishedByIDAndRoomCode(ctx, claims.AssessmentID, claims.RoomCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("re-fetch assessment: %w", err)
	}

	quota, err := s.checkMaxAttempts(ctx, assessment.ID, participantID, assessment.MaxAttempts)
	if err != nil {
		return nil, err
	}
	if quota.Exceeded {
		return nil, ErrMaxAttemptsExceeded
	}

	attempt, err := s.attempts.CreateNext(ctx, assessment.ID, participantID, claims.RoomCode)
	if err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("assessment_id", assessment.ID.String()).
		Str("participant_id", participantID.String()).
		Int("attempt_number", attempt.AttemptNumber).
		Msg("Participant joined")

	return &model.JoinResponse{
		AssessmentID:  assessment.ID,
		AttemptID:     attempt.ID,
		AttemptNumber: attempt.AttemptNumber,
		Flags:         assessment.Flags(),
	}, nil
}

// checkMaxAttempts counts all attempt rows regardless of status. max <= 0
// means unlimited.
func (s *AdmissionService) checkMaxAttempts(ctx context.Context, assessmentID, participantID uuid.UUID, max int) (AttemptQuota, error) {
	if max <= 0 {
		return AttemptQuota{Exceeded: false, Max: max}, nil
	}
	current, err := s.attempts.Count(ctx, assessmentID, participantID)
	if err != nil {
		return AttemptQuota{}, fmt.Errorf("count attempts: %w", err)
	}
	return AttemptQuota{
		Exceeded: current >= max,
		Current:  current,
		Max:      max,
	}, nil
}
