package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/examtrack/examtrack-backend/internal/model"
	"github.com/examtrack/examtrack-backend/internal/proctor"
)

// EventStore persists accepted proctoring events.
type EventStore interface {
	InsertAndIncrement(ctx context.Context, e *model.ProctorEvent) (int, error)
	ListByAssessment(ctx context.Context, assessmentID uuid.UUID, since time.Time) ([]model.Violation, error)
}

// AttemptOwner resolves attempt ownership.
type AttemptOwner interface {
	GetOwned(ctx context.Context, id, participantID uuid.UUID) (*model.Attempt, error)
}

// NameStore resolves participant display names.
type NameStore interface {
	GetName(ctx context.Context, participantID uuid.UUID) (string, error)
}

// EventPublisher fans an accepted event out to live observers.
type EventPublisher interface {
	Publish(ctx context.Context, assessmentID uuid.UUID, payload *model.CheatingEventPayload) error
}

// ProctorService records client-reported proctoring signals: classifies
// them against the severity catalog, throttles duplicates, persists
// accepted events with an atomic cheating-count increment, and
// broadcasts them to observers.
type ProctorService struct {
	events       EventStore
	attempts     AttemptOwner
	participants NameStore
	broadcaster  EventPublisher
	dedup        *proctor.Deduplicator
	log          zerolog.Logger
}

// NewProctorService creates a new ProctorService.
func NewProctorService(
	events EventStore,
	attempts AttemptOwner,
	participants NameStore,
	broadcaster EventPublisher,
	dedup *proctor.Deduplicator,
	log zerolog.Logger,
) *ProctorService {
	return &ProctorService{
		events:       events,
		attempts:     attempts,
		participants: participants,
		broadcaster:  broadcaster,
		dedup:        dedup,
		log:          log.With().Str("component", "proctor_service").Logger(),
	}
}

// RecordEvent processes one signal. Non-catalog and throttled events are
// acknowledged without persistence. Accepted events insert a row and
// increment the attempt's cheating count by exactly 1 in one
// transaction; the broadcast afterwards is best-effort.
func (s *ProctorService) RecordEvent(ctx context.Context, attemptID, participantID uuid.UUID, req *model.RecordEventRequest) (*model.RecordEventResponse, error) {
	attempt, err := s.attempts.GetOwned(ctx, attemptID, participantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}

	severity, isCheating := proctor.Severity(req.EventType)
	if !isCheating {
		return &model.RecordEventResponse{Recorded: false, CheatingCount: attempt.CheatingCount}, nil
	}

	if !s.dedup.Accept(attemptID, req.EventType) {
		return &model.RecordEventResponse{Recorded: false, CheatingCount: attempt.CheatingCount}, nil
	}

	event := &model.ProctorEvent{
		ID:         uuid.New(),
		AttemptID:  attemptID,
		EventType:  req.EventType,
		Severity:   severity,
		Details:    req.Details,
		DetectedAt: time.Now(),
	}

	count, err := s.events.InsertAndIncrement(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("record event: %w", err)
	}

	s.broadcastEvent(ctx, attempt, event, count)

	return &model.RecordEventResponse{Recorded: true, CheatingCount: count}, nil
}

// Violations returns recent persisted events for an assessment.
func (s *ProctorService) Violations(ctx context.Context, assessmentID uuid.UUID, since time.Time) ([]model.Violation, error) {
	violations, err := s.events.ListByAssessment(ctx, assessmentID, since)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	return violations, nil
}

// broadcastEvent delivers the payload to observers. Failures are logged
// and swallowed: the student's request already succeeded.
func (s *ProctorService) broadcastEvent(ctx context.Context, attempt *model.Attempt, event *model.ProctorEvent, count int) {
	name, err := s.participants.GetName(ctx, attempt.ParticipantID)
	if err != nil {
		s.log.Warn().Err(err).Str("participant_id", attempt.ParticipantID.String()).Msg("Participant name lookup failed")
	}

	payload := &model.CheatingEventPayload{
		AttemptID:       attempt.ID,
		ParticipantID:   attempt.ParticipantID,
		ParticipantName: name,
		EventType:       event.EventType,
		Severity:        event.Severity,
		DetectedAt:      event.DetectedAt,
		EventDetails:    event.Details,
		CheatingCount:   count,
	}

	if err := s.broadcaster.Publish(ctx, attempt.AssessmentID, payload); err != nil {
		s.log.Error().Err(err).
			Str("assessment_id", attempt.AssessmentID.String()).
			Msg("Event broadcast failed")
	}
}
