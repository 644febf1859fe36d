package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examtrack/examtrack-backend/internal/config"
	"github.com/examtrack/examtrack-backend/internal/model"
)

// Attempt lifecycle errors.
var (
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrShouldCreateAttempt = errors.New("attempt already finished, create a new one")
	ErrFaceCheckRequired   = errors.New("face verification required")
	ErrCardCheckRequired   = errors.New("card verification required")
	ErrAttemptNotStarted   = errors.New("attempt not started")
	ErrTimeExpired         = errors.New("attempt time expired")
	ErrQuestionNotInExam   = errors.New("question does not belong to the attempt's assessment")
	ErrInvalidAnswer       = errors.New("answer payload does not match question type")
)

// AttemptStore is the attempt access the session service needs.
type AttemptStore interface {
	GetOwned(ctx context.Context, id, participantID uuid.UUID) (*model.Attempt, error)
	Start(ctx context.Context, id uuid.UUID) (time.Time, error)
	RecomputeObjectiveScore(ctx context.Context, id uuid.UUID) (float64, error)
	Submit(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	ListResultsByParticipant(ctx context.Context, participantID uuid.UUID) ([]model.AttemptResult, error)
}

// AssessmentGetter fetches assessments by ID.
type AssessmentGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error)
}

// QuestionStore serves the question catalog.
type QuestionStore interface {
	ListByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]model.Question, error)
	GetMeta(ctx context.Context, questionID uuid.UUID) (*model.QuestionMeta, error)
}

// AnswerStore upserts answers.
type AnswerStore interface {
	UpsertObjective(ctx context.Context, attemptID, questionID, optionID uuid.UUID) error
	UpsertEssay(ctx context.Context, attemptID, questionID uuid.UUID, text string) error
}

// ArtifactStore reports verification artifact presence.
type ArtifactStore interface {
	VerificationArtifacts(ctx context.Context, participantID uuid.UUID) (faceOK, cardOK bool, err error)
}

// GradingEnqueuer hands an attempt to the async essay grading queue.
type GradingEnqueuer interface {
	Enqueue(attemptID uuid.UUID)
}

// AttemptSessionService drives the attempt state machine:
// pending → in_progress → submitted/graded → confirmed.
type AttemptSessionService struct {
	attempts     AttemptStore
	assessments  AssessmentGetter
	questions    QuestionStore
	answers      AnswerStore
	participants ArtifactStore
	gradingQueue GradingEnqueuer
	rdb          *redis.Client
	grace        time.Duration
	log          zerolog.Logger
}

// NewAttemptSessionService creates a new AttemptSessionService.
func NewAttemptSessionService(
	attempts AttemptStore,
	assessments AssessmentGetter,
	questions QuestionStore,
	answers AnswerStore,
	participants ArtifactStore,
	gradingQueue GradingEnqueuer,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *AttemptSessionService {
	return &AttemptSessionService{
		attempts:     attempts,
		assessments:  assessments,
		questions:    questions,
		answers:      answers,
		participants: participants,
		gradingQueue: gradingQueue,
		rdb:          rdb,
		grace:        cfg.AnswerGrace,
		log:          log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start transitions an attempt to in_progress and returns the question
// set with server time for countdown reconciliation. started_at is
// first-write-wins: re-entering a live attempt never resets the clock.
// A finished attempt is never re-entered.
func (s *AttemptSessionService) Start(ctx context.Context, attemptID, participantID uuid.UUID) (*model.StartAttemptResponse, error) {
	attempt, err := s.getOwned(ctx, attemptID, participantID)
	if err != nil {
		return nil, err
	}

	assessment, err := s.assessments.GetByID(ctx, attempt.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}

	if assessment.RequireFaceCheck || assessment.RequireCardCheck {
		faceOK, cardOK, err := s.participants.VerificationArtifacts(ctx, participantID)
		if err != nil {
			return nil, fmt.Errorf("load verification artifacts: %w", err)
		}
		if assessment.RequireFaceCheck && !faceOK {
			return nil, ErrFaceCheckRequired
		}
		if assessment.RequireCardCheck && !cardOK {
			return nil, ErrCardCheckRequired
		}
	}

	if attempt.Finished() {
		return nil, ErrShouldCreateAttempt
	}

	startedAt, err := s.attempts.Start(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("start attempt: %w", err)
	}

	s.cacheStartTime(ctx, attemptID, startedAt, assessment.DurationMinutes)

	questions, err := s.loadQuestions(ctx, assessment.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	return &model.StartAttemptResponse{
		AttemptID:       attemptID,
		DurationMinutes: assessment.DurationMinutes,
		StartedAt:       startedAt,
		ServerNow:       time.Now(),
		Questions:       questions,
	}, nil
}

// SaveAnswer upserts one answer under the deadline guard. Objective
// answers are scored in the same statement and the attempt's objective
// total is recomputed atomically, so concurrent upserts for different
// questions cannot lose updates.
func (s *AttemptSessionService) SaveAnswer(ctx context.Context, attemptID, participantID uuid.UUID, req *model.SaveAnswerRequest) error {
	attempt, err := s.getOwned(ctx, attemptID, participantID)
	if err != nil {
		return err
	}
	if attempt.Finished() {
		return ErrShouldCreateAttempt
	}

	assessment, err := s.assessments.GetByID(ctx, attempt.AssessmentID)
	if err != nil {
		return fmt.Errorf("load assessment: %w", err)
	}

	startedAt, err := s.loadStartTime(ctx, attempt)
	if err != nil {
		return err
	}

	deadline := startedAt.
		Add(time.Duration(assessment.DurationMinutes) * time.Minute).
		Add(s.grace)
	if time.Now().After(deadline) {
		return ErrTimeExpired
	}

	meta, err := s.questions.GetMeta(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotInExam
		}
		return fmt.Errorf("load question: %w", err)
	}
	if meta.AssessmentID != attempt.AssessmentID {
		return ErrQuestionNotInExam
	}

	switch meta.Type {
	case model.QuestionTypeObjective:
		if req.SelectedOptionID == nil {
			return ErrInvalidAnswer
		}
		if err := s.answers.UpsertObjective(ctx, attemptID, req.QuestionID, *req.SelectedOptionID); err != nil {
			return fmt.Errorf("save objective answer: %w", err)
		}
		if _, err := s.attempts.RecomputeObjectiveScore(ctx, attemptID); err != nil {
			return fmt.Errorf("recompute objective score: %w", err)
		}
	case model.QuestionTypeEssay:
		if req.AnswerText == nil {
			return ErrInvalidAnswer
		}
		if err := s.answers.UpsertEssay(ctx, attemptID, req.QuestionID, *req.AnswerText); err != nil {
			return fmt.Errorf("save essay answer: %w", err)
		}
	default:
		return ErrInvalidAnswer
	}
	return nil
}

// Submit finalizes the attempt: objective answers are graded
// synchronously and the essay portion is handed to the grading queue.
// The enqueue is fire-and-forget — the student's contract is "objective
// score is final now, essay score arrives later". Idempotent under
// re-invocation.
func (s *AttemptSessionService) Submit(ctx context.Context, attemptID, participantID uuid.UUID) (*model.SubmitAttemptResponse, error) {
	if _, err := s.getOwned(ctx, attemptID, participantID); err != nil {
		return nil, err
	}

	attempt, err := s.attempts.Submit(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("submit attempt: %w", err)
	}

	s.gradingQueue.Enqueue(attemptID)

	var objective float64
	if attempt.ObjectiveScore != nil {
		objective = *attempt.ObjectiveScore
	}

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Float64("objective_score", objective).
		Msg("Attempt submitted")

	return &model.SubmitAttemptResponse{
		AttemptID:      attemptID,
		Status:         attempt.Status,
		ObjectiveScore: objective,
	}, nil
}

// MyResults returns the participant's attempt history.
func (s *AttemptSessionService) MyResults(ctx context.Context, participantID uuid.UUID) ([]model.AttemptResult, error) {
	results, err := s.attempts.ListResultsByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

func (s *AttemptSessionService) getOwned(ctx context.Context, attemptID, participantID uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.attempts.GetOwned(ctx, attemptID, participantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Ownership mismatch is indistinguishable from absence on purpose.
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return attempt, nil
}

// questionCacheTTL bounds how long a stale question payload can be
// served after an instructor edits a published assessment.
const questionCacheTTL = 10 * time.Minute

// loadQuestions serves the participant-facing question payload from
// cache when possible. The JSON tags already strip correct options and
// model answers, so the cached form is safe to hand out as-is.
func (s *AttemptSessionService) loadQuestions(ctx context.Context, assessmentID uuid.UUID) ([]model.Question, error) {
	key := config.CacheKey.AssessmentQuestionsKey(assessmentID.String())

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var questions []model.Question
		if jsonErr := json.Unmarshal(data, &questions); jsonErr == nil {
			return questions, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("assessment_id", assessmentID.String()).Msg("Question cache read failed")
	}

	questions, err := s.questions.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(questions); marshalErr == nil {
		if err := s.rdb.Set(ctx, key, payload, questionCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("assessment_id", assessmentID.String()).Msg("Question cache write failed")
		}
	}
	return questions, nil
}

// cacheStartTime keeps the hot deadline check off PostgreSQL. The TTL
// outlives the longest possible attempt; the DB row stays authoritative.
func (s *AttemptSessionService) cacheStartTime(ctx context.Context, attemptID uuid.UUID, startedAt time.Time, durationMinutes int) {
	key := config.CacheKey.AttemptStartKey(attemptID.String())
	ttl := time.Duration(durationMinutes)*time.Minute + s.grace + time.Hour
	if err := s.rdb.Set(ctx, key, startedAt.Unix(), ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Start time cache write failed")
	}
}

// loadStartTime reads the cached start time, falling back to the
// database value and healing the cache on a miss.
func (s *AttemptSessionService) loadStartTime(ctx context.Context, attempt *model.Attempt) (time.Time, error) {
	key := config.CacheKey.AttemptStartKey(attempt.ID.String())

	val, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		if unix, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
			return time.Unix(unix, 0), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Start time cache read failed")
	}

	if attempt.StartedAt == nil {
		return time.Time{}, ErrAttemptNotStarted
	}

	if err := s.rdb.Set(ctx, key, attempt.StartedAt.Unix(), time.Hour).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Start time cache heal failed")
	}
	return *attempt.StartedAt, nil
}
