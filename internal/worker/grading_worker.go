package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examtrack/examtrack-backend/internal/grading"
	"github.com/examtrack/examtrack-backend/internal/model"
)

// EssayStore is the answer access the queue needs.
type EssayStore interface {
	ListEssaysByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.EssayAnswer, error)
	SetScore(ctx context.Context, answerID uuid.UUID, score float64) error
}

// AttemptScoreStore persists the accumulated AI total onto the attempt.
type AttemptScoreStore interface {
	SetAIScore(ctx context.Context, attemptID uuid.UUID, aiScore float64) error
}

// AuditStore appends grade audit rows and serves the recovery scan.
type AuditStore interface {
	InsertLog(ctx context.Context, l *model.AIGradeLog) error
	ListUngradedAttempts(ctx context.Context) ([]uuid.UUID, error)
}

// GradingQueue is a bounded-concurrency in-memory job queue for essay
// grading. Enqueue never blocks and never fails on depth; at most
// maxConcurrency jobs process at once. The queue is volatile — contents
// are lost on restart; RecoverUngraded re-seeds it from the database.
type GradingQueue struct {
	answers  EssayStore
	attempts AttemptScoreStore
	audits   AuditStore
	scorer   grading.Scorer
	log      zerolog.Logger

	maxConcurrency int
	scoreTimeout   time.Duration

	mu     sync.Mutex
	queue  []uuid.UUID
	active int

	wg sync.WaitGroup
}

// NewGradingQueue creates a GradingQueue. maxConcurrency is the job
// ceiling; scoreTimeout bounds each external scoring call so a hung
// collaborator cannot hold a slot indefinitely.
func NewGradingQueue(
	answers EssayStore,
	attempts AttemptScoreStore,
	audits AuditStore,
	scorer grading.Scorer,
	maxConcurrency int,
	scoreTimeout time.Duration,
	log zerolog.Logger,
) *GradingQueue {
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	if scoreTimeout <= 0 {
		scoreTimeout = 30 * time.Second
	}
	return &GradingQueue{
		answers:        answers,
		attempts:       attempts,
		audits:         audits,
		scorer:         scorer,
		maxConcurrency: maxConcurrency,
		scoreTimeout:   scoreTimeout,
		log:            log.With().Str("component", "grading_queue").Logger(),
	}
}

// Enqueue appends an attempt to the queue and triggers a drain.
func (q *GradingQueue) Enqueue(attemptID uuid.UUID) {
	q.wg.Add(1)
	q.mu.Lock()
	q.queue = append(q.queue, attemptID)
	q.mu.Unlock()
	q.drain()
}

// Wait blocks until every enqueued job has finished. Used by shutdown
// and tests.
func (q *GradingQueue) Wait() {
	q.wg.Wait()
}

// RecoverUngraded scans for graded attempts with essay answers and no AI
// score and re-enqueues them. Run once at startup when enabled.
func (q *GradingQueue) RecoverUngraded(ctx context.Context) error {
	ids, err := q.audits.ListUngradedAttempts(ctx)
	if err != nil {
		return fmt.Errorf("scan ungraded attempts: %w", err)
	}
	for _, id := range ids {
		q.Enqueue(id)
	}
	if len(ids) > 0 {
		q.log.Info().Int("count", len(ids)).Msg("Recovered ungraded attempts")
	}
	return nil
}

// drain starts jobs while slots are free and work remains. Called on
// enqueue and on every job completion.
func (q *GradingQueue) drain() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.active < q.maxConcurrency && len(q.queue) > 0 {
		attemptID := q.queue[0]
		q.queue = q.queue[1:]
		q.active++
		go q.run(attemptID)
	}
}

func (q *GradingQueue) run(attemptID uuid.UUID) {
	defer q.wg.Done()

	if err := q.process(context.Background(), attemptID); err != nil {
		q.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Grading job failed")
	}

	q.mu.Lock()
	q.active--
	q.mu.Unlock()
	q.drain()
}

// process grades one attempt's essays. A scorer failure for one answer
// skips that answer only; the job errors only when the database itself
// is unreachable.
func (q *GradingQueue) process(ctx context.Context, attemptID uuid.UUID) error {
	essays, err := q.answers.ListEssaysByAttempt(ctx, attemptID)
	if err != nil {
		return fmt.Errorf("fetch essays: %w", err)
	}

	var total float64
	for _, e := range essays {
		if strings.TrimSpace(e.AnswerText) == "" {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, q.scoreTimeout)
		result, err := q.scorer.Score(callCtx, e.AnswerText, e.ModelAnswer, e.MaxPoints)
		cancel()
		if err != nil {
			q.log.Warn().Err(err).
				Str("attempt_id", attemptID.String()).
				Str("answer_id", e.AnswerID.String()).
				Msg("Scoring failed, answer left ungraded")
			continue
		}

		if err := q.answers.SetScore(ctx, e.AnswerID, result.Score); err != nil {
			return fmt.Errorf("persist score: %w", err)
		}

		if err := q.audits.InsertLog(ctx, &model.AIGradeLog{
			ID:          uuid.New(),
			AnswerID:    e.AnswerID,
			AttemptID:   attemptID,
			Score:       result.Score,
			Explanation: result.Explanation,
			Confidence:  result.Confidence,
		}); err != nil {
			q.log.Error().Err(err).Str("answer_id", e.AnswerID.String()).Msg("Audit log insert failed")
		}

		total += result.Score
	}

	if err := q.attempts.SetAIScore(ctx, attemptID, total); err != nil {
		return fmt.Errorf("persist ai score: %w", err)
	}

	q.log.Info().
		Str("attempt_id", attemptID.String()).
		Float64("ai_score", total).
		Int("essays", len(essays)).
		Msg("Attempt essay grading complete")
	return nil
}
