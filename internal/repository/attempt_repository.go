package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examtrack/examtrack-backend/internal/model"
)

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, assessment_id, participant_id, attempt_no, status, started_at,
	 submitted_at, objective_score, ai_score, suggested_total, confirmed_total, cheating_count`

func scanAttempt(row interface{ Scan(dest ...any) error }) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(
		&a.ID, &a.AssessmentID, &a.ParticipantID, &a.AttemptNumber, &a.Status, &a.StartedAt,
		&a.SubmittedAt, &a.ObjectiveScore, &a.AIScore, &a.SuggestedTotal, &a.ConfirmedTotal, &a.CheatingCount,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Count returns the number of attempt rows for a (assessment, participant)
// pair, regardless of status. Pending attempts count.
func (r *AttemptRepository) Count(ctx context.Context, assessmentID, participantID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE assessment_id = $1 AND participant_id = $2`,
		assessmentID, participantID,
	).Scan(&n)
	return n, err
}

// CreateNext records the room verification idempotently and inserts a new
// pending attempt numbered MAX(attempt_no)+1 for the pair, in one
// transaction. The UNIQUE (assessment_id, participant_id, attempt_no)
// constraint guarantees numbers never repeat under concurrent joins.
func (r *AttemptRepository) CreateNext(ctx context.Context, assessmentID, participantID uuid.UUID, roomCode string) (*model.Attempt, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO room_verifications (participant_id, room_code, verified_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (participant_id, room_code) DO NOTHING`,
		participantID, roomCode,
	)
	if err != nil {
		return nil, fmt.Errorf("record room verification: %w", err)
	}

	a := &model.Attempt{
		ID:            uuid.New(),
		AssessmentID:  assessmentID,
		ParticipantID: participantID,
		Status:        model.AttemptStatusPending,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO attempts (id, assessment_id, participant_id, attempt_no, status, cheating_count)
		 SELECT $1, $2, $3, COALESCE(MAX(attempt_no), 0) + 1, $4, 0
		 FROM attempts
		 WHERE assessment_id = $2 AND participant_id = $3
		 RETURNING attempt_no`,
		a.ID, assessmentID, participantID, model.AttemptStatusPending,
	).Scan(&a.AttemptNumber)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// GetOwned retrieves an attempt only if it belongs to the participant.
func (r *AttemptRepository) GetOwned(ctx context.Context, id, participantID uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1 AND participant_id = $2`,
		id, participantID,
	))
}

// Start advances the attempt to in_progress. started_at uses first-write-
// wins semantics: the COALESCE makes repeated starts a no-op on the clock.
func (r *AttemptRepository) Start(ctx context.Context, id uuid.UUID) (time.Time, error) {
	var startedAt time.Time
	err := r.pool.QueryRow(ctx,
		`UPDATE attempts
		 SET status = $2, started_at = COALESCE(started_at, NOW())
		 WHERE id = $1
		 RETURNING started_at`,
		id, model.AttemptStatusInProgress,
	).Scan(&startedAt)
	return startedAt, err
}

// RecomputeObjectiveScore recomputes the attempt's objective score by
// summing all objective answer scores in a single atomic statement. A
// recompute (not an increment) is robust to answer changes and to
// concurrent upserts for different questions.
func (r *AttemptRepository) RecomputeObjectiveScore(ctx context.Context, id uuid.UUID) (float64, error) {
	var score float64
	err := r.pool.QueryRow(ctx,
		`UPDATE attempts
		 SET objective_score = (
		 	SELECT COALESCE(SUM(a.score), 0)
		 	FROM answers a
		 	JOIN questions q ON q.id = a.question_id
		 	WHERE a.attempt_id = attempts.id AND q.type = $2
		 )
		 WHERE id = $1
		 RETURNING objective_score`,
		id, model.QuestionTypeObjective,
	).Scan(&score)
	return score, err
}

// Submit grades all objective answers in one aggregate pass, then marks
// the attempt graded with first-write-wins submitted_at. Idempotent:
// re-running re-derives the same scores.
func (r *AttemptRepository) Submit(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE answers a
		 SET score = CASE WHEN o.is_correct THEN q.points ELSE 0 END,
		     grading_status = $2
		 FROM questions q
		 JOIN question_options o ON o.question_id = q.id
		 WHERE a.attempt_id = $1
		   AND a.question_id = q.id
		   AND a.selected_option_id = o.id
		   AND q.type = $3`,
		id, model.GradingStatusGraded, model.QuestionTypeObjective,
	)
	if err != nil {
		return nil, fmt.Errorf("grade objective answers: %w", err)
	}

	a, err := scanAttempt(tx.QueryRow(ctx,
		`UPDATE attempts
		 SET status = $2,
		     submitted_at = COALESCE(submitted_at, NOW()),
		     objective_score = (
		     	SELECT COALESCE(SUM(ans.score), 0)
		     	FROM answers ans
		     	JOIN questions q ON q.id = ans.question_id
		     	WHERE ans.attempt_id = attempts.id AND q.type = $3
		     ),
		     suggested_total = (
		     	SELECT COALESCE(SUM(ans.score), 0)
		     	FROM answers ans
		     	JOIN questions q ON q.id = ans.question_id
		     	WHERE ans.attempt_id = attempts.id AND q.type = $3
		     ) + COALESCE(ai_score, 0)
		 WHERE id = $1
		 RETURNING `+attemptColumns,
		id, model.AttemptStatusGraded, model.QuestionTypeObjective,
	))
	if err != nil {
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// SetAIScore stores the accumulated essay score and refreshes the
// suggested total. Touches only the AI columns; objective grading and
// cheating counts are concurrent writers to other columns of the row.
func (r *AttemptRepository) SetAIScore(ctx context.Context, id uuid.UUID, aiScore float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET ai_score = $2,
		     suggested_total = COALESCE(objective_score, 0) + $2
		 WHERE id = $1`,
		id, aiScore,
	)
	return err
}

// ListResultsByParticipant returns the participant's attempt history with
// scores, newest first.
func (r *AttemptRepository) ListResultsByParticipant(ctx context.Context, participantID uuid.UUID) ([]model.AttemptResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.assessment_id, s.title, a.attempt_no, a.status, a.submitted_at,
		        a.objective_score, a.ai_score, a.suggested_total, a.confirmed_total
		 FROM attempts a
		 JOIN assessments s ON s.id = a.assessment_id
		 WHERE a.participant_id = $1
		 ORDER BY a.submitted_at DESC NULLS LAST, a.attempt_no DESC`,
		participantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.AttemptResult
	for rows.Next() {
		var res model.AttemptResult
		if err := rows.Scan(
			&res.AttemptID, &res.AssessmentID, &res.AssessmentTitle, &res.AttemptNumber, &res.Status,
			&res.SubmittedAt, &res.ObjectiveScore, &res.AIScore, &res.SuggestedTotal, &res.ConfirmedTotal,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
