package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examtrack/examtrack-backend/internal/model"
)

// GradingRepository handles AI grade audit logs and grading recovery scans.
type GradingRepository struct {
	pool *pgxpool.Pool
}

// NewGradingRepository creates a new GradingRepository.
func NewGradingRepository(pool *pgxpool.Pool) *GradingRepository {
	return &GradingRepository{pool: pool}
}

// InsertLog appends one audit row for a scored essay answer.
func (r *GradingRepository) InsertLog(ctx context.Context, l *model.AIGradeLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ai_grade_logs (id, answer_id, attempt_id, score, explanation, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		l.ID, l.AnswerID, l.AttemptID, l.Score, l.Explanation, l.Confidence,
	)
	return err
}

// ListUngradedAttempts finds graded attempts that have non-empty essay
// answers but no AI score yet. Used by the optional startup recovery
// scan; the in-memory queue itself is volatile.
func (r *GradingRepository) ListUngradedAttempts(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT a.id
		 FROM attempts a
		 JOIN answers ans ON ans.attempt_id = a.id
		 JOIN questions q ON q.id = ans.question_id
		 WHERE a.status = $1
		   AND a.ai_score IS NULL
		   AND q.type = $2
		   AND ans.answer_text IS NOT NULL
		   AND btrim(ans.answer_text) <> ''`,
		model.AttemptStatusGraded, model.QuestionTypeEssay,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
