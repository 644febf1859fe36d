package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examtrack/examtrack-backend/internal/model"
)

// AnswerRepository handles answer data access. The UNIQUE
// (attempt_id, question_id) constraint keeps at most one row per pair;
// re-submission overwrites.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// UpsertObjective stores a selected option for a question, clearing any
// essay text, and scores the row against the catalog's correct option in
// the same statement.
func (r *AnswerRepository) UpsertObjective(ctx context.Context, attemptID, questionID, optionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO answers (id, attempt_id, question_id, selected_option_id, answer_text, score, grading_status)
		 SELECT $1, $2, q.id, o.id, NULL,
		        CASE WHEN o.is_correct THEN q.points ELSE 0 END, $5
		 FROM questions q
		 JOIN question_options o ON o.question_id = q.id
		 WHERE q.id = $3 AND o.id = $4
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET selected_option_id = EXCLUDED.selected_option_id,
		     answer_text = NULL,
		     score = EXCLUDED.score,
		     grading_status = EXCLUDED.grading_status`,
		uuid.New(), attemptID, questionID, optionID, model.GradingStatusGraded,
	)
	return err
}

// UpsertEssay stores free text for a question, clearing any selected
// option. Essay rows stay pending until the grading worker scores them.
func (r *AnswerRepository) UpsertEssay(ctx context.Context, attemptID, questionID uuid.UUID, text string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO answers (id, attempt_id, question_id, selected_option_id, answer_text, score, grading_status)
		 VALUES ($1, $2, $3, NULL, $4, NULL, $5)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET answer_text = EXCLUDED.answer_text,
		     selected_option_id = NULL,
		     score = NULL,
		     grading_status = EXCLUDED.grading_status`,
		uuid.New(), attemptID, questionID, text, model.GradingStatusPending,
	)
	return err
}

// ListEssaysByAttempt fetches the attempt's non-empty essay answers with
// the model answer and max points needed for scoring.
func (r *AnswerRepository) ListEssaysByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.EssayAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.question_id, a.answer_text, COALESCE(q.model_answer, ''), q.points
		 FROM answers a
		 JOIN questions q ON q.id = a.question_id
		 WHERE a.attempt_id = $1
		   AND q.type = $2
		   AND a.answer_text IS NOT NULL
		   AND btrim(a.answer_text) <> ''`,
		attemptID, model.QuestionTypeEssay,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var essays []model.EssayAnswer
	for rows.Next() {
		var e model.EssayAnswer
		if err := rows.Scan(&e.AnswerID, &e.QuestionID, &e.AnswerText, &e.ModelAnswer, &e.MaxPoints); err != nil {
			return nil, err
		}
		essays = append(essays, e)
	}
	return essays, rows.Err()
}

// SetScore stores an essay answer's AI score and marks it graded.
func (r *AnswerRepository) SetScore(ctx context.Context, answerID uuid.UUID, score float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE answers SET score = $2, grading_status = $3 WHERE id = $1`,
		answerID, score, model.GradingStatusGraded,
	)
	return err
}
