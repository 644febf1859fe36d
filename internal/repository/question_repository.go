package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examtrack/examtrack-backend/internal/model"
)

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByAssessment returns the assessment's questions ordered by the
// explicit position key with ID order as fallback, with options attached
// to objective questions. Correct flags and model answers stay out of
// the JSON representation.
func (r *QuestionRepository) ListByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assessment_id, type, text, points, position, model_answer
		 FROM questions
		 WHERE assessment_id = $1
		 ORDER BY position ASC NULLS LAST, id ASC`,
		assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.AssessmentID, &q.Type, &q.Text, &q.Points, &q.Position, &q.ModelAnswer); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.text, o.position, o.is_correct
		 FROM question_options o
		 JOIN questions q ON q.id = o.question_id
		 WHERE q.assessment_id = $1
		 ORDER BY o.position ASC NULLS LAST, o.id ASC`,
		assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.QuestionOption
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Position, &o.IsCorrect); err != nil {
			return nil, err
		}
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

// GetMeta retrieves the type, points and owning assessment of a question.
func (r *QuestionRepository) GetMeta(ctx context.Context, questionID uuid.UUID) (*model.QuestionMeta, error) {
	m := &model.QuestionMeta{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, assessment_id, type, points FROM questions WHERE id = $1`,
		questionID,
	).Scan(&m.ID, &m.AssessmentID, &m.Type, &m.Points)
	if err != nil {
		return nil, err
	}
	return m, nil
}
