package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examtrack/examtrack-backend/internal/model"
)

// ProctorEventRepository handles proctoring event data access.
type ProctorEventRepository struct {
	pool *pgxpool.Pool
}

// NewProctorEventRepository creates a new ProctorEventRepository.
func NewProctorEventRepository(pool *pgxpool.Pool) *ProctorEventRepository {
	return &ProctorEventRepository{pool: pool}
}

// InsertAndIncrement persists an accepted event and bumps the attempt's
// cheating count by exactly 1, in one transaction. Returns the new count.
func (r *ProctorEventRepository) InsertAndIncrement(ctx context.Context, e *model.ProctorEvent) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO proctor_events (id, attempt_id, event_type, severity, details, detected_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.AttemptID, e.EventType, e.Severity, e.Details, e.DetectedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`UPDATE attempts SET cheating_count = cheating_count + 1
		 WHERE id = $1
		 RETURNING cheating_count`,
		e.AttemptID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment cheating count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return count, nil
}

// ListByAssessment returns persisted events for an assessment since the
// given time, joined with participant identity, newest first.
func (r *ProctorEventRepository) ListByAssessment(ctx context.Context, assessmentID uuid.UUID, since time.Time) ([]model.Violation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.attempt_id, p.id, p.name, e.event_type, e.severity, e.details, e.detected_at
		 FROM proctor_events e
		 JOIN attempts a ON a.id = e.attempt_id
		 JOIN participants p ON p.id = a.participant_id
		 WHERE a.assessment_id = $1 AND e.detected_at >= $2
		 ORDER BY e.detected_at DESC`,
		assessmentID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []model.Violation
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(
			&v.EventID, &v.AttemptID, &v.ParticipantID, &v.ParticipantName,
			&v.EventType, &v.Severity, &v.Details, &v.DetectedAt,
		); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}
