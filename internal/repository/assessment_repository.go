package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examtrack/examtrack-backend/internal/model"
)

// AssessmentRepository handles assessment data access.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

const assessmentColumns = `id, instructor_id, title, duration_minutes, open_at, close_at,
	 room_code, max_attempts, require_face_check, require_card_check, monitor_screen, status`

func scanAssessment(row interface{ Scan(dest ...any) error }) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := row.Scan(
		&a.ID, &a.InstructorID, &a.Title, &a.DurationMinutes, &a.OpenAt, &a.CloseAt,
		&a.RoomCode, &a.MaxAttempts, &a.RequireFaceCheck, &a.RequireCardCheck, &a.MonitorScreen, &a.Status,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetPublishedByRoomCode retrieves a published assessment by its room code.
func (r *AssessmentRepository) GetPublishedByRoomCode(ctx context.Context, roomCode string) (*model.Assessment, error) {
	return scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE room_code = $1 AND status = $2`,
		roomCode, model.AssessmentStatusPublished,
	))
}

// GetPublishedByIDAndRoomCode retrieves a published assessment only if it
// still carries the given room code. Used at join time to defend against
// publish/unpublish races after the admission token was minted.
func (r *AssessmentRepository) GetPublishedByIDAndRoomCode(ctx context.Context, id uuid.UUID, roomCode string) (*model.Assessment, error) {
	return scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE id = $1 AND room_code = $2 AND status = $3`,
		id, roomCode, model.AssessmentStatusPublished,
	))
}

// GetByID retrieves an assessment by ID regardless of status.
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	return scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE id = $1`, id,
	))
}
