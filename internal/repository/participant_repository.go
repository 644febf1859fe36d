package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ParticipantRepository handles participant data access.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// VerificationArtifacts reports whether the participant has stored face
// and card verification images. Presence of the artifact, not a separate
// boolean column, is what satisfies the proctoring prerequisites.
func (r *ParticipantRepository) VerificationArtifacts(ctx context.Context, participantID uuid.UUID) (faceOK, cardOK bool, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT face_image_path IS NOT NULL, card_image_path IS NOT NULL
		 FROM participants
		 WHERE id = $1`,
		participantID,
	).Scan(&faceOK, &cardOK)
	return faceOK, cardOK, err
}

// GetName returns the participant's display name.
func (r *ParticipantRepository) GetName(ctx context.Context, participantID uuid.UUID) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx,
		`SELECT name FROM participants WHERE id = $1`, participantID,
	).Scan(&name)
	return name, err
}
