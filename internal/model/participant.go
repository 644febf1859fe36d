package model

import (
	"time"

	"github.com/google/uuid"
)

// Participant is an exam taker. The image paths are verification
// artifacts; their presence (not a separate flag) satisfies the
// face/card proctoring prerequisites.
type Participant struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	FaceImagePath *string   `json:"-"`
	CardImagePath *string   `json:"-"`
}

// RoomVerification marks that a participant verified a room code.
// Inserting an existing pair is a no-op.
type RoomVerification struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	RoomCode      string    `json:"room_code"`
	VerifiedAt    time.Time `json:"verified_at"`
}

// AIGradeLog is one audit row per scored essay answer.
type AIGradeLog struct {
	ID          uuid.UUID `json:"id"`
	AnswerID    uuid.UUID `json:"answer_id"`
	AttemptID   uuid.UUID `json:"attempt_id"`
	Score       float64   `json:"score"`
	Explanation string    `json:"explanation"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}
