package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examtrack/examtrack-backend/internal/config"
	"github.com/examtrack/examtrack-backend/internal/model"
)

type fakeAssessmentStore struct {
	byRoom map[string]*model.Assessment
}

func (f *fakeAssessmentStore) GetPublishedByRoomCode(_ context.Context, roomCode string) (*model.Assessment, error) {
	a, ok := f.byRoom[roomCode]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeAssessmentStore) GetPublishedByIDAndRoomCode(_ context.Context, id uuid.UUID, roomCode string) (*model.Assessment, error) {
	a, ok := f.byRoom[roomCode]
	if !ok || a.ID != id {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

// fakeAttemptAllocator hands out sequential attempt numbers per
// (assessment, participant), mimicking the database's MAX+1 allocation.
type fakeAttemptAllocator struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeAttemptAllocator() *fakeAttemptAllocator {
	return &fakeAttemptAllocator{counts: make(map[string]int)}
}

func (f *fakeAttemptAllocator) key(assessmentID, participantID uuid.UUID) string {
	return assessmentID.String() + "/" + participantID.String()
}

func (f *fakeAttemptAllocator) Count(_ context.Context, assessmentID, participantID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[f.key(assessmentID, participantID)], nil
}

func (f *fakeAttemptAllocator) CreateNext(_ context.Context, assessmentID, participantID uuid.UUID, _ string) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(assessmentID, participantID)
	f.counts[k]++
	return &model.Attempt{
		ID:            uuid.New(),
		AssessmentID:  assessmentID,
		ParticipantID: participantID,
		AttemptNumber: f.counts[k],
		Status:        model.AttemptStatusPending,
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "test-secret",
		AdmissionTTL: 15 * time.Minute,
		AppTZOffset:  "+07:00",
		AnswerGrace:  15 * time.Second,
	}
}

func publishedAssessment(roomCode string) *model.Assessment {
	code := roomCode
	return &model.Assessment{
		ID:              uuid.New(),
		InstructorID:    uuid.New(),
		Title:           "Midterm",
		DurationMinutes: 60,
		RoomCode:        &code,
		Status:          model.AssessmentStatusPublished,
	}
}

func newAdmissionFixture(t *testing.T, assessment *model.Assessment, cfg *config.Config) (*AdmissionService, *fakeAttemptAllocator) {
	t.Helper()
	store := &fakeAssessmentStore{byRoom: map[string]*model.Assessment{}}
	if assessment != nil && assessment.RoomCode != nil {
		store.byRoom[*assessment.RoomCode] = assessment
	}
	allocator := newFakeAttemptAllocator()
	svc, err := NewAdmissionService(store, allocator, NewTokenService(cfg), cfg, zerolog.Nop())
	require.NoError(t, err)
	return svc, allocator
}

func TestVerifyRoomMintsUsableToken(t *testing.T) {
	cfg := testConfig()
	assessment := publishedAssessment("MATH-101")
	svc, _ := newAdmissionFixture(t, assessment, cfg)

	resp, err := svc.VerifyRoom(context.Background(), "MATH-101", nil)
	require.NoError(t, err)
	assert.Equal(t, assessment.ID, resp.AssessmentID)
	assert.Equal(t, "Midterm", resp.Title)
	assert.NotEmpty(t, resp.AdmissionToken)

	claims, err := NewTokenService(cfg).VerifyAdmissionToken(resp.AdmissionToken)
	require.NoError(t, err)
	assert.Equal(t, assessment.ID, claims.AssessmentID)
	assert.Equal(t, "MATH-101", claims.RoomCode)
}

func TestVerifyRoomTrimsWhitespace(t *testing.T) {
	svc, _ := newAdmissionFixture(t, publishedAssessment("MATH-101"), testConfig())

	resp, err := svc.VerifyRoom(context.Background(), "  MATH-101  ", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AdmissionToken)
}

func TestVerifyRoomUnknownCode(t *testing.T) {
	svc, _ := newAdmissionFixture(t, publishedAssessment("MATH-101"), testConfig())

	_, err := svc.VerifyRoom(context.Background(), "NOPE-999", nil)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestVerifyRoomTimeWindow(t *testing.T) {
	cfg := testConfig()

	t.Run("before open", func(t *testing.T) {
		assessment := publishedAssessment("MATH-101")
		open := time.Now().Add(time.Hour)
		assessment.OpenAt = &open
		svc, _ := newAdmissionFixture(t, assessment, cfg)

		_, err := svc.VerifyRoom(context.Background(), "MATH-101", nil)
		assert.ErrorIs(t, err, ErrBeforeOpen)
	})

	t.Run("after close", func(t *testing.T) {
		assessment := publishedAssessment("MATH-101")
		closeAt := time.Now().Add(-time.Hour)
		assessment.CloseAt = &closeAt
		svc, _ := newAdmissionFixture(t, assessment, cfg)

		_, err := svc.VerifyRoom(context.Background(), "MATH-101", nil)
		assert.ErrorIs(t, err, ErrAfterClose)
	})
}

func TestJoinAllocatesIncreasingAttemptNumbers(t *testing.T) {
	cfg := testConfig()
	assessment := publishedAssessment("MATH-101")
	svc, _ := newAdmissionFixture(t, assessment, cfg)
	participantID := uuid.New()

	for want := 1; want <= 3; want++ {
		verify, err := svc.VerifyRoom(context.Background(), "MATH-101", &participantID)
		require.NoError(t, err)

		join, err := svc.Join(context.Background(), verify.AdmissionToken, participantID)
		require.NoError(t, err)
		assert.Equal(t, want, join.AttemptNumber)
	}
}

func TestJoinEnforcesMaxAttempts(t *testing.T) {
	cfg := testConfig()
	assessment := publishedAssessment("MATH-101")
	assessment.MaxAttempts = 2
	svc, _ := newAdmissionFixture(t, assessment, cfg)
	participantID := uuid.New()

	for i := 0; i < 2; i++ {
		verify, err := svc.VerifyRoom(context.Background(), "MATH-101", &participantID)
		require.NoError(t, err)
		_, err = svc.Join(context.Background(), verify.AdmissionToken, participantID)
		require.NoError(t, err)
	}

	// Third verify already reports exhaustion.
	_, err := svc.VerifyRoom(context.Background(), "MATH-101", &participantID)
	assert.ErrorIs(t, err, ErrMaxAttemptsExceeded)

	// A fresh token minted directly must not bypass the join re-check.
	token, err := NewTokenService(cfg).MintAdmissionToken(assessment.ID, "MATH-101")
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), token, participantID)
	assert.ErrorIs(t, err, ErrMaxAttemptsExceeded)
}

func TestJoinQuotaIsPerParticipant(t *testing.T) {
	cfg := testConfig()
	assessment := publishedAssessment("MATH-101")
	assessment.MaxAttempts = 1
	svc, _ := newAdmissionFixture(t, assessment, cfg)

	first, second := uuid.New(), uuid.New()

	verify, err := svc.VerifyRoom(context.Background(), "MATH-101", &first)
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), verify.AdmissionToken, first)
	require.NoError(t, err)

	// The second participant is unaffected by the first's exhaustion.
	verify, err = svc.VerifyRoom(context.Background(), "MATH-101", &second)
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), verify.AdmissionToken, second)
	require.NoError(t, err)
}

func TestJoinRejectsBadTokens(t *testing.T) {
	cfg := testConfig()
	assessment := publishedAssessment("MATH-101")
	svc, _ := newAdmissionFixture(t, assessment, cfg)
	participantID := uuid.New()

	t.Run("garbled", func(t *testing.T) {
		_, err := svc.Join(context.Background(), "not-a-jwt", participantID)
		assert.ErrorIs(t, err, ErrAdmissionInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		expiredCfg := testConfig()
		expiredCfg.AdmissionTTL = -time.Minute
		token, err := NewTokenService(expiredCfg).MintAdmissionToken(assessment.ID, "MATH-101")
		require.NoError(t, err)

		_, err = svc.Join(context.Background(), token, participantID)
		assert.ErrorIs(t, err, ErrAdmissionExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		otherCfg := testConfig()
		otherCfg.JWTSecret = "another-secret"
		token, err := NewTokenService(otherCfg).MintAdmissionToken(assessment.ID, "MATH-101")
		require.NoError(t, err)

		_, err = svc.Join(context.Background(), token, participantID)
		assert.ErrorIs(t, err, ErrAdmissionInvalid)
	})
}

func TestJoinRejectsUnpublishedSinceVerification(t *testing.T) {
	cfg := testConfig()
	assessment := publishedAssessment("MATH-101")
	store := &fakeAssessmentStore{byRoom: map[string]*model.Assessment{"MATH-101": assessment}}
	svc, err := NewAdmissionService(store, newFakeAttemptAllocator(), NewTokenService(cfg), cfg, zerolog.Nop())
	require.NoError(t, err)
	participantID := uuid.New()

	verify, err := svc.VerifyRoom(context.Background(), "MATH-101", &participantID)
	require.NoError(t, err)

	// Assessment taken down between verify and join.
	delete(store.byRoom, "MATH-101")

	_, err = svc.Join(context.Background(), verify.AdmissionToken, participantID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
