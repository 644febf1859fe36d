package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examtrack/examtrack-backend/internal/grading"
	"github.com/examtrack/examtrack-backend/internal/model"
)

// fakeStore implements EssayStore, AttemptScoreStore and AuditStore over
// in-memory maps.
type fakeStore struct {
	mu       sync.Mutex
	essays   map[uuid.UUID][]model.EssayAnswer
	scores   map[uuid.UUID]float64 // answerID → score
	aiScores map[uuid.UUID]float64 // attemptID → total
	logs     []model.AIGradeLog

	setScoreErr  error
	insertLogErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		essays:   make(map[uuid.UUID][]model.EssayAnswer),
		scores:   make(map[uuid.UUID]float64),
		aiScores: make(map[uuid.UUID]float64),
	}
}

func (f *fakeStore) ListEssaysByAttempt(_ context.Context, attemptID uuid.UUID) ([]model.EssayAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.essays[attemptID], nil
}

func (f *fakeStore) SetScore(_ context.Context, answerID uuid.UUID, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setScoreErr != nil {
		return f.setScoreErr
	}
	f.scores[answerID] = score
	return nil
}

func (f *fakeStore) SetAIScore(_ context.Context, attemptID uuid.UUID, aiScore float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aiScores[attemptID] = aiScore
	return nil
}

func (f *fakeStore) InsertLog(_ context.Context, l *model.AIGradeLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertLogErr != nil {
		return f.insertLogErr
	}
	f.logs = append(f.logs, *l)
	return nil
}

func (f *fakeStore) ListUngradedAttempts(context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

// countingScorer tracks concurrent in-flight calls.
type countingScorer struct {
	active    int64
	maxActive int64
	calls     int64
	delay     time.Duration
	err       error
	score     float64
}

func (s *countingScorer) Score(_ context.Context, _, _ string, maxPoints float64) (grading.EssayScore, error) {
	cur := atomic.AddInt64(&s.active, 1)
	defer atomic.AddInt64(&s.active, -1)
	atomic.AddInt64(&s.calls, 1)

	// Record the high-water mark of concurrent calls.
	for {
		max := atomic.LoadInt64(&s.maxActive)
		if cur <= max || atomic.CompareAndSwapInt64(&s.maxActive, max, cur) {
			break
		}
	}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return grading.EssayScore{}, s.err
	}
	score := s.score
	if score > maxPoints {
		score = maxPoints
	}
	return grading.EssayScore{Score: score, Explanation: "ok", Confidence: 0.9}, nil
}

func essay(text string, points float64) model.EssayAnswer {
	return model.EssayAnswer{
		AnswerID:    uuid.New(),
		QuestionID:  uuid.New(),
		AnswerText:  text,
		ModelAnswer: "reference",
		MaxPoints:   points,
	}
}

func TestGradingQueueConcurrencyCeiling(t *testing.T) {
	store := newFakeStore()
	scorer := &countingScorer{delay: 20 * time.Millisecond, score: 1}

	attempts := make([]uuid.UUID, 20)
	for i := range attempts {
		id := uuid.New()
		attempts[i] = id
		store.essays[id] = []model.EssayAnswer{essay("answer", 5)}
	}

	q := NewGradingQueue(store, store, store, scorer, 8, time.Second, zerolog.Nop())
	for _, id := range attempts {
		q.Enqueue(id)
	}
	q.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&scorer.maxActive), int64(8))
	assert.Equal(t, int64(20), atomic.LoadInt64(&scorer.calls))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.aiScores, 20, "every job must complete")

	q.mu.Lock()
	defer q.mu.Unlock()
	assert.Empty(t, q.queue, "drain must terminate with an empty queue")
	assert.Zero(t, q.active)
}

func TestGradingQueueAccumulatesTotal(t *testing.T) {
	store := newFakeStore()
	scorer := &countingScorer{score: 3}

	attemptID := uuid.New()
	store.essays[attemptID] = []model.EssayAnswer{
		essay("first", 5),
		essay("second", 5),
		essay("third", 2), // clamped by the fake to maxPoints
	}

	q := NewGradingQueue(store, store, store, scorer, 8, time.Second, zerolog.Nop())
	q.Enqueue(attemptID)
	q.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 8.0, store.aiScores[attemptID]) // 3 + 3 + 2
	assert.Len(t, store.logs, 3)
	assert.Len(t, store.scores, 3)
}

func TestGradingQueueSkipsEmptyAnswers(t *testing.T) {
	store := newFakeStore()
	scorer := &countingScorer{score: 2}

	attemptID := uuid.New()
	store.essays[attemptID] = []model.EssayAnswer{
		essay("real answer", 5),
		essay("   ", 5),
		essay("", 5),
	}

	q := NewGradingQueue(store, store, store, scorer, 8, time.Second, zerolog.Nop())
	q.Enqueue(attemptID)
	q.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&scorer.calls))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 2.0, store.aiScores[attemptID])
}

func TestGradingQueueScorerFailureSkipsAnswerOnly(t *testing.T) {
	store := newFakeStore()
	scorer := &countingScorer{err: errors.New("scorer down")}

	attemptID := uuid.New()
	store.essays[attemptID] = []model.EssayAnswer{
		essay("first", 5),
		essay("second", 5),
	}

	q := NewGradingQueue(store, store, store, scorer, 8, time.Second, zerolog.Nop())
	q.Enqueue(attemptID)
	q.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	// Both answers skipped, but the job still completes and writes the
	// (zero) total so the attempt does not look lost.
	assert.Empty(t, store.scores)
	assert.Equal(t, 0.0, store.aiScores[attemptID])
}

func TestGradingQueueAuditFailureIsNonFatal(t *testing.T) {
	store := newFakeStore()
	store.insertLogErr = errors.New("audit table missing")
	scorer := &countingScorer{score: 4}

	attemptID := uuid.New()
	store.essays[attemptID] = []model.EssayAnswer{essay("answer", 5)}

	q := NewGradingQueue(store, store, store, scorer, 8, time.Second, zerolog.Nop())
	q.Enqueue(attemptID)
	q.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.scores, 1)
	assert.Equal(t, 4.0, store.aiScores[attemptID])
	assert.Empty(t, store.logs)
}

func TestGradingQueueRecoverUngraded(t *testing.T) {
	store := newFakeStore()
	scorer := &countingScorer{score: 1}

	first, second := uuid.New(), uuid.New()
	store.essays[first] = []model.EssayAnswer{essay("a", 5)}
	store.essays[second] = []model.EssayAnswer{essay("b", 5)}

	recovered := &recoveringStore{fakeStore: store, ids: []uuid.UUID{first, second}}

	q := NewGradingQueue(store, store, recovered, scorer, 8, time.Second, zerolog.Nop())
	require.NoError(t, q.RecoverUngraded(context.Background()))
	q.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.aiScores, 2)
}

type recoveringStore struct {
	*fakeStore
	ids []uuid.UUID
}

func (r *recoveringStore) ListUngradedAttempts(context.Context) ([]uuid.UUID, error) {
	return r.ids, nil
}
