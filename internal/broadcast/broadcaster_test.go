package broadcast

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examtrack/examtrack-backend/internal/model"
)

func TestPublishReachesSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	b := NewBroadcaster(rdb, zerolog.Nop())
	ctx := context.Background()
	assessmentID := uuid.New()

	sub := b.Subscribe(ctx, assessmentID)
	t.Cleanup(func() { _ = sub.Close() })

	// Subscription must be established before publishing.
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	payload := &model.CheatingEventPayload{
		AttemptID:       uuid.New(),
		ParticipantID:   uuid.New(),
		ParticipantName: "Alex",
		EventType:       "tab_switch",
		Severity:        model.SeverityHigh,
		DetectedAt:      time.Now().UTC().Truncate(time.Second),
		CheatingCount:   3,
	}
	require.NoError(t, b.Publish(ctx, assessmentID, payload))

	select {
	case msg := <-sub.Channel():
		var got model.CheatingEventPayload
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, payload.AttemptID, got.AttemptID)
		assert.Equal(t, "tab_switch", got.EventType)
		assert.Equal(t, model.SeverityHigh, got.Severity)
		assert.Equal(t, 3, got.CheatingCount)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestChannelsAreScopedPerAssessment(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	b := NewBroadcaster(rdb, zerolog.Nop())
	ctx := context.Background()

	observed := uuid.New()
	other := uuid.New()

	sub := b.Subscribe(ctx, observed)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, other, &model.CheatingEventPayload{EventType: "tab_switch"}))

	select {
	case msg := <-sub.Channel():
		t.Fatalf("unexpected cross-assessment delivery: %s", msg.Payload)
	case <-time.After(200 * time.Millisecond):
	}
}
