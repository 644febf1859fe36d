// Package broadcast fans accepted cheating events out to live observers.
// Events travel over a Redis Pub/Sub channel per assessment, so every
// instance holding observer WebSockets receives them regardless of which
// instance recorded the event.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examtrack/examtrack-backend/internal/config"
	"github.com/examtrack/examtrack-backend/internal/model"
)

// Broadcaster publishes cheating events to an assessment's channel.
type Broadcaster struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewBroadcaster creates a new Broadcaster.
func NewBroadcaster(rdb *redis.Client, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		rdb: rdb,
		log: log.With().Str("component", "broadcaster").Logger(),
	}
}

// Publish delivers one event payload to the assessment's observers.
// Observers are best-effort listeners: an unreachable Redis is an error
// for the caller to log, never to surface to the student.
func (b *Broadcaster) Publish(ctx context.Context, assessmentID uuid.UUID, payload *model.CheatingEventPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	channel := config.CacheKey.AssessmentMonitorChannel(assessmentID.String())
	if err := b.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	b.log.Debug().
		Str("assessment_id", assessmentID.String()).
		Str("event_type", payload.EventType).
		Msg("Event broadcast")
	return nil
}

// Subscribe opens a subscription to the assessment's channel. The caller
// owns the returned PubSub and must Close it.
func (b *Broadcaster) Subscribe(ctx context.Context, assessmentID uuid.UUID) *redis.PubSub {
	channel := config.CacheKey.AssessmentMonitorChannel(assessmentID.String())
	return b.rdb.Subscribe(ctx, channel)
}
