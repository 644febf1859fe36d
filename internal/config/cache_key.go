package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttemptStartKey returns the cache key holding an attempt's started_at
// as a Unix timestamp. The database row is the source of truth; this key
// only keeps the hot read path off PostgreSQL.
func (r *CacheKeyStruct) AttemptStartKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:started_at", attemptID)
}

// AssessmentQuestionsKey returns the cache key for an assessment's
// participant-facing question payload (no correct options).
func (r *CacheKeyStruct) AssessmentQuestionsKey(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:questions", assessmentID)
}

// AssessmentMonitorChannel returns the Redis Pub/Sub channel that carries
// accepted cheating events for live observers of an assessment.
func (r *CacheKeyStruct) AssessmentMonitorChannel(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:monitor", assessmentID)
}

var CacheKey = NewCacheKeyStruct()
