package proctor

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDeduplicatorThrottlesWithinWindow(t *testing.T) {
	d := NewDeduplicator(500*time.Millisecond, 1000, time.Hour)

	now := time.Now()
	d.now = func() time.Time { return now }

	attemptID := uuid.New()

	assert.True(t, d.Accept(attemptID, "tab_switch"))

	// Same key 100ms later: throttled.
	d.now = func() time.Time { return now.Add(100 * time.Millisecond) }
	assert.False(t, d.Accept(attemptID, "tab_switch"))

	// Different event type on the same attempt is an independent key.
	assert.True(t, d.Accept(attemptID, "window_blur"))

	// Different attempt is an independent key too.
	assert.True(t, d.Accept(uuid.New(), "tab_switch"))
}

func TestDeduplicatorAcceptsAfterWindow(t *testing.T) {
	d := NewDeduplicator(500*time.Millisecond, 1000, time.Hour)

	now := time.Now()
	d.now = func() time.Time { return now }

	attemptID := uuid.New()
	assert.True(t, d.Accept(attemptID, "tab_switch"))

	d.now = func() time.Time { return now.Add(600 * time.Millisecond) }
	assert.True(t, d.Accept(attemptID, "tab_switch"))
}

func TestDeduplicatorAcceptRefreshesTimestamp(t *testing.T) {
	d := NewDeduplicator(500*time.Millisecond, 1000, time.Hour)

	now := time.Now()
	d.now = func() time.Time { return now }

	attemptID := uuid.New()
	assert.True(t, d.Accept(attemptID, "tab_switch"))

	// Accepted at t+600ms: the window restarts from there.
	d.now = func() time.Time { return now.Add(600 * time.Millisecond) }
	assert.True(t, d.Accept(attemptID, "tab_switch"))

	d.now = func() time.Time { return now.Add(900 * time.Millisecond) }
	assert.False(t, d.Accept(attemptID, "tab_switch"))
}

func TestDeduplicatorGCSweepsStaleKeys(t *testing.T) {
	// Tiny threshold so a single extra key triggers the sweep.
	d := NewDeduplicator(500*time.Millisecond, 3, time.Hour)

	base := time.Now()
	d.now = func() time.Time { return base }

	stale := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range stale {
		assert.True(t, d.Accept(id, "tab_switch"))
	}
	assert.Equal(t, 3, d.Len())

	// Two hours later the fourth key pushes the map over the threshold
	// and the sweep purges everything older than the retention horizon.
	d.now = func() time.Time { return base.Add(2 * time.Hour) }
	assert.True(t, d.Accept(uuid.New(), "tab_switch"))
	assert.Equal(t, 1, d.Len())
}

func TestDeduplicatorGCKeepsFreshKeys(t *testing.T) {
	d := NewDeduplicator(500*time.Millisecond, 3, time.Hour)

	base := time.Now()
	d.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		assert.True(t, d.Accept(uuid.New(), "tab_switch"))
	}

	// Within retention: the sweep runs but purges nothing.
	d.now = func() time.Time { return base.Add(10 * time.Minute) }
	assert.True(t, d.Accept(uuid.New(), "tab_switch"))
	assert.Equal(t, 4, d.Len())
}

func TestSeverityCatalog(t *testing.T) {
	tests := []struct {
		eventType string
		severity  string
		cheating  bool
	}{
		{"tab_switch", "high", true},
		{"alt_tab", "high", true},
		{"fullscreen_lost", "high", true},
		{"window_blur", "medium", true},
		{"visibility_hidden", "medium", true},
		{"blocked_key", "low", true},
		{"mouse_move", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		sev, ok := Severity(tt.eventType)
		assert.Equal(t, tt.cheating, ok, "event type %q", tt.eventType)
		if tt.cheating {
			assert.Equal(t, tt.severity, string(sev), "event type %q", tt.eventType)
		}
	}
}
