package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeWindowEvaluate(t *testing.T) {
	loc, err := ParseOffset("+07:00")
	require.NoError(t, err)

	open := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	close := open.Add(2 * time.Hour)
	w := TimeWindow{Open: &open, Close: &close}

	tests := []struct {
		name string
		now  time.Time
		want WindowStatus
	}{
		{"exactly at open is valid", open, WindowValid},
		{"just before open", open.Add(-time.Millisecond), WindowBeforeOpen},
		{"mid window", open.Add(time.Hour), WindowValid},
		{"exactly at close is valid", close, WindowValid},
		{"just after close", close.Add(time.Millisecond), WindowAfterClose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Evaluate(tt.now, loc))
		})
	}
}

func TestTimeWindowEvaluateIgnoresWallClockZone(t *testing.T) {
	loc, err := ParseOffset("+07:00")
	require.NoError(t, err)

	open := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	w := TimeWindow{Open: &open}

	// The same instant expressed in another zone must evaluate
	// identically.
	jakarta := open.In(loc)
	assert.Equal(t, WindowValid, w.Evaluate(jakarta, loc))
	assert.Equal(t, WindowBeforeOpen, w.Evaluate(jakarta.Add(-time.Second), loc))
}

func TestTimeWindowNilBoundsAreUnbounded(t *testing.T) {
	loc := time.UTC
	now := time.Now()

	assert.Equal(t, WindowValid, TimeWindow{}.Evaluate(now, loc))

	open := now.Add(-time.Hour)
	assert.Equal(t, WindowValid, TimeWindow{Open: &open}.Evaluate(now, loc))

	close := now.Add(time.Hour)
	assert.Equal(t, WindowValid, TimeWindow{Close: &close}.Evaluate(now, loc))
}

func TestParseOffset(t *testing.T) {
	loc, err := ParseOffset("+07:00")
	require.NoError(t, err)

	ref := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, offset := ref.In(loc).Zone()
	assert.Equal(t, 7*3600, offset)

	loc, err = ParseOffset("-05:30")
	require.NoError(t, err)
	_, offset = ref.In(loc).Zone()
	assert.Equal(t, -(5*3600 + 30*60), offset)

	_, err = ParseOffset("seven")
	assert.Error(t, err)
}
