package grading

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScoreResponse(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		maxPoints      float64
		wantScore      float64
		wantConfidence float64
	}{
		{
			name:           "well formed",
			content:        `{"score": 3.5, "explanation": "mostly correct", "confidence": 0.8}`,
			maxPoints:      5,
			wantScore:      3.5,
			wantConfidence: 0.8,
		},
		{
			name:           "score above max is clamped",
			content:        `{"score": 12, "explanation": "generous", "confidence": 0.9}`,
			maxPoints:      5,
			wantScore:      5,
			wantConfidence: 0.9,
		},
		{
			name:           "negative score is clamped to zero",
			content:        `{"score": -2, "explanation": "punitive", "confidence": 0.5}`,
			maxPoints:      5,
			wantScore:      0,
			wantConfidence: 0.5,
		},
		{
			name:           "confidence out of range is clamped",
			content:        `{"score": 1, "explanation": "sure", "confidence": 1.7}`,
			maxPoints:      5,
			wantScore:      1,
			wantConfidence: 1,
		},
		{
			name:           "missing fields default to zero",
			content:        `{"explanation": "no verdict"}`,
			maxPoints:      5,
			wantScore:      0,
			wantConfidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScoreResponse(tt.content, tt.maxPoints)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
		})
	}
}

func TestParseScoreResponseMalformed(t *testing.T) {
	_, err := ParseScoreResponse("the answer deserves a 4 out of 5", 5)
	assert.Error(t, err)

	_, err = ParseScoreResponse("", 5)
	assert.Error(t, err)
}

func TestNewOpenAIScorerRequiresKey(t *testing.T) {
	_, err := NewOpenAIScorer(OpenAIConfig{}, zerolog.Nop())
	assert.Error(t, err)

	s, err := NewOpenAIScorer(OpenAIConfig{APIKey: "sk-test"}, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, s)
}
