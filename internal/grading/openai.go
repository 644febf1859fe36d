package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig defines configuration options for the OpenAI scorer.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // Optional; empty means the public API
	Model       string
	MaxTokens   int
	Temperature float32
}

// OpenAIScorer implements Scorer against an OpenAI-compatible chat
// completion API.
type OpenAIScorer struct {
	client *openai.Client
	cfg    OpenAIConfig
	log    zerolog.Logger
}

// NewOpenAIScorer builds a scorer from the provided configuration.
func NewOpenAIScorer(cfg OpenAIConfig, log zerolog.Logger) (*OpenAIScorer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIScorer{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		log:    log.With().Str("component", "openai_scorer").Logger(),
	}, nil
}

// Score sends one essay answer for grading and parses the JSON verdict.
// The returned score is clamped to [0, maxPoints].
func (s *OpenAIScorer) Score(ctx context.Context, studentAnswer, modelAnswer string, maxPoints float64) (EssayScore, error) {
	request := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: scorerSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildScoringPrompt(studentAnswer, modelAnswer, maxPoints),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return EssayScore{}, fmt.Errorf("openai score: %w", err)
	}
	if len(resp.Choices) == 0 {
		return EssayScore{}, fmt.Errorf("no choices returned from openai")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := ParseScoreResponse(content, maxPoints)
	if err != nil {
		s.log.Error().Err(err).Str("content", content).Msg("Unparseable scoring response")
		return EssayScore{}, err
	}
	return result, nil
}

func scorerSystemPrompt() string {
	return "You are an exam grader. Compare the student's answer against the model answer and respond " +
		"with a JSON object: score (a number between 0 and the given maximum), explanation (one short " +
		"paragraph), confidence (0-1). Award partial credit for partially correct answers."
}

func buildScoringPrompt(studentAnswer, modelAnswer string, maxPoints float64) string {
	b := strings.Builder{}
	b.WriteString("## Model answer\n")
	b.WriteString(modelAnswer)
	b.WriteString("\n\n## Student answer\n")
	b.WriteString(studentAnswer)
	fmt.Fprintf(&b, "\n\n## Maximum points\n%g\nReturn JSON.", maxPoints)
	return b.String()
}

// ParseScoreResponse decodes a scoring verdict and clamps the score to
// [0, maxPoints].
func ParseScoreResponse(content string, maxPoints float64) (EssayScore, error) {
	var data EssayScore
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return EssayScore{}, fmt.Errorf("parse score json: %w", err)
	}

	if data.Score < 0 {
		data.Score = 0
	}
	if data.Score > maxPoints {
		data.Score = maxPoints
	}
	if data.Confidence < 0 {
		data.Confidence = 0
	}
	if data.Confidence > 1 {
		data.Confidence = 1
	}
	return data, nil
}
