// Package llm wraps the Gemini text-generation API behind a small
// interface so the orchestration layer (and its tests) never touch the
// SDK directly.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// TextGenerator is the text-generation collaborator. Generate returns the
// model's raw text: a transport or API failure is an error, while
// ill-formed content in an otherwise successful response is the caller's
// problem (each caller defines its own parse fallback).
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GeminiClient is the production TextGenerator.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiClient builds a Gemini-backed generator.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Generate runs one prompt with a bounded timeout and JSON response mode.
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.4),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), cfg)
	if err != nil {
		c.logger.Error("Gemini call failed",
			zap.String("model", c.model),
			zap.Error(err),
		)
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}

	c.logger.Info("Gemini call succeeded",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_chars", len(text)),
	)
	return text, nil
}

// ExtractJSON pulls a JSON object out of model output that may be wrapped
// in markdown fences or prose. Returns an error when no valid object can
// be recovered; callers treat that as a parse failure, not a call failure.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	if json.Valid([]byte(s)) {
		return json.RawMessage(s), nil
	}

	// Last resort: take the outermost braces.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, fmt.Errorf("no valid JSON object in model output")
}
