package handlers

import (
	"context"
	"fmt"

	"farmwise/config"
	"farmwise/pkg/llm"
	"farmwise/pkg/weather"
)

var (
	recommendationSvc *RecommendationService
	feedbackSvc       *FeedbackService
)

// Init wires the collaborator clients and the services. Call after
// config.Load and config.Connect.
func Init(ctx context.Context) error {
	generator, err := llm.NewGeminiClient(ctx, config.App.GeminiAPIKey, config.App.GeminiModel,
		config.App.LLMTimeout, config.Logger)
	if err != nil {
		return fmt.Errorf("failed to init text generator: %w", err)
	}
	provider := weather.NewClient(config.App.WeatherBaseURL, config.Logger)

	recommendationSvc = NewRecommendationService(config.DB, generator, provider, config.App, config.Logger)
	feedbackSvc = NewFeedbackService(config.DB, generator, config.Logger)
	return nil
}
