package bootstrap

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/citas-assistant/internal/config"
	"github.com/wolfman30/citas-assistant/internal/fallback"
	"github.com/wolfman30/citas-assistant/pkg/logging"
)

// BuildFallbackClient chains OpenRouter with the optional Gemini and Bedrock
// secondaries. Providers that fail to initialize are skipped with a warning.
func BuildFallbackClient(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) *fallback.ChainClient {
	if logger == nil {
		logger = logging.Default()
	}
	var clients []fallback.LLMClient

	if cfg.OpenRouterAPIKey != "" {
		client, err := fallback.NewOpenRouterClient(fallback.OpenRouterConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Model:   cfg.OpenRouterModel,
			Referer: cfg.OpenRouterReferer,
			Title:   cfg.OpenRouterTitle,
		})
		if err != nil {
			logger.Warn("openrouter client unavailable", "error", err)
		} else {
			clients = append(clients, client)
		}
	}

	if cfg.GeminiAPIKey != "" {
		client, err := fallback.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			clients = append(clients, client)
		}
	}

	if cfg.BedrockModelID != "" && loadAWS != nil {
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			logger.Warn("bedrock client unavailable", "error", err)
		} else {
			clients = append(clients, fallback.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID))
		}
	}

	logger.Info("fallback providers configured", "count", len(clients))
	return fallback.NewChainClient(logger, clients...)
}
