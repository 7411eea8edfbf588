// Command fallbacktest sends one question through every configured fallback
// provider and prints each answer.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"

	"github.com/wolfman30/citas-assistant/cmd/mainconfig"
	"github.com/wolfman30/citas-assistant/internal/catalog"
	appconfig "github.com/wolfman30/citas-assistant/internal/config"
	"github.com/wolfman30/citas-assistant/internal/fallback"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}
	cfg := appconfig.Load()

	question := "¿Qué horario tiene la clínica los sábados?"
	if len(os.Args) > 1 {
		question = strings.Join(os.Args[1:], " ")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cat, err := catalog.Load(cfg.ServiceCatalogJSON)
	if err != nil {
		fmt.Printf("invalid SERVICE_CATALOG_JSON: %v\n", err)
		os.Exit(1)
	}
	req := fallback.LLMRequest{
		System:    []string{fallback.SystemPrompt(cat.Names())},
		Messages:  []fallback.ChatMessage{{Role: fallback.ChatRoleUser, Content: question}},
		MaxTokens: int32(cfg.FallbackMaxTokens),
	}

	fmt.Printf("Question: %s\n", question)

	if cfg.OpenRouterAPIKey != "" {
		client, err := fallback.NewOpenRouterClient(fallback.OpenRouterConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Model:   cfg.OpenRouterModel,
			Referer: cfg.OpenRouterReferer,
			Title:   cfg.OpenRouterTitle,
		})
		run(ctx, "OpenRouter", client, err, req)
	} else {
		fmt.Println("\n[OpenRouter] skipped (OPENROUTER_API_KEY not set)")
	}

	if cfg.GeminiAPIKey != "" {
		client, err := fallback.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		run(ctx, "Gemini", client, err, req)
		if client != nil {
			_ = client.Close()
		}
	} else {
		fmt.Println("\n[Gemini] skipped (GEMINI_API_KEY not set)")
	}

	if cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		var client fallback.LLMClient
		if err == nil {
			client = fallback.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		}
		run(ctx, "Bedrock", client, err, req)
	} else {
		fmt.Println("\n[Bedrock] skipped (BEDROCK_MODEL_ID not set)")
	}
}

func run(ctx context.Context, name string, client fallback.LLMClient, initErr error, req fallback.LLMRequest) {
	fmt.Printf("\n[%s]\n", name)
	if initErr != nil {
		fmt.Printf("    init failed: %v\n", initErr)
		return
	}
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		fmt.Printf("    error after %v: %v\n", elapsed, err)
		return
	}
	fmt.Printf("    answer (%v): %s\n", elapsed, resp.Text)
	fmt.Printf("    tokens: in=%d out=%d stop=%s\n", resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.StopReason)
}
