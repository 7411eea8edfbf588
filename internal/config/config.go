package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Twilio inbound webhook
	TwilioAuthToken  string
	WebhookRateLimit float64
	WebhookRateBurst int

	// Scheduling provider
	AvailabilityBaseURL string
	AvailabilityAPIKey  string
	AvailabilityTimeout time.Duration

	// Fallback text generation (OpenRouter, OpenAI-compatible)
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	OpenRouterReferer string
	OpenRouterTitle   string
	FallbackMaxTokens int
	FallbackTimeout   time.Duration

	// Secondary fallback providers
	GeminiAPIKey   string
	GeminiModel    string
	BedrockModelID string

	// Session storage
	SessionBackend string
	SessionTTL     time.Duration
	SessionTable   string
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Dialogue policy
	ClinicTimezone     string
	HorizonDays        int
	MaxInvalidAttempts int
	ServiceCatalogJSON string

	AdminJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 5),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 20),

		AvailabilityBaseURL: strings.TrimSuffix(getEnv("AVAILABILITY_BASE_URL", ""), "/"),
		AvailabilityAPIKey:  getEnv("AVAILABILITY_API_KEY", ""),
		AvailabilityTimeout: getEnvAsDuration("AVAILABILITY_TIMEOUT", 10*time.Second),

		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "mistralai/mistral-7b-instruct:free"),
		OpenRouterReferer: getEnv("OPENROUTER_REFERER", "https://tusitio.com"),
		OpenRouterTitle:   getEnv("OPENROUTER_TITLE", "Asistente Médico"),
		FallbackMaxTokens: getEnvAsInt("FALLBACK_MAX_TOKENS", 300),
		FallbackTimeout:   getEnvAsDuration("FALLBACK_TIMEOUT", 20*time.Second),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),

		SessionBackend: strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "memory"))),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		SessionTable:   getEnv("SESSION_TABLE", "booking_sessions"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ClinicTimezone:     getEnv("CLINIC_TIMEZONE", "America/Mexico_City"),
		HorizonDays:        getEnvAsInt("HORIZON_DAYS", 14),
		MaxInvalidAttempts: getEnvAsInt("MAX_INVALID_ATTEMPTS", 3),
		ServiceCatalogJSON: getEnv("SERVICE_CATALOG_JSON", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// AvailabilityConfigured reports whether the scheduling provider credentials are present.
func (c *Config) AvailabilityConfigured() bool {
	return c != nil && c.AvailabilityBaseURL != "" && c.AvailabilityAPIKey != ""
}

// FallbackConfigured reports whether at least one text-generation provider is usable.
func (c *Config) FallbackConfigured() bool {
	return c != nil && (c.OpenRouterAPIKey != "" || c.GeminiAPIKey != "" || c.BedrockModelID != "")
}

// Warnings lists missing settings that degrade features instead of stopping the process.
func (c *Config) Warnings() []string {
	var out []string
	if !c.AvailabilityConfigured() {
		out = append(out, "AVAILABILITY_BASE_URL/AVAILABILITY_API_KEY not set; booking steps will reply with a configuration error")
	}
	if !c.FallbackConfigured() {
		out = append(out, "no fallback model configured; free-form questions will reply with a configuration error")
	}
	if c.SessionBackend == "redis" && c.RedisAddr == "" {
		out = append(out, "SESSION_BACKEND=redis without REDIS_ADDR; using in-memory sessions")
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
