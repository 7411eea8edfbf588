// Package bootstrap assembles the booking assistant from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/citas-assistant/internal/api/router"
	"github.com/wolfman30/citas-assistant/internal/availability"
	"github.com/wolfman30/citas-assistant/internal/catalog"
	appconfig "github.com/wolfman30/citas-assistant/internal/config"
	"github.com/wolfman30/citas-assistant/internal/dialogue"
	"github.com/wolfman30/citas-assistant/internal/fallback"
	"github.com/wolfman30/citas-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/citas-assistant/internal/http/middleware"
	"github.com/wolfman30/citas-assistant/internal/messaging"
	"github.com/wolfman30/citas-assistant/internal/observability/metrics"
	"github.com/wolfman30/citas-assistant/internal/session"
	"github.com/wolfman30/citas-assistant/pkg/logging"
)

// Options carry process-specific collaborators.
type Options struct {
	// Registerer receives the dialogue metrics; defaults to a fresh registry.
	Registerer prometheus.Registerer
	// Gatherer backs /metrics; must match Registerer when both are set.
	Gatherer prometheus.Gatherer
	LoadAWS  AWSConfigLoader
	// VerifyRedis pings Redis at startup and disables it when unreachable.
	VerifyRedis bool
}

// App is the assembled HTTP application.
type App struct {
	Handler  http.Handler
	Sessions session.Store
	Machine  *dialogue.Machine

	redis   *redis.Client
	limiter *httpmiddleware.RateLimiter
}

// Build wires configuration into a ready-to-serve App.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	for _, w := range cfg.Warnings() {
		logger.Warn("configuration warning", "detail", w)
	}

	if opts.Registerer == nil {
		reg := prometheus.NewRegistry()
		opts.Registerer = reg
		opts.Gatherer = reg
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	dialogueMetrics := metrics.NewDialogueMetrics(opts.Registerer)

	cat, err := catalog.Load(cfg.ServiceCatalogJSON)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load catalog: %w", err)
	}

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Warn("unknown clinic timezone; using UTC", "timezone", cfg.ClinicTimezone, "error", err)
		loc = time.UTC
	}

	redisClient := BuildRedisClient(ctx, cfg, logger, opts.VerifyRedis)
	sessions, err := BuildSessionStore(ctx, cfg, redisClient, opts.LoadAWS, logger)
	if err != nil {
		return nil, err
	}

	responder := fallback.NewResponder(BuildFallbackClient(ctx, cfg, opts.LoadAWS, logger), fallback.Options{
		MaxTokens: int32(cfg.FallbackMaxTokens),
		Timeout:   cfg.FallbackTimeout,
		Services:  cat.Names(),
		Logger:    logger,
		Metrics:   dialogueMetrics,
	})

	machine := dialogue.New(dialogue.Deps{
		Store:   sessions,
		Locker:  session.NewLocker(),
		Catalog: cat,
		Fetcher: availability.NewClient(availability.Config{
			BaseURL: cfg.AvailabilityBaseURL,
			APIKey:  cfg.AvailabilityAPIKey,
			Timeout: cfg.AvailabilityTimeout,
		}),
		Answerer: responder,
		Metrics:  dialogueMetrics,
		Logger:   logger,
	}, dialogue.Settings{
		HorizonDays:        cfg.HorizonDays,
		MaxInvalidAttempts: cfg.MaxInvalidAttempts,
		Location:           loc,
	})

	transcripts := BuildTranscriptStore(redisClient)
	var limiter *httpmiddleware.RateLimiter
	if cfg.WebhookRateLimit > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.WebhookRateLimit, cfg.WebhookRateBurst)
	}

	handler := router.New(&router.Config{
		Logger:           logger,
		MessagingHandler: messaging.NewHandler(cfg.TwilioAuthToken, cfg.PublicBaseURL, machine, transcripts, logger),
		AdminSessions:    handlers.NewAdminSessionsHandler(sessions, transcripts, cat, logger),
		AdminAuthSecret:  cfg.AdminJWTSecret,
		MetricsHandler:   promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}),
		WebhookLimiter:   limiter,
	})

	return &App{
		Handler:  handler,
		Sessions: sessions,
		Machine:  machine,
		redis:    redisClient,
		limiter:  limiter,
	}, nil
}

// Start runs background maintenance until ctx is done.
func (a *App) Start(ctx context.Context) {
	if mem, ok := a.Sessions.(*session.MemoryStore); ok {
		mem.StartSweeper(ctx, time.Minute)
	}
	if a.limiter != nil {
		a.limiter.StartEviction(ctx, 5*time.Minute)
	}
}

// Close releases external connections.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
