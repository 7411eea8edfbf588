package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/citas-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/citas-assistant/internal/http/middleware"
	"github.com/wolfman30/citas-assistant/internal/messaging"
	"github.com/wolfman30/citas-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	MessagingHandler *messaging.Handler
	AdminSessions    *handlers.AdminSessionsHandler
	AdminAuthSecret  string
	MetricsHandler   http.Handler
	WebhookLimiter   *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.MessagingHandler == nil {
		panic("router: messaging handler cannot be nil")
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(webhooks chi.Router) {
		webhooks.Use(httpmiddleware.RateLimit(cfg.WebhookLimiter))
		webhooks.Post("/webhook", cfg.MessagingHandler.TwilioWebhook)
		webhooks.Post("/messaging/twilio/webhook", cfg.MessagingHandler.TwilioWebhook)
	})

	if cfg.AdminSessions != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			cfg.AdminSessions.Routes(admin)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
