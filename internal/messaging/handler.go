package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/citas-assistant/internal/reply"
	"github.com/wolfman30/citas-assistant/internal/transcript"
	"github.com/wolfman30/citas-assistant/pkg/logging"
)

var twilioTracer = otel.Tracer("citas.internal.messaging.twilio")

const maxWebhookBody = 64 << 10

// Dialogue produces the reply to one inbound message.
type Dialogue interface {
	Handle(ctx context.Context, sender, text string) string
}

// Handler serves the Twilio inbound message webhook.
type Handler struct {
	authToken     string
	publicBaseURL string
	dialogue      Dialogue
	transcripts   *transcript.Store
	logger        *logging.Logger
}

// NewHandler creates the webhook handler. Signature validation is enabled when
// authToken is set; publicBaseURL overrides the URL Twilio signed.
func NewHandler(authToken, publicBaseURL string, dialogue Dialogue, transcripts *transcript.Store, logger *logging.Logger) *Handler {
	if dialogue == nil {
		panic("messaging: dialogue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		authToken:     authToken,
		publicBaseURL: strings.TrimSuffix(strings.TrimSpace(publicBaseURL), "/"),
		dialogue:      dialogue,
		transcripts:   transcripts,
		logger:        logger,
	}
}

// TwilioWebhook handles POST /webhook and POST /messaging/twilio/webhook.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.webhook")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	if h.authToken != "" {
		if !ValidateTwilioSignature(r, h.authToken, h.webhookURL(r)) {
			h.logger.Warn("invalid twilio signature")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			span.RecordError(errors.New("invalid twilio signature"))
			return
		}
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	if webhook.From == "" {
		err := errors.New("missing From field")
		h.logger.Error("invalid twilio payload", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	sender := SenderKey(webhook.From)
	span.SetAttributes(
		attribute.String("citas.twilio.message_sid", webhook.MessageSid),
		attribute.String("citas.sender", sender),
		attribute.String("citas.channel", webhook.Channel()),
	)
	logger := h.logger.WithSender(sender)

	body := strings.TrimSpace(webhook.Body)
	if body == "" {
		if webhook.NumMedia > 0 {
			logger.Info("media-only message ignored", "num_media", webhook.NumMedia)
		}
		h.writeTwiML(w, reply.EmptyMessage)
		return
	}

	answer := h.dialogue.Handle(ctx, sender, body)
	h.record(ctx, logger, sender, webhook.MessageSid, body, answer)

	logger.Info("twilio webhook handled", "message_sid", webhook.MessageSid, "channel", webhook.Channel())
	h.writeTwiML(w, answer)
}

func (h *Handler) record(ctx context.Context, logger *logging.Logger, sender, sid, inbound, outbound string) {
	if h.transcripts == nil {
		return
	}
	if err := h.transcripts.Append(ctx, sender, transcript.Message{Role: transcript.RoleUser, Body: inbound, ProviderID: sid}); err != nil {
		logger.Warn("failed to record inbound transcript", "error", err)
		return
	}
	if err := h.transcripts.Append(ctx, sender, transcript.Message{Role: transcript.RoleAssistant, Body: outbound}); err != nil {
		logger.Warn("failed to record reply transcript", "error", err)
	}
}

func (h *Handler) writeTwiML(w http.ResponseWriter, message string) {
	body, err := RenderTwiML(message)
	if err != nil {
		h.logger.Error("failed to render twiml", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) webhookURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL + r.URL.RequestURI()
	}
	return buildAbsoluteURL(r)
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" && r.URL.Host != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
