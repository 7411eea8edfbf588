package fallback

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/citas-assistant/internal/observability/metrics"
	"github.com/wolfman30/citas-assistant/internal/reply"
	"github.com/wolfman30/citas-assistant/pkg/logging"
)

const (
	defaultMaxTokens = 300
	defaultTimeout   = 20 * time.Second
)

// Options tune the responder.
type Options struct {
	MaxTokens int32
	Timeout   time.Duration
	Services  []string
	Logger    *logging.Logger
	Metrics   *metrics.DialogueMetrics
}

// Responder turns a free-form question into a user-ready answer. It never
// returns an error; failures become fixed replies.
type Responder struct {
	client    LLMClient
	maxTokens int32
	timeout   time.Duration
	system    string
	logger    *logging.Logger
	metrics   *metrics.DialogueMetrics
	tracer    trace.Tracer
}

// NewResponder wraps client. A nil client yields a responder that always
// answers with the configuration error.
func NewResponder(client LLMClient, opts Options) *Responder {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Responder{
		client:    client,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		system:    SystemPrompt(opts.Services),
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		tracer:    otel.Tracer("citas.internal.fallback"),
	}
}

// SystemPrompt restricts the model to the clinic's services.
func SystemPrompt(services []string) string {
	var sb strings.Builder
	sb.WriteString("Eres un asistente de una clínica médica que ayuda a agendar citas. ")
	sb.WriteString("Responde siempre en español, de forma breve y amable. ")
	if len(services) > 0 {
		sb.WriteString("Los únicos servicios disponibles son: ")
		sb.WriteString(strings.Join(services, ", "))
		sb.WriteString(". No inventes otros servicios, médicos ni horarios. ")
	}
	sb.WriteString("No des diagnósticos médicos. ")
	sb.WriteString("Si la persona quiere agendar, indícale que responda \"sí\" o escriba \"agendar <servicio> el DD/MM\".")
	return sb.String()
}

// Answer asks the model and returns its trimmed answer.
func (r *Responder) Answer(ctx context.Context, question string) string {
	if r == nil || r.client == nil {
		r.observe("not_configured")
		return reply.ConfigError
	}

	ctx, span := r.tracer.Start(ctx, "fallback.answer")
	defer span.End()
	span.SetAttributes(attribute.Int("citas.fallback.question_len", len(question)))

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Model is left empty so every provider in a chain uses its own.
	resp, err := r.client.Complete(ctx, LLMRequest{
		System:    []string{r.system},
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: question}},
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		if errors.Is(err, ErrNotConfigured) {
			r.observe("not_configured")
			return reply.ConfigError
		}
		r.logger.Error("fallback completion failed", "error", err)
		r.observe("error")
		return reply.FallbackApology
	}

	answer := strings.TrimSpace(resp.Text)
	if answer == "" {
		r.logger.Warn("fallback completion was empty")
		r.observe("empty")
		return reply.FallbackApology
	}
	span.SetAttributes(attribute.Int("citas.fallback.output_tokens", int(resp.Usage.OutputTokens)))
	r.observe("ok")
	return answer
}

func (r *Responder) observe(status string) {
	if r == nil {
		return
	}
	r.metrics.ObserveFallback(status)
}
