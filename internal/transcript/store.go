// Package transcript records each inbound message and its reply per sender.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyPrefix          = "booking_transcript:"
	defaultTTL         = 24 * time.Hour
	defaultMaxMessages = 200
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	ProviderID string    `json:"provider_message_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store keeps a capped Redis list per sender. A nil *Store is a no-op so
// callers need not check whether Redis is configured.
type Store struct {
	redis       *redis.Client
	tracer      trace.Tracer
	ttl         time.Duration
	maxMessages int64
}

func NewStore(client *redis.Client) *Store {
	if client == nil {
		return nil
	}
	return &Store{
		redis:       client,
		tracer:      otel.Tracer("citas.internal.transcript"),
		ttl:         defaultTTL,
		maxMessages: defaultMaxMessages,
	}
}

func (s *Store) Append(ctx context.Context, sender string, msg Message) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if sender == "" {
		return errors.New("transcript: sender required")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	msg.Sender = sender

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("transcript: marshal message: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "transcript.append")
	defer span.End()

	key := keyPrefix + sender
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -s.maxMessages, -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("transcript: append message: %w", err)
	}
	return nil
}

// List returns the most recent limit messages, oldest first. A limit of zero
// returns everything kept.
func (s *Store) List(ctx context.Context, sender string, limit int64) ([]Message, error) {
	if s == nil || s.redis == nil {
		return []Message{}, nil
	}
	if sender == "" {
		return nil, errors.New("transcript: sender required")
	}

	ctx, span := s.tracer.Start(ctx, "transcript.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	raw, err := s.redis.LRange(ctx, keyPrefix+sender, start, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		return nil, fmt.Errorf("transcript: list messages: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Clear drops the sender's transcript.
func (s *Store) Clear(ctx context.Context, sender string) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, keyPrefix+sender).Err(); err != nil {
		return fmt.Errorf("transcript: clear: %w", err)
	}
	return nil
}
