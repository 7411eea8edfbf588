package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const redisKeyPrefix = "booking_session:"

// RedisStore persists sessions as JSON values whose TTL is refreshed on every Put.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore builds a Redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("citas.internal.session.redis"),
		now:    time.Now,
	}
}

func (s *RedisStore) Get(ctx context.Context, sender string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.redis.get")
	defer span.End()

	data, err := s.redis.Get(ctx, redisKey(sender)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: load from redis: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: decode redis value: %v", ErrCorrupt, err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sender string, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	ctx, span := s.tracer.Start(ctx, "session.redis.put")
	defer span.End()

	sess.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: encode redis value: %w", err)
	}
	if err := s.redis.Set(ctx, redisKey(sender), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: persist to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Reset(ctx context.Context, sender string) error {
	ctx, span := s.tracer.Start(ctx, "session.redis.reset")
	defer span.End()

	if err := s.redis.Del(ctx, redisKey(sender)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: delete from redis: %w", err)
	}
	return nil
}

func redisKey(sender string) string {
	return redisKeyPrefix + sender
}
