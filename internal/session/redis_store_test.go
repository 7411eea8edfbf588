package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/citas-assistant/internal/availability"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, 30*time.Minute)

	fresh, err := store.Get(ctx, "+5215550000001")
	require.NoError(t, err)
	assert.Equal(t, StepStart, fresh.Step)

	s := New()
	s.SelectService("Pediatría", "102")
	require.NoError(t, s.SelectDate("2025-07-11"))
	s.Advance(StepSlotChoice)
	s.SlotOptions = []availability.Slot{{Start: "2025-07-11 09:00:00", End: "2025-07-11 09:30:00"}}
	require.NoError(t, store.Put(ctx, "+5215550000001", s))

	assert.Equal(t, 30*time.Minute, mr.TTL(redisKeyPrefix+"+5215550000001"))

	got, err := store.Get(ctx, "+5215550000001")
	require.NoError(t, err)
	assert.Equal(t, StepSlotChoice, got.Step)
	assert.Equal(t, "102", got.DoctorID)
	assert.Equal(t, s.SlotOptions, got.SlotOptions)

	require.NoError(t, store.Reset(ctx, "+5215550000001"))
	got, err = store.Get(ctx, "+5215550000001")
	require.NoError(t, err)
	assert.Equal(t, StepStart, got.Step)
}

func TestRedisStoreExpiresThroughTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, time.Minute)

	s := New()
	s.Advance(StepServiceChoice)
	require.NoError(t, store.Put(ctx, "a", s))
	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StepStart, got.Step)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	require.NoError(t, mr.Set(redisKeyPrefix+"a", "{not json"))

	_, err := store.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, store.Put(context.Background(), "a", New()))
	got, err := store.Get(context.Background(), "a")
	require.NoError(t, err, "a fresh Put replaces the unreadable value")
	assert.Equal(t, StepStart, got.Step)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	mr.Close()

	_, err := store.Get(context.Background(), "a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCorrupt)
}
