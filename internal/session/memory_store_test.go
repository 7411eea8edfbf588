package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUnknownSenderStartsAtStart(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	for _, sender := range []string{"whatsapp:+5215550000001", "+15555550123", "x"} {
		s, err := store.Get(context.Background(), sender)
		require.NoError(t, err)
		assert.Equal(t, StepStart, s.Step)
	}
	assert.Zero(t, store.Len(), "Get does not persist")
}

func TestMemoryStorePutGetReset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	s := New()
	s.Advance(StepServiceChoice)
	s.ServiceOptions = []string{"Pediatría"}
	require.NoError(t, store.Put(ctx, "a", s))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StepServiceChoice, got.Step)
	assert.False(t, got.UpdatedAt.IsZero())

	got.ServiceOptions[0] = "mutated"
	again, _ := store.Get(ctx, "a")
	assert.Equal(t, "Pediatría", again.ServiceOptions[0], "store keeps its own copy")

	require.NoError(t, store.Reset(ctx, "a"))
	fresh, _ := store.Get(ctx, "a")
	assert.Equal(t, StepStart, fresh.Step)
}

func TestMemoryStoreExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(30 * time.Minute)
	store.now = func() time.Time { return now }

	s := New()
	s.Advance(StepDateChoice)
	require.NoError(t, store.Put(ctx, "a", s))
	require.NoError(t, store.Put(ctx, "b", s))

	now = now.Add(20 * time.Minute)
	got, _ := store.Get(ctx, "a")
	assert.Equal(t, StepDateChoice, got.Step)

	now = now.Add(15 * time.Minute)
	got, _ = store.Get(ctx, "a")
	assert.Equal(t, StepStart, got.Step)

	assert.Equal(t, 1, store.Sweep(), "b expired and is swept")
	assert.Zero(t, store.Len())
}

func TestMemoryStoreRejectsBadInput(t *testing.T) {
	store := NewMemoryStore(0)
	_, err := store.Get(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, store.Put(context.Background(), "a", nil))
}
