package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/citas-assistant/internal/availability"
)

type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
	err   error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func senderKey(key map[string]types.AttributeValue) string {
	if v, ok := key["senderId"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[senderKey(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.items[senderKey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, senderKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeDynamo()
	store := NewDynamoStore(api, "booking_sessions", 30*time.Minute)
	now := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	fresh, err := store.Get(ctx, "+5215550000001")
	require.NoError(t, err)
	assert.Equal(t, StepStart, fresh.Step)

	s := New()
	s.SelectService("Pediatría", "102")
	require.NoError(t, s.SelectDate("2025-07-11"))
	s.Advance(StepSlotChoice)
	s.DateOptions = []string{"2025-07-10", "2025-07-11"}
	s.SlotOptions = []availability.Slot{{Start: "2025-07-11 09:00:00", End: "2025-07-11 09:30:00"}}
	require.NoError(t, store.Put(ctx, "+5215550000001", s))

	item := api.items["+5215550000001"]
	require.NotNil(t, item)
	expires, ok := item["expiresAt"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "1752139800", expires.Value)

	got, err := store.Get(ctx, "+5215550000001")
	require.NoError(t, err)
	assert.Equal(t, StepSlotChoice, got.Step)
	assert.Equal(t, "Pediatría", got.Service)
	assert.Equal(t, s.DateOptions, got.DateOptions)
	assert.Equal(t, s.SlotOptions, got.SlotOptions)
	assert.True(t, got.UpdatedAt.Equal(now))

	now = now.Add(31 * time.Minute)
	got, err = store.Get(ctx, "+5215550000001")
	require.NoError(t, err)
	assert.Equal(t, StepStart, got.Step, "items past expiresAt are ignored")

	require.NoError(t, store.Reset(ctx, "+5215550000001"))
	assert.Empty(t, api.items)
}

func TestDynamoStoreErrors(t *testing.T) {
	api := newFakeDynamo()
	api.err = errors.New("throttled")
	store := NewDynamoStore(api, "t", time.Minute)

	_, err := store.Get(context.Background(), "a")
	assert.ErrorContains(t, err, "throttled")
	assert.NotErrorIs(t, err, ErrCorrupt)
	assert.Error(t, store.Put(context.Background(), "a", New()))
	assert.Error(t, store.Reset(context.Background(), "a"))
}

func TestDynamoStoreCorruptItem(t *testing.T) {
	api := newFakeDynamo()
	api.items["a"] = map[string]types.AttributeValue{
		"senderId":        &types.AttributeValueMemberS{Value: "a"},
		"step":            &types.AttributeValueMemberS{Value: "date_choice"},
		"invalidAttempts": &types.AttributeValueMemberS{Value: "many"},
	}
	store := NewDynamoStore(api, "t", time.Minute)

	_, err := store.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrCorrupt)
}
