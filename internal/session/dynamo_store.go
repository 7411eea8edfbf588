package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/citas-assistant/internal/availability"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type slotRecord struct {
	Start string `dynamodbav:"start"`
	End   string `dynamodbav:"end"`
}

type sessionRecord struct {
	SenderID        string       `dynamodbav:"senderId"`
	Step            string       `dynamodbav:"step"`
	Service         string       `dynamodbav:"service,omitempty"`
	DoctorID        string       `dynamodbav:"doctorId,omitempty"`
	Date            string       `dynamodbav:"date,omitempty"`
	ServiceOptions  []string     `dynamodbav:"serviceOptions,omitempty"`
	DateOptions     []string     `dynamodbav:"dateOptions,omitempty"`
	SlotOptions     []slotRecord `dynamodbav:"slotOptions,omitempty"`
	InvalidAttempts int          `dynamodbav:"invalidAttempts"`
	UpdatedAt       string       `dynamodbav:"updatedAt"`
	ExpiresAt       int64        `dynamodbav:"expiresAt,omitempty"`
}

// DynamoStore persists sessions in a DynamoDB table keyed by senderId. The
// expiresAt attribute is meant for the table's TTL setting; items past it are
// treated as absent because DynamoDB deletes them lazily.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	tracer    trace.Tracer
	now       func() time.Time
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string, ttl time.Duration) *DynamoStore {
	if client == nil {
		panic("session: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("session: table name cannot be empty")
	}
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		tracer:    otel.Tracer("citas.internal.session.dynamodb"),
		now:       time.Now,
	}
}

func (s *DynamoStore) key(sender string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"senderId": &types.AttributeValueMemberS{Value: sender},
	}
}

func (s *DynamoStore) Get(ctx context.Context, sender string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.dynamodb.get")
	defer span.End()

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(sender),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: load from dynamodb: %w", err)
	}
	if len(out.Item) == 0 {
		return New(), nil
	}

	var rec sessionRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: decode dynamodb item: %v", ErrCorrupt, err)
	}
	if rec.ExpiresAt > 0 && s.now().Unix() > rec.ExpiresAt {
		return New(), nil
	}
	return rec.toSession(), nil
}

func (s *DynamoStore) Put(ctx context.Context, sender string, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	ctx, span := s.tracer.Start(ctx, "session.dynamodb.put")
	defer span.End()

	now := s.now().UTC()
	sess.UpdatedAt = now
	rec := recordFromSession(sender, sess)
	if s.ttl > 0 {
		rec.ExpiresAt = now.Add(s.ttl).Unix()
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: encode dynamodb item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: persist to dynamodb: %w", err)
	}
	return nil
}

func (s *DynamoStore) Reset(ctx context.Context, sender string) error {
	ctx, span := s.tracer.Start(ctx, "session.dynamodb.reset")
	defer span.End()

	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(sender),
	}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: delete from dynamodb: %w", err)
	}
	return nil
}

func recordFromSession(sender string, sess *Session) sessionRecord {
	rec := sessionRecord{
		SenderID:        sender,
		Step:            string(sess.Step),
		Service:         sess.Service,
		DoctorID:        sess.DoctorID,
		Date:            sess.Date,
		ServiceOptions:  sess.ServiceOptions,
		DateOptions:     sess.DateOptions,
		InvalidAttempts: sess.InvalidAttempts,
		UpdatedAt:       sess.UpdatedAt.Format(time.RFC3339Nano),
	}
	for _, slot := range sess.SlotOptions {
		rec.SlotOptions = append(rec.SlotOptions, slotRecord{Start: slot.Start, End: slot.End})
	}
	return rec
}

func (r sessionRecord) toSession() *Session {
	sess := &Session{
		Step:            Step(r.Step),
		Service:         r.Service,
		DoctorID:        r.DoctorID,
		Date:            r.Date,
		ServiceOptions:  r.ServiceOptions,
		DateOptions:     r.DateOptions,
		InvalidAttempts: r.InvalidAttempts,
	}
	for _, slot := range r.SlotOptions {
		sess.SlotOptions = append(sess.SlotOptions, availability.Slot{Start: slot.Start, End: slot.End})
	}
	if ts, err := time.Parse(time.RFC3339Nano, r.UpdatedAt); err == nil {
		sess.UpdatedAt = ts
	}
	return sess
}
