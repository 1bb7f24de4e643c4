// Package dynamodb implements core.ConversationStore on a single DynamoDB
// table: one CTX# item per conversation holding the serialized context
// snapshot, plus append-only MSG# items forming the audit history. Items
// carry a TTL attribute so stale conversations age out server-side.
package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/meetingmesh/meetingmesh/core"
)

const (
	skPrefixMsg = "MSG#"
	skContext   = "CTX#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Store.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store wraps a DynamoDB table as a ConversationStore.
type Store struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new DynamoDB-backed store.
func New(api dynamodbAPI, tableName string) (*Store, error) {
	if api == nil {
		return nil, errors.New("dynamodb: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamodb: table name must not be empty")
	}
	return &Store{api: api, tableName: tableName}, nil
}

// NewFromEnv builds a Store from the ambient AWS configuration (environment,
// shared config files, instance role).
func NewFromEnv(ctx context.Context, tableName string) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), tableName)
}

// convPK returns the partition key for a conversation.
func convPK(conversationID string) string {
	return "CONV#" + conversationID
}

// msgSK returns the sort key for a message. The timestamp prefix keeps
// chronological order; the id suffix disambiguates same-instant messages.
func msgSK(msg core.Message) string {
	return skPrefixMsg + msg.Timestamp.UTC().Format(time.RFC3339Nano) + "#" + msg.ID
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

// GetContext fetches and deserializes the context snapshot, nil when absent.
func (s *Store) GetContext(ctx context.Context, conversationID string) (*core.ConversationContext, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: convPK(conversationID)},
			"SK": &types.AttributeValueMemberS{Value: skContext},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb: GetContext get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}

	body, err := strAttr(out.Item, "context")
	if err != nil {
		return nil, fmt.Errorf("dynamodb: GetContext: %w", err)
	}
	var convCtx core.ConversationContext
	if err := json.Unmarshal([]byte(body), &convCtx); err != nil {
		return nil, fmt.Errorf("dynamodb: GetContext unmarshal: %w", err)
	}
	return &convCtx, nil
}

// PutContext serializes and stores the full context snapshot.
func (s *Store) PutContext(ctx context.Context, conversationID string, convCtx *core.ConversationContext) error {
	body, err := json.Marshal(convCtx)
	if err != nil {
		return fmt.Errorf("dynamodb: PutContext marshal: %w", err)
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":             &types.AttributeValueMemberS{Value: convPK(conversationID)},
			"SK":             &types.AttributeValueMemberS{Value: skContext},
			"conversationId": &types.AttributeValueMemberS{Value: conversationID},
			"context":        &types.AttributeValueMemberS{Value: string(body)},
			"ttl":            &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb: PutContext: %w", err)
	}
	return nil
}

// AppendMessage persists one audit message item.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, msg core.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	item := map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: convPK(conversationID)},
		"SK":             &types.AttributeValueMemberS{Value: msgSK(msg)},
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
		"id":             &types.AttributeValueMemberS{Value: msg.ID},
		"role":           &types.AttributeValueMemberS{Value: string(msg.Role)},
		"content":        &types.AttributeValueMemberS{Value: msg.Content},
		"timestamp":      &types.AttributeValueMemberS{Value: msg.Timestamp.UTC().Format(time.RFC3339Nano)},
		"ttl":            &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())},
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("dynamodb: AppendMessage: %w", err)
	}
	return nil
}

// ListRecentMessages queries MSG# items newest-first so the limit favors the
// most recent history, then reverses to chronological order.
func (s *Store) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]core.Message, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: convPK(conversationID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixMsg},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := s.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: ListRecentMessages query: %w", err)
	}

	msgs := make([]core.Message, 0, len(out.Items))
	for _, item := range out.Items {
		msg, err := itemToMessage(item)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: ListRecentMessages unmarshal: %w", err)
		}
		msgs = append(msgs, msg)
	}
	// Reverse to chronological order before returning.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// itemToMessage converts a DynamoDB attribute map to a core.Message.
func itemToMessage(item map[string]types.AttributeValue) (core.Message, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return core.Message{}, err
	}
	role, err := strAttr(item, "role")
	if err != nil {
		return core.Message{}, err
	}
	content, err := strAttr(item, "content")
	if err != nil {
		return core.Message{}, err
	}
	tsRaw, err := strAttr(item, "timestamp")
	if err != nil {
		return core.Message{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return core.Message{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return core.Message{ID: id, Role: core.Role(role), Content: content, Timestamp: ts}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %q is not a string", key)
	}
	return s.Value, nil
}
