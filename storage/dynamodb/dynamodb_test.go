package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/meetingmesh/meetingmesh/core"
)

var _ core.ConversationStore = (*Store)(nil)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	queryOut     *dynamodb.QueryOutput
	queryErr     error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
	lastQueryIn  *dynamodb.QueryInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryIn = in
	return f.queryOut, f.queryErr
}

func mustNewStore(t *testing.T, db *fakeDynamo) *Store {
	t.Helper()
	s, err := New(db, "test-table")
	require.NoError(t, err)
	return s
}

func msgItem(pk string, msg core.Message) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: pk},
		"SK":        &types.AttributeValueMemberS{Value: msgSK(msg)},
		"id":        &types.AttributeValueMemberS{Value: msg.ID},
		"role":      &types.AttributeValueMemberS{Value: string(msg.Role)},
		"content":   &types.AttributeValueMemberS{Value: msg.Content},
		"timestamp": &types.AttributeValueMemberS{Value: msg.Timestamp.UTC().Format(time.RFC3339Nano)},
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "table")
	require.Error(t, err)
	_, err = New(&fakeDynamo{}, "  ")
	require.Error(t, err)
}

func TestGetContext_HappyPath(t *testing.T) {
	convCtx := core.NewConversationContext("abc")
	convCtx.Mode = core.ModeScheduling
	body, err := json.Marshal(convCtx)
	require.NoError(t, err)

	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":      &types.AttributeValueMemberS{Value: "CONV#abc"},
		"SK":      &types.AttributeValueMemberS{Value: skContext},
		"context": &types.AttributeValueMemberS{Value: string(body)},
	}}}
	s := mustNewStore(t, db)

	got, err := s.GetContext(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, core.ModeScheduling, got.Mode)
	require.NotNil(t, db.lastGetInput)
}

func TestGetContext_MissingReturnsNil(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	s := mustNewStore(t, db)
	got, err := s.GetContext(context.Background(), "abc")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGetContext_APIError(t *testing.T) {
	db := &fakeDynamo{getErr: errors.New("boom")}
	s := mustNewStore(t, db)
	_, err := s.GetContext(context.Background(), "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "GetContext")
}

func TestPutContext_WritesSnapshotWithTTL(t *testing.T) {
	db := &fakeDynamo{}
	s := mustNewStore(t, db)
	require.NoError(t, s.PutContext(context.Background(), "abc", core.NewConversationContext("abc")))
	require.NotNil(t, db.lastPutInput)
	_, hasTTL := db.lastPutInput.Item["ttl"]
	require.True(t, hasTTL)
}

func TestAppendMessage_ConditionalPut(t *testing.T) {
	db := &fakeDynamo{}
	s := mustNewStore(t, db)
	require.NoError(t, s.AppendMessage(context.Background(), "abc", core.NewUserMessage("hi")))
	require.NotNil(t, db.lastPutInput)
	require.NotNil(t, db.lastPutInput.ConditionExpression)
}

func TestListRecentMessages_ReversesToChronological(t *testing.T) {
	older := core.NewUserMessage("first")
	older.Timestamp = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	newer := core.NewAssistantMessage("second")
	newer.Timestamp = time.Date(2026, 9, 1, 10, 1, 0, 0, time.UTC)

	// Query returns newest first (ScanIndexForward=false).
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		msgItem("CONV#abc", newer),
		msgItem("CONV#abc", older),
	}}}
	s := mustNewStore(t, db)

	msgs, err := s.ListRecentMessages(context.Background(), "abc", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "first", msgs[0].Content)
	require.Equal(t, "second", msgs[1].Content)
	require.NotNil(t, db.lastQueryIn)
	require.False(t, *db.lastQueryIn.ScanIndexForward)
}
