package contextengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingmesh/meetingmesh/core"
	"github.com/meetingmesh/meetingmesh/storage"
)

type stubSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *stubSummarizer) Summarize(_ context.Context, _ []core.Message) (string, error) {
	s.calls++
	return s.summary, s.err
}

func newTestEngine(t *testing.T, optFns ...func(o *Options)) (*Engine, *storage.InMemoryStore) {
	t.Helper()
	store := storage.NewInMemoryStore()
	optFns = append([]func(o *Options){func(o *Options) { o.Store = store }}, optFns...)
	e, err := New(optFns...)
	require.NoError(t, err)
	return e, store
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New()
	require.Error(t, err)
}

func TestLoad_CreatesOnFirstContact(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	convCtx, err := e.Load(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, convCtx)
	assert.Equal(t, core.ModeCasual, convCtx.Mode)

	// The fresh context was persisted, not just returned.
	stored, err := store.GetContext(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "conv-1", stored.ConversationID)
}

func TestAddMessage_PersistsAndClassifies(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	convCtx, err := e.Load(ctx, "conv-1")
	require.NoError(t, err)

	require.NoError(t, e.AddMessage(ctx, convCtx, core.NewUserMessage("please schedule a meeting for tomorrow")))
	assert.Equal(t, core.ModeScheduling, convCtx.Mode)

	stored, err := store.GetContext(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, core.ModeScheduling, stored.Mode)
	require.Len(t, stored.Messages, 1)

	history, err := store.ListRecentMessages(ctx, "conv-1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAddMessage_CompressesOverThreshold(t *testing.T) {
	// Tiny budget so a handful of messages trips the threshold.
	e, store := newTestEngine(t, func(o *Options) { o.MaxContextTokens = 100 })
	ctx := context.Background()

	convCtx, err := e.Load(ctx, "conv-1")
	require.NoError(t, err)

	long := strings.Repeat("word ", 30)
	for i := 0; i < 20; i++ {
		require.NoError(t, e.AddMessage(ctx, convCtx, core.NewUserMessage(fmt.Sprintf("%s %d", long, i))))
	}

	assert.Greater(t, convCtx.CompressionLevel, 0)
	// Window compression keeps the anchor plus the floor window.
	assert.LessOrEqual(t, len(convCtx.Messages), anchorMessages+maxWindow)

	// The audit history keeps every message regardless of compression.
	history, err := store.ListRecentMessages(ctx, "conv-1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 20)
}

func TestCompressionLevel_Monotonic(t *testing.T) {
	e, _ := newTestEngine(t, func(o *Options) { o.MaxContextTokens = 100 })
	ctx := context.Background()

	convCtx, err := e.Load(ctx, "conv-1")
	require.NoError(t, err)

	long := strings.Repeat("word ", 30)
	last := 0
	for i := 0; i < 30; i++ {
		require.NoError(t, e.AddMessage(ctx, convCtx, core.NewUserMessage(fmt.Sprintf("%s %d", long, i))))
		assert.GreaterOrEqual(t, convCtx.CompressionLevel, last)
		last = convCtx.CompressionLevel
	}
}

func TestUpdateMeetingData(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	convCtx, err := e.Load(ctx, "conv-1")
	require.NoError(t, err)
	convCtx.AvailabilityChecked = true

	title := "Quarterly review"
	require.NoError(t, e.UpdateMeetingData(ctx, convCtx, core.DraftPatch{Title: &title}))
	assert.Equal(t, "Quarterly review", convCtx.MeetingDraft.Title)
	assert.False(t, convCtx.TimeCollectionComplete)
	// Title alone does not invalidate a prior availability check.
	assert.True(t, convCtx.AvailabilityChecked)

	start := mustTime(t, "2026-09-10T14:00:00Z")
	end := mustTime(t, "2026-09-10T15:00:00Z")
	require.NoError(t, e.UpdateMeetingData(ctx, convCtx, core.DraftPatch{StartTime: &start, EndTime: &end}))
	assert.True(t, convCtx.TimeCollectionComplete)
	// Changing the window invalidates the check.
	assert.False(t, convCtx.AvailabilityChecked)

	stored, err := store.GetContext(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly review", stored.MeetingDraft.Title)
	assert.True(t, stored.TimeCollectionComplete)
}

func TestGetCompressedContext_SimpleDoesNotMutate(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	convCtx := core.NewConversationContext("conv-1")
	for i := 0; i < 8; i++ {
		convCtx.Messages = append(convCtx.Messages, core.NewUserMessage(fmt.Sprintf("message %d", i)))
	}

	first := e.GetCompressedContext(ctx, convCtx, StrategySimple)
	second := e.GetCompressedContext(ctx, convCtx, StrategySimple)

	assert.Equal(t, StrategySimple, first.Strategy)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.OriginalTokens, second.OriginalTokens)
	assert.Equal(t, first.Ratio, second.Ratio)
	assert.Len(t, convCtx.Messages, 8)
	assert.Equal(t, 0, convCtx.CompressionLevel)
}

func TestGetCompressedContext_HybridSelection(t *testing.T) {
	summ := &stubSummarizer{summary: "- the team meets Friday\n- alice@example.com attends"}
	e, _ := newTestEngine(t, func(o *Options) { o.Summarizer = summ })
	ctx := context.Background()

	small := core.NewConversationContext("conv-small")
	small.Messages = append(small.Messages, core.NewUserMessage("hi"))
	got := e.GetCompressedContext(ctx, small, StrategyHybrid)
	assert.Equal(t, StrategySimple, got.Strategy)
	assert.Zero(t, summ.calls)

	big := core.NewConversationContext("conv-big")
	filler := strings.Repeat("lots of meeting discussion ", 40)
	for i := 0; i < 12; i++ {
		big.Messages = append(big.Messages, core.NewUserMessage(filler))
	}
	require.Greater(t, big.TokenCount(), 2000)

	got = e.GetCompressedContext(ctx, big, StrategyHybrid)
	assert.Equal(t, StrategyAISummarization, got.Strategy)
	assert.Equal(t, 1, summ.calls)
	assert.Contains(t, got.Text, "Conversation summary:")
	assert.Contains(t, got.KeyPoints, "the team meets Friday")
	assert.Contains(t, got.Participants, "alice@example.com")
}

func TestGetCompressedContext_SummarizerFailureDegrades(t *testing.T) {
	summ := &stubSummarizer{err: errors.New("backend unavailable")}
	e, _ := newTestEngine(t, func(o *Options) { o.Summarizer = summ })
	ctx := context.Background()

	convCtx := core.NewConversationContext("conv-1")
	for i := 0; i < 12; i++ {
		convCtx.Messages = append(convCtx.Messages, core.NewUserMessage(strings.Repeat("words ", 50)))
	}

	got := e.GetCompressedContext(ctx, convCtx, StrategyAISummarization)
	// The reported strategy is the one actually applied.
	assert.Equal(t, StrategySimple, got.Strategy)
	assert.NotEmpty(t, got.Text)
	assert.Equal(t, 1, summ.calls)
}

func TestGetCompressedContext_NoSummarizerDegrades(t *testing.T) {
	e, _ := newTestEngine(t)
	convCtx := core.NewConversationContext("conv-1")
	convCtx.Messages = append(convCtx.Messages, core.NewUserMessage("hello"))

	got := e.GetCompressedContext(context.Background(), convCtx, StrategyAISummarization)
	assert.Equal(t, StrategySimple, got.Strategy)
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return parsed
}
