package core

import (
	"context"
	"time"
)

// Mode is the conversation engine's classification of current user intent.
type Mode string

const (
	// ModeCasual is ordinary chat without scheduling intent.
	ModeCasual Mode = "casual"
	// ModeScheduling means a meeting flow is being driven.
	ModeScheduling Mode = "scheduling"
	// ModeApproval means the user is confirming a pending draft.
	ModeApproval Mode = "approval"
)

// CalendarAccessStatus reflects whether the user's calendar is reachable.
type CalendarAccessStatus string

const (
	// CalendarAccessUnknown means access has not been verified yet.
	CalendarAccessUnknown CalendarAccessStatus = ""
	// CalendarAccessGranted means the provider accepted our credentials.
	CalendarAccessGranted CalendarAccessStatus = "granted"
	// CalendarAccessDenied means the provider rejected access.
	CalendarAccessDenied CalendarAccessStatus = "denied"
)

// ConversationContext is the persisted per-conversation state owned by the
// context engine: full message history, derived mode, the meeting draft under
// construction and compression bookkeeping.
//
// The struct itself is a plain value; serialization of concurrent access is
// the façade's job (one in-flight mutation per conversation id). Always
// mutate a Clone and persist it back through the store.
type ConversationContext struct {
	ConversationID         string               `json:"conversation_id"`
	Messages               []Message            `json:"messages"`
	Mode                   Mode                 `json:"mode"`
	MeetingDraft           *MeetingDraft        `json:"meeting_draft,omitempty"`
	CompressionLevel       int                  `json:"compression_level"`
	CalendarAccessStatus   CalendarAccessStatus `json:"calendar_access_status,omitempty"`
	AvailabilityChecked    bool                 `json:"availability_checked"`
	TimeCollectionComplete bool                 `json:"time_collection_complete"`
	Created                time.Time            `json:"created"`
	Updated                time.Time            `json:"updated"`
}

// NewConversationContext creates an empty context in casual mode.
func NewConversationContext(conversationID string) *ConversationContext {
	now := time.Now().UTC()
	return &ConversationContext{
		ConversationID: conversationID,
		Messages:       []Message{},
		Mode:           ModeCasual,
		Created:        now,
		Updated:        now,
	}
}

// Clone returns a deep copy safe for independent mutation.
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	clone.MeetingDraft = c.MeetingDraft.Clone()
	return &clone
}

// RecentMessages returns the trailing n messages in original order.
func (c *ConversationContext) RecentMessages(n int) []Message {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	if n > len(c.Messages) {
		n = len(c.Messages)
	}
	out := make([]Message, n)
	copy(out, c.Messages[len(c.Messages)-n:])
	return out
}

// LastUserMessage returns the most recent user-authored message, if any.
func (c *ConversationContext) LastUserMessage() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// TokenCount returns the estimated token footprint of the live message window.
func (c *ConversationContext) TokenCount() int { return EstimateMessageTokens(c.Messages) }

// ConversationStore persists conversation contexts and their full message
// history. The live window inside ConversationContext may be compressed;
// AppendMessage keeps the complete history available for audit retrieval via
// ListRecentMessages regardless of compression.
type ConversationStore interface {
	// GetContext returns the stored context or nil when unknown.
	GetContext(ctx context.Context, conversationID string) (*ConversationContext, error)
	// PutContext stores a full context snapshot, replacing any previous one.
	PutContext(ctx context.Context, conversationID string, convCtx *ConversationContext) error
	// AppendMessage records a message in the durable audit history.
	AppendMessage(ctx context.Context, conversationID string, msg Message) error
	// ListRecentMessages returns up to limit audit messages, oldest first.
	ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
}
