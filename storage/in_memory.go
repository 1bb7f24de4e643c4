package storage

import (
	"context"
	"sync"

	"github.com/meetingmesh/meetingmesh/core"
)

// InMemoryStore is a volatile ConversationStore keeping contexts and the
// audit message history in process-local maps. It is safe for concurrent
// access and best suited for tests or ephemeral demo setups. Every returned
// context is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	contexts map[string]*core.ConversationContext
	history  map[string][]core.Message
}

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		contexts: make(map[string]*core.ConversationContext),
		history:  make(map[string][]core.Message),
	}
}

// GetContext returns a clone of the stored context or nil when unknown.
func (s *InMemoryStore) GetContext(_ context.Context, conversationID string) (*core.ConversationContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if convCtx, ok := s.contexts[conversationID]; ok {
		return convCtx.Clone(), nil
	}
	return nil, nil
}

// PutContext stores a clone of the provided context snapshot.
func (s *InMemoryStore) PutContext(_ context.Context, conversationID string, convCtx *core.ConversationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[conversationID] = convCtx.Clone()
	return nil
}

// AppendMessage records a message in the append-only audit history.
func (s *InMemoryStore) AppendMessage(_ context.Context, conversationID string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[conversationID] = append(s.history[conversationID], msg)
	return nil
}

// ListRecentMessages returns up to limit audit messages, oldest first.
func (s *InMemoryStore) ListRecentMessages(_ context.Context, conversationID string, limit int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.history[conversationID]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]core.Message, limit)
	copy(out, all[len(all)-limit:])
	return out, nil
}
