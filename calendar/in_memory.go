package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryProvider is a process-local Provider for development and tests.
// Online events get a synthetic meeting link.
type InMemoryProvider struct {
	mu     sync.RWMutex
	events []Event
}

var _ Provider = (*InMemoryProvider)(nil)

// NewInMemoryProvider creates an empty provider.
func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{}
}

// CreateEvent implements Provider.
func (p *InMemoryProvider) CreateEvent(_ context.Context, payload EventPayload) (Event, error) {
	id := uuid.NewString()
	event := Event{
		ID:       id,
		Title:    payload.Title,
		Start:    payload.Start,
		End:      payload.End,
		Location: payload.Location,
		HTMLLink: "https://calendar.local/events/" + id,
	}
	if payload.Online {
		event.MeetingLink = "https://meet.local/" + id
	}
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return event, nil
}

// ListEvents implements Provider.
func (p *InMemoryProvider) ListEvents(_ context.Context, from, to time.Time) ([]Event, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []Event
	for _, e := range p.events {
		if e.Overlaps(from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}
