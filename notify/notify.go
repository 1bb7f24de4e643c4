package notify

import (
	"context"
	"time"

	"github.com/meetingmesh/meetingmesh/calendar"
)

// Routing keys for meeting lifecycle events.
const (
	KeyMeetingCreated   = "meeting.created"
	KeyMeetingApproved  = "meeting.approved"
	KeyConflictDetected = "meeting.conflict_detected"
)

// Envelope is the published event body.
type Envelope struct {
	ID             string          `json:"id"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	ConversationID string          `json:"conversation_id"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Event          *calendar.Event `json:"event,omitempty"`
	// Invite is the rendered iCalendar REQUEST for created meetings, ready to
	// be mailed to attendees by a downstream consumer.
	Invite string `json:"invite,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Publisher delivers lifecycle events to a broker.
type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}
