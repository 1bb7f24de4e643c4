package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/meetingmesh/meetingmesh/core"
)

// EventPayload is the provider-independent description of the event to
// create, assembled from an approved meeting draft.
type EventPayload struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	Location    string          `json:"location,omitempty"`
	Online      bool            `json:"online"`
	Attendees   []core.Attendee `json:"attendees"`
}

// PayloadFromDraft maps an approved draft to an event payload. The agenda
// becomes the event description.
func PayloadFromDraft(d *core.MeetingDraft) (EventPayload, error) {
	if d == nil || d.StartTime == nil || d.EndTime == nil {
		return EventPayload{}, fmt.Errorf("calendar: draft is missing time data")
	}
	return EventPayload{
		Title:       d.Title,
		Description: d.Agenda,
		Start:       *d.StartTime,
		End:         *d.EndTime,
		Location:    d.Location,
		Online:      d.Type == core.MeetingTypeOnline,
		Attendees:   append([]core.Attendee{}, d.Attendees...),
	}, nil
}

// Event is a created or listed calendar event.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	MeetingLink string    `json:"meeting_link,omitempty"`
	HTMLLink    string    `json:"html_link,omitempty"`
}

// Overlaps reports whether the event intersects the half-open window
// [start, end).
func (e Event) Overlaps(start, end time.Time) bool {
	return e.Start.Before(end) && e.End.After(start)
}

// Provider is the calendar backend seam.
type Provider interface {
	// CreateEvent writes the event and returns it with provider-assigned
	// identifiers. Implementations must not retry internally.
	CreateEvent(ctx context.Context, payload EventPayload) (Event, error)
	// ListEvents returns events intersecting [from, to).
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
}

// ErrorKind categorizes provider failures the way the workflow reacts to
// them.
type ErrorKind string

const (
	// KindAuth means the provider rejected our credentials.
	KindAuth ErrorKind = "auth"
	// KindRateLimited means the provider asked us to back off.
	KindRateLimited ErrorKind = "rate_limited"
	// KindUnavailable means a transient provider-side failure.
	KindUnavailable ErrorKind = "unavailable"
	// KindInvalid means the request itself was rejected.
	KindInvalid ErrorKind = "invalid"
)

// ProviderError wraps a provider failure with its category.
type ProviderError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

// Error implements error.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("calendar: %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether retrying the same call might help.
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindUnavailable
}

// KindFromStatus maps an HTTP status code to an error kind.
func KindFromStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindUnavailable
	default:
		return KindInvalid
	}
}
