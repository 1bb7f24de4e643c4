package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingmesh/meetingmesh/core"
)

type flakyProvider struct {
	listErrs    []error
	listCalls   int
	createCalls int
	createErr   error
}

func (p *flakyProvider) CreateEvent(_ context.Context, payload EventPayload) (Event, error) {
	p.createCalls++
	if p.createErr != nil {
		return Event{}, p.createErr
	}
	return Event{ID: "evt-1", Title: payload.Title, Start: payload.Start, End: payload.End}, nil
}

func (p *flakyProvider) ListEvents(_ context.Context, _, _ time.Time) ([]Event, error) {
	p.listCalls++
	if p.listCalls <= len(p.listErrs) {
		return nil, p.listErrs[p.listCalls-1]
	}
	return []Event{{ID: "evt-busy"}}, nil
}

func noSleep(r *RetryingProvider) {
	r.sleep = func(context.Context, time.Duration) error { return nil }
}

func TestPayloadFromDraft(t *testing.T) {
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	d := core.NewMeetingDraft()
	d.Title = "Quarterly review"
	d.Type = core.MeetingTypeOnline
	d.StartTime = &start
	d.EndTime = &end
	d.Agenda = "1. Numbers\n2. Outlook"
	d.Attendees = []core.Attendee{{Email: "a@example.com"}}

	payload, err := PayloadFromDraft(d)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly review", payload.Title)
	assert.Equal(t, d.Agenda, payload.Description)
	assert.True(t, payload.Online)
	assert.Len(t, payload.Attendees, 1)

	_, err = PayloadFromDraft(core.NewMeetingDraft())
	require.Error(t, err)
}

func TestEventOverlaps(t *testing.T) {
	base := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	event := Event{Start: base, End: base.Add(time.Hour)}

	assert.True(t, event.Overlaps(base.Add(30*time.Minute), base.Add(2*time.Hour)))
	assert.True(t, event.Overlaps(base.Add(-time.Hour), base.Add(time.Minute)))
	assert.False(t, event.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)))
	assert.False(t, event.Overlaps(base.Add(-time.Hour), base))
}

func TestKindFromStatus(t *testing.T) {
	assert.Equal(t, KindAuth, KindFromStatus(401))
	assert.Equal(t, KindAuth, KindFromStatus(403))
	assert.Equal(t, KindRateLimited, KindFromStatus(429))
	assert.Equal(t, KindUnavailable, KindFromStatus(503))
	assert.Equal(t, KindInvalid, KindFromStatus(400))
}

func TestWithRetry_ListRetriesTransient(t *testing.T) {
	inner := &flakyProvider{listErrs: []error{
		&ProviderError{Op: "ListEvents", Kind: KindUnavailable, Err: errors.New("503")},
		&ProviderError{Op: "ListEvents", Kind: KindRateLimited, Err: errors.New("429")},
	}}
	r := WithRetry(inner)
	noSleep(r)

	events, err := r.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 3, inner.listCalls)
}

func TestWithRetry_ListStopsOnFatal(t *testing.T) {
	inner := &flakyProvider{listErrs: []error{
		&ProviderError{Op: "ListEvents", Kind: KindAuth, Err: errors.New("401")},
	}}
	r := WithRetry(inner)
	noSleep(r)

	_, err := r.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Equal(t, 1, inner.listCalls)
}

func TestWithRetry_ListExhausts(t *testing.T) {
	transient := &ProviderError{Op: "ListEvents", Kind: KindUnavailable, Err: errors.New("503")}
	inner := &flakyProvider{listErrs: []error{transient, transient, transient}}
	r := WithRetry(inner, func(o *RetryOptions) { o.MaxAttempts = 3 })
	noSleep(r)

	_, err := r.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Equal(t, 3, inner.listCalls)
}

func TestWithRetry_CreateNeverRetries(t *testing.T) {
	inner := &flakyProvider{createErr: &ProviderError{Op: "CreateEvent", Kind: KindUnavailable, Err: errors.New("503")}}
	r := WithRetry(inner)
	noSleep(r)

	_, err := r.CreateEvent(context.Background(), EventPayload{})
	require.Error(t, err)
	assert.Equal(t, 1, inner.createCalls)
}

func TestInMemoryProvider(t *testing.T) {
	p := NewInMemoryProvider()
	ctx := context.Background()
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)

	created, err := p.CreateEvent(ctx, EventPayload{
		Title:  "Sync",
		Start:  start,
		End:    start.Add(time.Hour),
		Online: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.MeetingLink)
	assert.NotEmpty(t, created.HTMLLink)

	busy, err := p.ListEvents(ctx, start.Add(30*time.Minute), start.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, busy, 1)

	free, err := p.ListEvents(ctx, start.Add(2*time.Hour), start.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, free)
}

func TestRenderInvite(t *testing.T) {
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	payload := EventPayload{
		Title:       "Quarterly review",
		Description: "1. Numbers",
		Start:       start,
		End:         start.Add(time.Hour),
		Online:      true,
		Attendees: []core.Attendee{
			{Email: "a@example.com", FirstName: "Alice", LastName: "Smith", IsRequired: true},
			{Email: "b@example.com"},
		},
	}
	event := Event{ID: "evt-1", MeetingLink: "https://meet.local/evt-1"}

	out, err := RenderInvite(event, payload)
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "METHOD:REQUEST")
	assert.Contains(t, out, "SUMMARY:Quarterly review")
	assert.Contains(t, out, "UID:evt-1")
	assert.Contains(t, out, "mailto:a@example.com")
	assert.Contains(t, out, "ROLE=REQ-PARTICIPANT")
	assert.Contains(t, out, "END:VCALENDAR")
}
