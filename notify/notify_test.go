package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingmesh/meetingmesh/calendar"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	occurred := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	msg := Envelope{
		ID:             "msg-1",
		ConversationID: "conv-1",
		OccurredAt:     occurred,
		Event:          &calendar.Event{ID: "evt-1", Title: "Sync"},
		Detail:         "created",
	}

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "conv-1", decoded.ConversationID)
	require.NotNil(t, decoded.Event)
	assert.Equal(t, "evt-1", decoded.Event.ID)
	assert.True(t, occurred.Equal(decoded.OccurredAt))
}

func TestFallbackPublisher(t *testing.T) {
	p := NewFallbackPublisher(nil)
	err := p.Publish(context.Background(), KeyMeetingCreated, Envelope{ConversationID: "conv-1"})
	assert.NoError(t, err)
	assert.NoError(t, p.Close())
}
