package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingmesh/meetingmesh/core"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"prose around", `Sure! Here you go: {"a":1} hope that helps`, `{"a":1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"brace in string", `{"a":"}"}`, `{"a":"}"}`},
		{"no json", "just words", ""},
		{"unbalanced", `{"a":1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestParseIntent_FullExtraction(t *testing.T) {
	text := `Here is the extraction:
{"intent": "schedule_meeting", "confidence": 0.9,
 "title": "Team sync", "meeting_type": "online",
 "start_time": "2026-09-02T14:00:00Z",
 "attendees": ["john@example.com", {"email": "mary@example.com"}]}`

	res := parseIntent(text)
	assert.Equal(t, IntentScheduleMeeting, res.Intent)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	assert.Equal(t, "Team sync", res.Title)
	assert.Equal(t, core.MeetingTypeOnline, res.Type)
	require.NotNil(t, res.StartTime)
	assert.Equal(t, 14, res.StartTime.Hour())
	assert.Equal(t, []string{"john@example.com", "mary@example.com"}, res.Attendees)
}

func TestParseIntent_MalformedDefaultsToOther(t *testing.T) {
	res := parseIntent("no structure here at all")
	assert.Equal(t, "other", res.Intent)
	assert.Zero(t, res.Confidence)
}

func TestIntentResult_DraftPatch(t *testing.T) {
	res := IntentResult{
		Intent:     IntentScheduleMeeting,
		Confidence: 0.8,
		Title:      "Sync",
		Type:       core.MeetingTypeOnline,
		Attendees:  []string{"john@example.com", " "},
	}
	patch := res.DraftPatch()
	require.NotNil(t, patch.Title)
	assert.Equal(t, "Sync", *patch.Title)
	assert.Equal(t, core.MeetingTypeOnline, patch.Type)
	require.Len(t, patch.Attendees, 1)
	assert.True(t, patch.Attendees[0].IsRequired)
}

func TestParseTitles(t *testing.T) {
	t.Run("json array", func(t *testing.T) {
		titles := parseTitles(`{"titles": ["Budget Review", "Q3 Planning"]}`)
		assert.Equal(t, []string{"Budget Review", "Q3 Planning"}, titles)
	})
	t.Run("bullet lines", func(t *testing.T) {
		titles := parseTitles("- Budget Review\n2. Q3 Planning\n")
		assert.Equal(t, []string{"Budget Review", "Q3 Planning"}, titles)
	})
}

func TestParseVerification(t *testing.T) {
	emails := []string{"a@x.com", "b@x.com"}
	out := parseVerification(`{"results":[{"email":"a@x.com","valid":true},{"email":"b@x.com","valid":false}]}`, emails)
	assert.True(t, out["a@x.com"])
	assert.False(t, out["b@x.com"])
}

func TestRuleBasedTitles_EmptyPurpose(t *testing.T) {
	titles := RuleBasedTitles("  ")
	require.NotEmpty(t, titles)
	assert.Equal(t, "Team Meeting", titles[0])
}
