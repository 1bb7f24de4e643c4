package contextengine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingmesh/meetingmesh/core"
)

func TestWindowSize(t *testing.T) {
	tests := []struct {
		name             string
		compressionLevel int
		tokenCount       int
		maxTokens        int
		want             int
	}{
		{"level zero", 0, 1000, 4000, 10},
		{"level one shrinks by two", 1, 1000, 4000, 8},
		{"level two", 2, 1000, 4000, 6},
		{"level three hits floor", 3, 1000, 4000, 4},
		{"never below floor", 10, 1000, 4000, 4},
		{"token overload forces floor", 0, 9000, 4000, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, windowSize(tt.compressionLevel, tt.tokenCount, tt.maxTokens))
		})
	}
}

func TestWindowMessages(t *testing.T) {
	msgs := make([]core.Message, 20)
	for i := range msgs {
		msgs[i] = core.NewUserMessage(fmt.Sprintf("message %d", i))
	}

	kept := windowMessages(msgs, 4)
	require.Len(t, kept, 6)
	// Anchor from the start, tail from the end, order preserved.
	assert.Equal(t, "message 0", kept[0].Content)
	assert.Equal(t, "message 1", kept[1].Content)
	assert.Equal(t, "message 16", kept[2].Content)
	assert.Equal(t, "message 19", kept[5].Content)
}

func TestWindowMessages_ShortHistoryUntouched(t *testing.T) {
	msgs := []core.Message{
		core.NewUserMessage("a"),
		core.NewAssistantMessage("b"),
		core.NewUserMessage("c"),
	}
	kept := windowMessages(msgs, 4)
	require.Len(t, kept, 3)

	// The result is a copy, not an alias.
	kept[0].Content = "changed"
	assert.Equal(t, "a", msgs[0].Content)
}

func TestExtractKeyPoints(t *testing.T) {
	summary := "The group agreed on the following:\n" +
		"- Quarterly review on Friday\n" +
		"* Invite the finance team\n" +
		"1. Book the large room\n" +
		"not a bullet line\n"
	points := extractKeyPoints(summary)
	assert.Equal(t, []string{
		"Quarterly review on Friday",
		"Invite the finance team",
		"Book the large room",
	}, points)
}

func TestExtractParticipants(t *testing.T) {
	text := "Invite Alice.Smith@example.com and bob@corp.io, " +
		"then alice.smith@example.com again."
	assert.Equal(t, []string{"alice.smith@example.com", "bob@corp.io"}, extractParticipants(text))
}

func TestExtractTimeReferences(t *testing.T) {
	text := "Let's meet tomorrow at 3pm, or Friday morning at 10:30."
	refs := extractTimeReferences(text)
	assert.Contains(t, refs, "3pm")
	assert.Contains(t, refs, "10:30")
	assert.Contains(t, refs, "tomorrow")
	assert.Contains(t, refs, "friday")
	assert.Contains(t, refs, "morning")
}
