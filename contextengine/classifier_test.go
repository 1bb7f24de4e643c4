package contextengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meetingmesh/meetingmesh/core"
)

func classifyCtx(mode core.Mode, lastUser string) *core.ConversationContext {
	convCtx := core.NewConversationContext("conv-1")
	convCtx.Mode = mode
	convCtx.Messages = append(convCtx.Messages, core.NewUserMessage(lastUser))
	return convCtx
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		name string
		ctx  *core.ConversationContext
		want core.Mode
	}{
		{"small talk stays casual", classifyCtx(core.ModeCasual, "how was your weekend?"), core.ModeCasual},
		{"scheduling keyword enters scheduling", classifyCtx(core.ModeCasual, "can you schedule something for us?"), core.ModeScheduling},
		{"scheduling phrase enters scheduling", classifyCtx(core.ModeCasual, "let's set up a quick sync"), core.ModeScheduling},
		{"yes while scheduling moves to approval", classifyCtx(core.ModeScheduling, "yes"), core.ModeApproval},
		{"looks good while scheduling moves to approval", classifyCtx(core.ModeScheduling, "looks good to me"), core.ModeApproval},
		{"yes while casual stays casual", classifyCtx(core.ModeCasual, "yes"), core.ModeCasual},
		{"approval sticks without new request", classifyCtx(core.ModeApproval, "one more thing, change the title"), core.ModeApproval},
		{"new request exits approval", classifyCtx(core.ModeApproval, "actually, schedule another one"), core.ModeScheduling},
		{"substring is not a keyword match", classifyCtx(core.ModeCasual, "I like bookkeeping"), core.ModeCasual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.ctx))
		})
	}
}

func TestKeywordClassifier_PartialDraftKeepsScheduling(t *testing.T) {
	c := NewKeywordClassifier()
	convCtx := classifyCtx(core.ModeScheduling, "around noon I think")
	convCtx.MeetingDraft = core.NewMeetingDraft()
	convCtx.MeetingDraft.Title = "Quarterly review"

	assert.Equal(t, core.ModeScheduling, c.Classify(convCtx))
}

func TestKeywordClassifier_NoUserMessageKeepsMode(t *testing.T) {
	c := NewKeywordClassifier()
	convCtx := core.NewConversationContext("conv-1")
	convCtx.Mode = core.ModeScheduling
	convCtx.Messages = append(convCtx.Messages, core.NewAssistantMessage("When should it start?"))

	assert.Equal(t, core.ModeScheduling, c.Classify(convCtx))
}
