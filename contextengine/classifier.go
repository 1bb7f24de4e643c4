package contextengine

import (
	"strings"

	"github.com/meetingmesh/meetingmesh/core"
)

// Classifier derives the conversational mode from the current context. It is
// a narrow seam so the keyword heuristic can be swapped for a model-backed
// classifier without touching the state machine.
type Classifier interface {
	Classify(convCtx *core.ConversationContext) core.Mode
}

// KeywordClassifier is the default heuristic classifier. Priority order is a
// deliberate tie-break: confirmation intent is checked before generic
// scheduling keywords, so a "yes" reply while scheduling moves to approval
// instead of re-triggering data collection.
type KeywordClassifier struct {
	schedulingWords   []string
	schedulingPhrases []string
	approvalWords     []string
	approvalPhrases   []string
}

// NewKeywordClassifier returns a classifier with the built-in keyword sets.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		schedulingWords:   []string{"schedule", "meeting", "book", "appointment", "calendar", "invite", "reschedule"},
		schedulingPhrases: []string{"set up a", "plan a call", "get together", "catch up with"},
		approvalWords:     []string{"yes", "confirm", "confirmed", "approve", "approved", "correct", "ok", "okay", "yep", "sure"},
		approvalPhrases:   []string{"looks good", "go ahead", "sounds good", "that works", "all good"},
	}
}

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(convCtx *core.ConversationContext) core.Mode {
	last, ok := convCtx.LastUserMessage()
	if !ok {
		return convCtx.Mode
	}
	text := strings.ToLower(last.Content)

	if convCtx.Mode == core.ModeScheduling && c.matches(text, c.approvalWords, c.approvalPhrases) {
		return core.ModeApproval
	}
	if convCtx.Mode == core.ModeApproval {
		// A fresh scheduling request restarts collection; anything else keeps
		// the approval conversation going.
		if c.matches(text, c.schedulingWords, c.schedulingPhrases) {
			return core.ModeScheduling
		}
		return core.ModeApproval
	}
	if c.matches(text, c.schedulingWords, c.schedulingPhrases) {
		return core.ModeScheduling
	}
	if convCtx.MeetingDraft.Partial() {
		return core.ModeScheduling
	}
	return core.ModeCasual
}

func (c *KeywordClassifier) matches(text string, words, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '\'')
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
