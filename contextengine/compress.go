package contextengine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/meetingmesh/meetingmesh/core"
)

// Strategy selects how a conversation context is compressed.
type Strategy string

const (
	// StrategySimple keeps an initial anchor plus the most recent window.
	StrategySimple Strategy = "simple"
	// StrategyAISummarization summarizes the history through a backend.
	StrategyAISummarization Strategy = "ai_summarization"
	// StrategyHybrid picks between the two based on history size.
	StrategyHybrid Strategy = "hybrid"
)

// Compressed is the compact context handed to downstream model calls, plus
// the metrics callers need to reason about the compression that actually
// happened. Strategy reports the strategy applied, which may differ from the
// requested one after degradation.
type Compressed struct {
	Text             string   `json:"text"`
	Strategy         Strategy `json:"strategy"`
	OriginalTokens   int      `json:"original_tokens"`
	CompressedTokens int      `json:"compressed_tokens"`
	Ratio            float64  `json:"ratio"`
	KeyPoints        []string `json:"key_points,omitempty"`
	Participants     []string `json:"participants,omitempty"`
	TimeReferences   []string `json:"time_references,omitempty"`
}

const (
	// anchorMessages is how many initial messages survive window compression.
	anchorMessages = 2
	// minWindow is the smallest recent-message window compression may reach.
	minWindow = 4
	// maxWindow is the default recent-message window.
	maxWindow = 10
)

// windowSize derives the recent-message window from compression pressure:
// higher compression level or higher token load shrinks the window, never
// below minWindow.
func windowSize(compressionLevel, tokenCount, maxTokens int) int {
	k := maxWindow - 2*compressionLevel
	if maxTokens > 0 && tokenCount > 2*maxTokens {
		k = minWindow
	}
	if k < minWindow {
		k = minWindow
	}
	return k
}

// windowMessages selects the surviving messages for window compression:
// up to anchorMessages from the start plus the trailing k, order preserved,
// no duplicates when the ranges overlap.
func windowMessages(msgs []core.Message, k int) []core.Message {
	if len(msgs) <= k+anchorMessages {
		out := make([]core.Message, len(msgs))
		copy(out, msgs)
		return out
	}
	out := make([]core.Message, 0, k+anchorMessages)
	out = append(out, msgs[:anchorMessages]...)
	out = append(out, msgs[len(msgs)-k:]...)
	return out
}

// renderMessages flattens messages into the textual context form.
func renderMessages(msgs []core.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return b.String()
}

var (
	keyPointPattern = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	clockPattern    = regexp.MustCompile(`\b\d{1,2}(?::\d{2})?\s*(?:am|pm)\b|\b\d{1,2}:\d{2}\b`)
)

// timeKeywords is the fixed token set scanned for time references.
var timeKeywords = []string{
	"today", "tomorrow", "tonight", "next week", "next month",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"morning", "afternoon", "evening", "noon",
}

// extractKeyPoints pulls bullet / numbered lines out of a summary.
func extractKeyPoints(summary string) []string {
	var points []string
	for _, m := range keyPointPattern.FindAllStringSubmatch(summary, -1) {
		if p := strings.TrimSpace(m[1]); p != "" {
			points = append(points, p)
		}
	}
	return points
}

// extractParticipants pulls distinct email addresses, first-seen order.
func extractParticipants(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, email := range emailPattern.FindAllString(text, -1) {
		lower := strings.ToLower(email)
		if !seen[lower] {
			seen[lower] = true
			out = append(out, lower)
		}
	}
	return out
}

// extractTimeReferences scans for clock times and the fixed keyword set.
func extractTimeReferences(text string) []string {
	lower := strings.ToLower(text)
	seen := map[string]bool{}
	var out []string
	for _, ref := range clockPattern.FindAllString(lower, -1) {
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	for _, kw := range timeKeywords {
		if strings.Contains(lower, kw) && !seen[kw] {
			seen[kw] = true
			out = append(out, kw)
		}
	}
	return out
}
