package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/meetingmesh/meetingmesh/core"
	"github.com/meetingmesh/meetingmesh/model"
)

const extractIntentInstructions = `You extract meeting scheduling intent from chat messages.
Respond with a single JSON object:
{"intent": "schedule_meeting" | "other", "confidence": 0.0-1.0,
 "title": "...", "meeting_type": "physical" | "online",
 "start_time": "RFC3339", "end_time": "RFC3339",
 "location": "...", "attendees": ["email", ...]}
Omit fields you cannot infer. Do not add prose around the JSON.`

// ExtractIntent asks a backend whether the recent messages express scheduling
// intent and which draft fields can be seeded from them. This is a blocking
// operation: total backend failure propagates. Malformed output does not; it
// parses to a zero-confidence result.
func (r *Router) ExtractIntent(ctx context.Context, msgs []core.Message) (IntentResult, error) {
	req := model.Request{Instructions: extractIntentInstructions, Messages: msgs}
	resp, backend, err := r.Invoke(ctx, OpExtractIntent, req)
	if err != nil {
		return IntentResult{}, err
	}
	r.logger.Debug("intent extracted", "backend", backend)
	return parseIntent(resp.Text), nil
}

const generateTitlesInstructions = `Suggest up to 3 concise meeting titles for the described meeting.
Respond with JSON: {"titles": ["...", "..."]}.`

// GenerateTitles produces title suggestions for a meeting purpose. Cosmetic
// operation: when every backend fails it degrades to a deterministic
// truncation of the purpose text and never returns an error or an empty list.
func (r *Router) GenerateTitles(ctx context.Context, purpose string) []string {
	req := model.Request{
		Instructions: generateTitlesInstructions,
		Messages:     []core.Message{core.NewUserMessage(purpose)},
	}
	resp, _, err := r.Invoke(ctx, OpGenerateTitles, req)
	if err == nil {
		if titles := parseTitles(resp.Text); len(titles) > 0 {
			return titles
		}
	}
	if err != nil {
		r.logger.Warn("title generation degraded to rule-based", "error", err.Error())
	}
	return RuleBasedTitles(purpose)
}

// RuleBasedTitles is the deterministic degradation for title generation:
// truncate the purpose to a title-sized phrase.
func RuleBasedTitles(purpose string) []string {
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return []string{"Team Meeting"}
	}
	words := strings.Fields(purpose)
	if len(words) > 8 {
		words = words[:8]
	}
	short := strings.Join(words, " ")
	short = strings.TrimRight(short, ".,;:")
	if len(short) > 60 {
		short = strings.TrimSpace(short[:60])
	}
	title := strings.ToUpper(short[:1]) + short[1:]
	return []string{title, "Meeting: " + short}
}

// PolishWording rewrites a message for tone. Cosmetic: degrades to the input
// text untouched.
func (r *Router) PolishWording(ctx context.Context, text string) string {
	req := model.Request{
		Instructions: "Rewrite the following assistant message to be clear and friendly. Respond with the rewritten text only.",
		Messages:     []core.Message{core.NewUserMessage(text)},
	}
	resp, _, err := r.Invoke(ctx, OpPolishWording, req)
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		return text
	}
	return strings.TrimSpace(resp.Text)
}

const generateAgendaInstructions = `Write a meeting agenda as plain text bullet points.
Every item must carry a time allocation in minutes, e.g. "- Introductions (5 min)".
Cover the stated purpose and fit the meeting duration.`

// GenerateAgenda produces agenda content for the draft. Blocking operation:
// agenda content is required by the workflow, so total failure propagates.
func (r *Router) GenerateAgenda(ctx context.Context, draft *core.MeetingDraft, background string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting: %s\n", draft.Title)
	if draft.StartTime != nil && draft.EndTime != nil {
		fmt.Fprintf(&b, "Duration: %s\n", draft.EndTime.Sub(*draft.StartTime))
	}
	fmt.Fprintf(&b, "Type: %s\nAttendees: %d\n", draft.Type, len(draft.Attendees))
	if background != "" {
		fmt.Fprintf(&b, "Conversation background:\n%s\n", background)
	}

	req := model.Request{
		Instructions: generateAgendaInstructions,
		Messages:     []core.Message{core.NewUserMessage(b.String())},
	}
	resp, _, err := r.Invoke(ctx, OpGenerateAgenda, req)
	if err != nil {
		return "", err
	}
	agenda := strings.TrimSpace(resp.Text)
	if agenda == "" {
		return "", fmt.Errorf("router: agenda generation returned empty content")
	}
	return agenda, nil
}

const summarizeInstructions = `Summarize the conversation so a scheduling assistant can continue it.
Preserve as bullet points: decisions made, meeting details mentioned (dates, times, locations),
participant email addresses, and open questions.`

// Summarize condenses a full message history. Callers (the context engine)
// treat failure as a signal to fall back to window compression, so the error
// propagates untouched.
func (r *Router) Summarize(ctx context.Context, msgs []core.Message) (string, error) {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	req := model.Request{
		Instructions: summarizeInstructions,
		Messages:     []core.Message{core.NewUserMessage(b.String())},
	}
	resp, _, err := r.Invoke(ctx, OpSummarize, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

const verifyAttendeesInstructions = `Judge whether each email address is plausibly deliverable
(well-formed, sane domain). Respond with JSON:
{"results": [{"email": "...", "valid": true|false}, ...]}.`

// VerifyAttendees checks a batch of emails through a backend. The error
// propagates so the attendee validator can fall back to local format checks.
func (r *Router) VerifyAttendees(ctx context.Context, emails []string) (map[string]bool, error) {
	req := model.Request{
		Instructions: verifyAttendeesInstructions,
		Messages:     []core.Message{core.NewUserMessage(strings.Join(emails, "\n"))},
	}
	resp, _, err := r.Invoke(ctx, OpVerifyAttendees, req)
	if err != nil {
		return nil, err
	}
	return parseVerification(resp.Text, emails), nil
}
