package router

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/meetingmesh/meetingmesh/core"
)

// IntentResult is the structured outcome of intent extraction. A failed or
// unparseable extraction yields {Intent: "other", Confidence: 0} rather than
// an error.
type IntentResult struct {
	Intent     string           `json:"intent"`
	Confidence float64          `json:"confidence"`
	Title      string           `json:"title,omitempty"`
	Type       core.MeetingType `json:"meeting_type,omitempty"`
	StartTime  *time.Time       `json:"start_time,omitempty"`
	EndTime    *time.Time       `json:"end_time,omitempty"`
	Location   string           `json:"location,omitempty"`
	Attendees  []string         `json:"attendees,omitempty"`
}

// IntentScheduleMeeting is the intent value indicating scheduling intent.
const IntentScheduleMeeting = "schedule_meeting"

// emptyIntent is the well-formed default for unparseable responses.
func emptyIntent() IntentResult { return IntentResult{Intent: "other", Confidence: 0} }

// DraftPatch converts extracted fields into a core.DraftPatch seed.
func (r IntentResult) DraftPatch() core.DraftPatch {
	patch := core.DraftPatch{Type: r.Type, StartTime: r.StartTime, EndTime: r.EndTime}
	if r.Title != "" {
		t := r.Title
		patch.Title = &t
	}
	if r.Location != "" {
		l := r.Location
		patch.Location = &l
	}
	for _, email := range r.Attendees {
		email = strings.TrimSpace(email)
		if email != "" {
			patch.Attendees = append(patch.Attendees, core.Attendee{Email: email, IsRequired: true})
		}
	}
	return patch
}

// extractJSON pulls the first JSON object out of free model text: either a
// ```json fenced block or the first balanced top-level {...}. Returns "" when
// no valid object is present.
func extractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate := strings.TrimSpace(rest[:end])
			if gjson.Valid(candidate) {
				return candidate
			}
		}
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '{':
			depth++
		case !inString && c == '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if gjson.Valid(candidate) {
					return candidate
				}
				return ""
			}
		}
	}
	return ""
}

// parseIntent interprets a free-text extraction response.
func parseIntent(text string) IntentResult {
	body := extractJSON(text)
	if body == "" {
		return emptyIntent()
	}

	res := IntentResult{
		Intent:     gjson.Get(body, "intent").String(),
		Confidence: gjson.Get(body, "confidence").Float(),
		Title:      gjson.Get(body, "title").String(),
		Location:   gjson.Get(body, "location").String(),
	}
	if res.Intent == "" {
		return emptyIntent()
	}

	switch strings.ToLower(gjson.Get(body, "meeting_type").String()) {
	case "physical", "in_person", "in-person":
		res.Type = core.MeetingTypePhysical
	case "online", "virtual", "remote":
		res.Type = core.MeetingTypeOnline
	}

	res.StartTime = parseTimeField(gjson.Get(body, "start_time").String())
	res.EndTime = parseTimeField(gjson.Get(body, "end_time").String())

	for _, a := range gjson.Get(body, "attendees").Array() {
		email := a.String()
		if a.IsObject() {
			email = a.Get("email").String()
		}
		if email != "" {
			res.Attendees = append(res.Attendees, email)
		}
	}
	return res
}

// parseTimeField accepts the formats models actually emit for timestamps.
func parseTimeField(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

// parseTitles extracts title suggestions from a response: a JSON "titles"
// array when present, bullet/numbered lines otherwise.
func parseTitles(text string) []string {
	if body := extractJSON(text); body != "" {
		var titles []string
		for _, t := range gjson.Get(body, "titles").Array() {
			if s := strings.TrimSpace(t.String()); s != "" {
				titles = append(titles, s)
			}
		}
		if len(titles) > 0 {
			return titles
		}
	}

	var titles []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		line = strings.Trim(line, `"`)
		if line == "" || strings.ContainsAny(line, "{}") {
			continue
		}
		titles = append(titles, line)
		if len(titles) == 5 {
			break
		}
	}
	return titles
}

// parseVerification reads attendee verification results: either a "results"
// array of {email, valid} objects or a flat email→bool object.
func parseVerification(text string, emails []string) map[string]bool {
	out := make(map[string]bool, len(emails))
	body := extractJSON(text)
	if body == "" {
		return out
	}

	if results := gjson.Get(body, "results"); results.IsArray() {
		for _, r := range results.Array() {
			email := r.Get("email").String()
			if email != "" {
				out[strings.ToLower(email)] = r.Get("valid").Bool()
			}
		}
		return out
	}

	for _, email := range emails {
		if v := gjson.Get(body, strings.ReplaceAll(email, ".", `\.`)); v.Exists() {
			out[strings.ToLower(email)] = v.Bool()
		}
	}
	return out
}
