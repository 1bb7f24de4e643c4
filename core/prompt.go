package core

import "time"

// PromptKind tags a structured prompt variant.
type PromptKind string

const (
	PromptKindMeetingType     PromptKind = "meeting_type_selection"
	PromptKindTimeCollection  PromptKind = "time_collection"
	PromptKindConflict        PromptKind = "conflict_resolution"
	PromptKindAttendees       PromptKind = "attendee_management"
	PromptKindDetails         PromptKind = "meeting_details"
	PromptKindAgendaEditor    PromptKind = "agenda_editor"
	PromptKindMeetingApproval PromptKind = "meeting_approval"
)

// Prompt is a tagged payload instructing the presentation layer to render a
// specific interactive control tied to a workflow step. Concrete variants
// implement the unexported marker, keeping the set closed so the rendering
// boundary can match exhaustively.
type Prompt interface {
	Kind() PromptKind
	isPrompt()
}

// MeetingTypePrompt asks the user to pick physical vs. online.
type MeetingTypePrompt struct {
	Options []MeetingType `json:"options"`
}

func (MeetingTypePrompt) Kind() PromptKind { return PromptKindMeetingType }
func (MeetingTypePrompt) isPrompt()        {}

// TimeCollectionPrompt requests the meeting time window.
type TimeCollectionPrompt struct {
	SuggestedStart *time.Time `json:"suggested_start,omitempty"`
	SuggestedEnd   *time.Time `json:"suggested_end,omitempty"`
}

func (TimeCollectionPrompt) Kind() PromptKind { return PromptKindTimeCollection }
func (TimeCollectionPrompt) isPrompt()        {}

// TimeConflict is a single overlapping calendar entry.
type TimeConflict struct {
	EventID string    `json:"event_id"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// ConflictPrompt surfaces overlapping events and asks for a resolution.
type ConflictPrompt struct {
	Conflicts []TimeConflict `json:"conflicts"`
}

func (ConflictPrompt) Kind() PromptKind { return PromptKindConflict }
func (ConflictPrompt) isPrompt()        {}

// AttendeePrompt renders the attendee management control.
type AttendeePrompt struct {
	Attendees   []Attendee `json:"attendees"`
	MinRequired int        `json:"min_required"`
}

func (AttendeePrompt) Kind() PromptKind { return PromptKindAttendees }
func (AttendeePrompt) isPrompt()        {}

// DetailsPrompt collects the remaining free-form fields (title, location).
type DetailsPrompt struct {
	TitleSuggestions []string `json:"title_suggestions,omitempty"`
	NeedsLocation    bool     `json:"needs_location"`
}

func (DetailsPrompt) Kind() PromptKind { return PromptKindDetails }
func (DetailsPrompt) isPrompt()        {}

// AgendaEditorPrompt renders the agenda with update/regenerate/approve actions.
type AgendaEditorPrompt struct {
	Agenda  string   `json:"agenda"`
	Actions []string `json:"actions"`
}

func (AgendaEditorPrompt) Kind() PromptKind { return PromptKindAgendaEditor }
func (AgendaEditorPrompt) isPrompt()        {}

// ApprovalPrompt shows the final draft summary for confirmation.
type ApprovalPrompt struct {
	Draft MeetingDraft `json:"draft"`
}

func (ApprovalPrompt) Kind() PromptKind { return PromptKindMeetingApproval }
func (ApprovalPrompt) isPrompt()        {}
