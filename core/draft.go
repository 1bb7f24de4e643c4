package core

import (
	"strings"
	"time"
)

// MeetingType distinguishes physical from online meetings. The two branches
// carry different completeness requirements (location vs. attendees).
type MeetingType string

const (
	// MeetingTypePhysical is an in-person meeting requiring a location.
	MeetingTypePhysical MeetingType = "physical"
	// MeetingTypeOnline is a virtual meeting requiring at least one attendee.
	MeetingTypeOnline MeetingType = "online"
)

// DraftStatus tracks the lifecycle of a meeting draft across the workflow.
type DraftStatus string

const (
	// DraftStatusDraft is the initial, incomplete state.
	DraftStatusDraft DraftStatus = "draft"
	// DraftStatusPendingApproval means all data is collected and the user is
	// reviewing the summary.
	DraftStatusPendingApproval DraftStatus = "pending_approval"
	// DraftStatusApproved means the user confirmed the draft.
	DraftStatusApproved DraftStatus = "approved"
	// DraftStatusCreated means the calendar event exists.
	DraftStatusCreated DraftStatus = "created"
)

// Attendee is a single meeting participant.
type Attendee struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	IsValidated bool   `json:"is_validated"`
	IsRequired  bool   `json:"is_required"`
}

// MeetingDraft is the accumulating, partially specified meeting record built
// across conversation turns. It is never discarded except on explicit reset.
type MeetingDraft struct {
	Title     string      `json:"title,omitempty"`
	Type      MeetingType `json:"type,omitempty"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Location  string      `json:"location,omitempty"`
	Attendees []Attendee  `json:"attendees"`
	Agenda    string      `json:"agenda,omitempty"`
	Status    DraftStatus `json:"status"`
}

// NewMeetingDraft returns an empty draft in the initial status.
func NewMeetingDraft() *MeetingDraft {
	return &MeetingDraft{Attendees: []Attendee{}, Status: DraftStatusDraft}
}

// Clone returns a deep copy safe for independent mutation.
func (d *MeetingDraft) Clone() *MeetingDraft {
	if d == nil {
		return nil
	}
	clone := *d
	if d.StartTime != nil {
		t := *d.StartTime
		clone.StartTime = &t
	}
	if d.EndTime != nil {
		t := *d.EndTime
		clone.EndTime = &t
	}
	clone.Attendees = make([]Attendee, len(d.Attendees))
	copy(clone.Attendees, d.Attendees)
	return &clone
}

// TimeCollectionComplete reports whether enough time data has been gathered
// to move on to attendee collection: either both start and end are present,
// or start plus the meeting type (the end can then be defaulted).
func (d *MeetingDraft) TimeCollectionComplete() bool {
	if d == nil {
		return false
	}
	if d.StartTime != nil && d.EndTime != nil {
		return true
	}
	return d.StartTime != nil && d.Type != ""
}

// HasAttendee reports whether the draft already holds the email
// (case-insensitive).
func (d *MeetingDraft) HasAttendee(email string) bool {
	for _, a := range d.Attendees {
		if strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

// Partial reports whether any scheduling-relevant field has been captured.
// The mode classifier uses it to keep a conversation in scheduling mode.
func (d *MeetingDraft) Partial() bool {
	if d == nil {
		return false
	}
	return d.Title != "" || d.StartTime != nil || d.Type != ""
}

// DraftPatch carries a partial update to a MeetingDraft. Nil / empty fields
// mean "leave unchanged"; set fields win over the current value.
type DraftPatch struct {
	Title     *string     `json:"title,omitempty"`
	Type      MeetingType `json:"type,omitempty"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Location  *string     `json:"location,omitempty"`
	Attendees []Attendee  `json:"attendees,omitempty"`
	Agenda    *string     `json:"agenda,omitempty"`
	Status    DraftStatus `json:"status,omitempty"`
}

// Empty reports whether the patch carries no changes at all.
func (p DraftPatch) Empty() bool {
	return p.Title == nil && p.Type == "" && p.StartTime == nil && p.EndTime == nil &&
		p.Location == nil && len(p.Attendees) == 0 && p.Agenda == nil && p.Status == ""
}

// TouchesTime reports whether the patch changes the meeting time window.
func (p DraftPatch) TouchesTime() bool { return p.StartTime != nil || p.EndTime != nil }

// MergeDraft applies a patch to a draft field by field, last write wins per
// field. Attendees from the patch are merged by email: existing entries are
// updated in place, new ones appended in patch order. The input draft is not
// mutated; the merged copy is returned.
func MergeDraft(d *MeetingDraft, p DraftPatch) *MeetingDraft {
	merged := d.Clone()
	if merged == nil {
		merged = NewMeetingDraft()
	}
	if p.Title != nil {
		merged.Title = strings.TrimSpace(*p.Title)
	}
	if p.Type != "" {
		merged.Type = p.Type
	}
	if p.StartTime != nil {
		t := *p.StartTime
		merged.StartTime = &t
	}
	if p.EndTime != nil {
		t := *p.EndTime
		merged.EndTime = &t
	}
	if p.Location != nil {
		merged.Location = strings.TrimSpace(*p.Location)
	}
	if p.Agenda != nil {
		merged.Agenda = *p.Agenda
	}
	if p.Status != "" {
		merged.Status = p.Status
	}
	for _, a := range p.Attendees {
		merged.Attendees = upsertAttendee(merged.Attendees, a)
	}
	return merged
}

// MergeAttendee overlays non-zero fields of next onto prev, keeping prev's
// email as identity. Boolean flags always take the incoming value.
func MergeAttendee(prev, next Attendee) Attendee {
	merged := prev
	if next.FirstName != "" {
		merged.FirstName = next.FirstName
	}
	if next.LastName != "" {
		merged.LastName = next.LastName
	}
	merged.IsValidated = next.IsValidated
	merged.IsRequired = next.IsRequired
	return merged
}

func upsertAttendee(list []Attendee, a Attendee) []Attendee {
	a.Email = strings.TrimSpace(a.Email)
	for i, existing := range list {
		if strings.EqualFold(existing.Email, a.Email) {
			list[i] = MergeAttendee(existing, a)
			return list
		}
	}
	return append(list, a)
}

// RemoveAttendee returns the attendee list without the given email.
func RemoveAttendee(list []Attendee, email string) []Attendee {
	out := make([]Attendee, 0, len(list))
	for _, a := range list {
		if !strings.EqualFold(a.Email, email) {
			out = append(out, a)
		}
	}
	return out
}
