package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/meetingmesh/meetingmesh/core"
)

const (
	// MinDuration is the shortest schedulable meeting.
	MinDuration = 15 * time.Minute
	// MaxDuration is the longest schedulable meeting.
	MaxDuration = 8 * time.Hour
	// MinAdvance is how far in the future a meeting must start.
	MinAdvance = 15 * time.Minute
	// MaxAdvance is how far ahead a meeting may be booked.
	MaxAdvance = 365 * 24 * time.Hour

	// largeAttendeeCount triggers the advisory warning, not an error.
	largeAttendeeCount = 10

	businessHoursStart = 8  // 08:00 local
	businessHoursEnd   = 18 // 18:00 local
)

// EmailPattern is the format check applied to attendee emails. It is shared
// with the attendee validator's offline fallback so both paths agree on what
// "well-formed" means.
var EmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateMeeting runs the full rule set over a draft. It is the validation
// entry point for the workflow's validation step and the pre-approval gate.
// The advance-booking rules are evaluated against the supplied now.
func ValidateMeeting(d *core.MeetingDraft, now time.Time) core.ValidationResult {
	result := core.ValidResult()
	if d == nil {
		return core.Invalid("no meeting data collected yet")
	}
	result = result.Merge(ValidateType(d))
	result = result.Merge(ValidateTimeWindow(d, now))
	result = result.Merge(ValidateAttendees(d.Attendees))
	return result
}

// ValidateType checks meeting-type consistency: an online meeting needs at
// least one attendee, a physical one needs a location.
func ValidateType(d *core.MeetingDraft) core.ValidationResult {
	result := core.ValidResult()
	switch d.Type {
	case core.MeetingTypeOnline:
		if len(d.Attendees) == 0 {
			result = result.Merge(core.Invalid("online meetings require at least one attendee"))
		}
	case core.MeetingTypePhysical:
		if strings.TrimSpace(d.Location) == "" {
			result = result.Merge(core.Invalid("physical meetings require a location"))
		}
	case "":
		result = result.Merge(core.Invalid("meeting type has not been selected"))
	default:
		result = result.Merge(core.Invalid(fmt.Sprintf("unknown meeting type %q", d.Type)))
	}
	return result
}

// ValidateTimeWindow checks the start/end pair for ordering, duration bounds
// and the advance-booking window relative to now.
func ValidateTimeWindow(d *core.MeetingDraft, now time.Time) core.ValidationResult {
	result := core.ValidResult()
	if d.StartTime == nil {
		return result.Merge(core.Invalid("meeting start time is missing"))
	}
	if d.EndTime == nil {
		return result.Merge(core.Invalid("meeting end time is missing"))
	}

	start, end := *d.StartTime, *d.EndTime
	if !end.After(start) {
		result = result.Merge(core.Invalid("meeting end time must be after the start time"))
		return result
	}

	duration := end.Sub(start)
	if duration < MinDuration {
		result = result.Merge(core.Invalid(fmt.Sprintf("meeting is shorter than the %d minute minimum", int(MinDuration.Minutes()))))
	}
	if duration > MaxDuration {
		result = result.Merge(core.Invalid(fmt.Sprintf("meeting exceeds the %d hour maximum", int(MaxDuration.Hours()))))
	}

	lead := start.Sub(now)
	if lead < MinAdvance {
		result = result.Merge(core.Invalid(fmt.Sprintf("meeting must start at least %d minutes from now", int(MinAdvance.Minutes()))))
	}
	if lead > MaxAdvance {
		result = result.Merge(core.Invalid("meeting cannot be booked more than a year ahead"))
	}

	local := start.Local()
	if h := local.Hour(); h < businessHoursStart || h >= businessHoursEnd {
		result.Warnings = append(result.Warnings, "meeting is outside business hours")
	}
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		result.Warnings = append(result.Warnings, "meeting falls on a weekend")
	}
	return result
}

// ValidateAttendees checks email format and duplicates across the list and
// warns on large meetings. An empty list is valid here; the type rule decides
// whether attendees are required at all.
func ValidateAttendees(attendees []core.Attendee) core.ValidationResult {
	result := core.ValidResult()
	seen := make(map[string]bool, len(attendees))
	for _, a := range attendees {
		email := strings.TrimSpace(a.Email)
		if !EmailPattern.MatchString(email) {
			result = result.Merge(core.Invalid(fmt.Sprintf("attendee email %q is not a valid address", a.Email)))
			continue
		}
		lower := strings.ToLower(email)
		if seen[lower] {
			result = result.Merge(core.Invalid(fmt.Sprintf("attendee %s appears more than once", lower)))
		}
		seen[lower] = true
	}
	if len(attendees) > largeAttendeeCount {
		result.Warnings = append(result.Warnings, fmt.Sprintf("large meeting with %d attendees", len(attendees)))
	}
	return result
}

// timeAllocationPattern matches a duration annotation such as "5 min",
// "30 minutes" or "1 hour" anywhere in the agenda.
var timeAllocationPattern = regexp.MustCompile(`(?i)\d+\s*(min|minute|minutes|hour|hours)\b`)

// ValidateAgenda checks the agenda content the editor sub-flow produced. The
// workflow refuses to approve an agenda that fails these checks: it must be
// non-empty, long enough to be useful and carry time allocations per item.
func ValidateAgenda(agenda string) core.ValidationResult {
	result := core.ValidResult()
	trimmed := strings.TrimSpace(agenda)
	if trimmed == "" {
		return result.Merge(core.Invalid("agenda is empty"))
	}
	if len(trimmed) < 10 {
		result = result.Merge(core.Invalid("agenda is too short to be useful"))
	}
	if !timeAllocationPattern.MatchString(trimmed) {
		result = result.Merge(core.Invalid("agenda items are missing time allocations"))
	}
	return result
}
