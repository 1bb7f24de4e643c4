package workflow

import (
	"context"
	"fmt"

	"github.com/meetingmesh/meetingmesh/core"
	"github.com/meetingmesh/meetingmesh/rules"
)

// preconditions returns the human-readable reasons the target step cannot be
// entered yet. Empty means the gate is open.
func (o *Orchestrator) preconditions(convCtx *core.ConversationContext, state *core.WorkflowState, target core.Step, data core.DraftPatch) []string {
	draft := state.MeetingDraft
	switch target {
	case core.StepIntentDetection:
		return nil

	case core.StepMeetingTypeSelection:
		if state.TypeLocked() {
			return []string{"meeting type is locked once time collection has started"}
		}
		return nil

	case core.StepTimeDateCollection:
		if draft.Type == "" && data.Type == "" {
			return []string{"select a meeting type before collecting times"}
		}
		return nil

	case core.StepAvailabilityCheck, core.StepConflictResolution:
		if !timeComplete(draft, data) {
			return []string{"complete time collection before checking availability"}
		}
		return nil

	case core.StepAttendeeCollection:
		if !timeComplete(draft, data) {
			return []string{"complete time collection before adding attendees"}
		}
		return nil

	case core.StepDetailsCollection, core.StepValidation:
		return nil

	case core.StepAgendaGeneration:
		if result := rules.ValidateMeeting(draft, o.now()); !result.IsValid {
			return result.Errors
		}
		return nil

	case core.StepAgendaApproval:
		if draft.Agenda == "" {
			return []string{"generate an agenda before reviewing it"}
		}
		return nil

	case core.StepApproval:
		if draft.Status != core.DraftStatusPendingApproval {
			return []string{"approve the agenda before the final meeting approval"}
		}
		if result := rules.ValidateMeeting(draft, o.now()); !result.IsValid {
			return result.Errors
		}
		return nil

	case core.StepCreation:
		var reasons []string
		if draft.Title == "" {
			reasons = append(reasons, "creation requires a meeting title")
		}
		if draft.StartTime == nil || draft.EndTime == nil {
			reasons = append(reasons, "creation requires a complete time window")
		}
		if state.CurrentStep != core.StepApproval {
			reasons = append(reasons, "the meeting must pass final approval before creation")
		}
		return reasons

	case core.StepCompleted:
		return []string{"completed is reached automatically after creation"}

	default:
		return []string{fmt.Sprintf("unknown workflow step %q", target)}
	}
}

// timeComplete reports whether time collection is complete after the pending
// patch is taken into account.
func timeComplete(draft *core.MeetingDraft, data core.DraftPatch) bool {
	if draft.TimeCollectionComplete() {
		return true
	}
	merged := core.MergeDraft(draft, data)
	return merged.TimeCollectionComplete()
}

// validateForStep runs the rule subset appropriate to the step being entered.
// Full validation runs only at the validation gate and beyond; earlier steps
// check just what they collect, so a half-built draft is not rejected for
// data a later step will supply.
func (o *Orchestrator) validateForStep(convCtx *core.ConversationContext, state *core.WorkflowState, target core.Step) core.ValidationResult {
	draft := state.MeetingDraft
	switch target {
	case core.StepAvailabilityCheck, core.StepConflictResolution, core.StepAttendeeCollection:
		if draft.StartTime != nil && draft.EndTime != nil {
			return rules.ValidateTimeWindow(draft, o.now())
		}
		return core.ValidResult()
	case core.StepValidation, core.StepApproval, core.StepCreation:
		return rules.ValidateMeeting(draft, o.now())
	default:
		return core.ValidResult()
	}
}

// envelope assembles the response for the current state.
func (o *Orchestrator) envelope(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState) core.Envelope {
	validation := core.ValidResult()
	if len(state.ValidationErrors) > 0 {
		validation = core.Invalid(state.ValidationErrors...)
	}
	return core.Envelope{
		Message:    o.messageFor(state),
		Prompt:     o.promptFor(ctx, convCtx, state),
		Workflow:   o.snapshot(state),
		Validation: validation,
	}
}

// messageFor returns the base conversational message for the current step.
func (o *Orchestrator) messageFor(state *core.WorkflowState) string {
	if len(state.ValidationErrors) > 0 {
		return state.ValidationErrors[0]
	}
	switch state.CurrentStep {
	case core.StepIntentDetection:
		return "Tell me about the meeting you want to schedule."
	case core.StepMeetingTypeSelection:
		return "Will this be an in-person or an online meeting?"
	case core.StepTimeDateCollection:
		return "When should the meeting take place?"
	case core.StepConflictResolution:
		return "That time overlaps with existing events. Pick how to resolve the conflict."
	case core.StepAttendeeCollection:
		return "Who should attend? Add attendee email addresses."
	case core.StepDetailsCollection:
		return "A few details are still missing."
	case core.StepAgendaApproval:
		return "Here is the proposed agenda. Update, regenerate or approve it."
	case core.StepApproval:
		return "Please review the meeting summary and confirm."
	case core.StepCompleted:
		return "The meeting is on the calendar. Anything else?"
	default:
		return "Working on it."
	}
}

// promptFor builds the structured prompt for steps that have an interactive
// control. Mechanical steps and plain-chat states return nil.
func (o *Orchestrator) promptFor(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState) core.Prompt {
	draft := state.MeetingDraft
	switch state.CurrentStep {
	case core.StepMeetingTypeSelection:
		return core.MeetingTypePrompt{Options: []core.MeetingType{core.MeetingTypePhysical, core.MeetingTypeOnline}}

	case core.StepTimeDateCollection:
		return core.TimeCollectionPrompt{SuggestedStart: draft.StartTime, SuggestedEnd: draft.EndTime}

	case core.StepConflictResolution:
		conflicts, err := o.listConflicts(ctx, convCtx, draft)
		if err != nil {
			o.logger.Warn("could not refresh conflicts", "error", err.Error())
		}
		return core.ConflictPrompt{Conflicts: conflicts}

	case core.StepAttendeeCollection:
		minRequired := 0
		if draft.Type == core.MeetingTypeOnline {
			minRequired = 1
		}
		return core.AttendeePrompt{Attendees: append([]core.Attendee{}, draft.Attendees...), MinRequired: minRequired}

	case core.StepDetailsCollection:
		var suggestions []string
		if draft.Title == "" {
			suggestions = o.ai.GenerateTitles(ctx, describeDraft(draft))
		}
		return core.DetailsPrompt{
			TitleSuggestions: suggestions,
			NeedsLocation:    draft.Type == core.MeetingTypePhysical && draft.Location == "",
		}

	case core.StepAgendaApproval:
		return core.AgendaEditorPrompt{Agenda: draft.Agenda, Actions: []string{AgendaActionUpdate, AgendaActionRegenerate, AgendaActionApprove}}

	case core.StepApproval:
		return core.ApprovalPrompt{Draft: *draft.Clone()}

	default:
		return nil
	}
}

// listConflicts queries the calendar for events overlapping the draft window.
func (o *Orchestrator) listConflicts(ctx context.Context, convCtx *core.ConversationContext, draft *core.MeetingDraft) ([]core.TimeConflict, error) {
	if o.calendar == nil || convCtx.CalendarAccessStatus != core.CalendarAccessGranted {
		return nil, nil
	}
	if draft.StartTime == nil || draft.EndTime == nil {
		return nil, nil
	}
	events, err := o.calendar.ListEvents(ctx, *draft.StartTime, *draft.EndTime)
	if err != nil {
		return nil, err
	}
	var conflicts []core.TimeConflict
	for _, e := range events {
		if e.Overlaps(*draft.StartTime, *draft.EndTime) {
			conflicts = append(conflicts, core.TimeConflict{EventID: e.ID, Title: e.Title, Start: e.Start, End: e.End})
		}
	}
	return conflicts, nil
}

// describeDraft builds the purpose text handed to title generation.
func describeDraft(d *core.MeetingDraft) string {
	desc := fmt.Sprintf("%s meeting with %d attendees", d.Type, len(d.Attendees))
	if d.StartTime != nil {
		desc += " on " + d.StartTime.Format("Monday, January 2")
	}
	return desc
}
