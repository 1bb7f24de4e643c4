package core

// Step is a named state in the workflow state machine gating what data or
// action is expected next. Steps form a fixed, linearly intended sequence;
// the orchestrator enforces the preconditions between them.
type Step string

const (
	StepIntentDetection       Step = "intent_detection"
	StepCalendarVerification  Step = "calendar_access_verification"
	StepMeetingTypeSelection  Step = "meeting_type_selection"
	StepTimeDateCollection    Step = "time_date_collection"
	StepAvailabilityCheck     Step = "availability_check"
	StepConflictResolution    Step = "conflict_resolution"
	StepAttendeeCollection    Step = "attendee_collection"
	StepDetailsCollection     Step = "meeting_details_collection"
	StepValidation            Step = "validation"
	StepAgendaGeneration      Step = "agenda_generation"
	StepAgendaApproval        Step = "agenda_approval"
	StepApproval              Step = "approval"
	StepCreation              Step = "creation"
	StepCompleted             Step = "completed"
)

// StepOrder lists every workflow step in intended execution order.
var StepOrder = []Step{
	StepIntentDetection,
	StepCalendarVerification,
	StepMeetingTypeSelection,
	StepTimeDateCollection,
	StepAvailabilityCheck,
	StepConflictResolution,
	StepAttendeeCollection,
	StepDetailsCollection,
	StepValidation,
	StepAgendaGeneration,
	StepAgendaApproval,
	StepApproval,
	StepCreation,
	StepCompleted,
}

var stepIndex = func() map[Step]int {
	m := make(map[Step]int, len(StepOrder))
	for i, s := range StepOrder {
		m[s] = i
	}
	return m
}()

// StepIndex returns the position of s in the intended order, or -1 for an
// unknown step.
func StepIndex(s Step) int {
	if i, ok := stepIndex[s]; ok {
		return i
	}
	return -1
}

// Valid reports whether s names a known workflow step.
func (s Step) Valid() bool { return StepIndex(s) >= 0 }

// After reports whether s comes after other in the intended order.
func (s Step) After(other Step) bool { return StepIndex(s) > StepIndex(other) }

// RequiresInput reports whether the step needs user interaction before the
// workflow can move on. Purely mechanical steps are auto-advanced so they
// are never exposed to the user.
func (s Step) RequiresInput() bool {
	switch s {
	case StepCalendarVerification, StepAvailabilityCheck, StepValidation,
		StepAgendaGeneration, StepCreation, StepCompleted:
		return false
	default:
		return true
	}
}

// Terminal reports whether the workflow is finished at this step.
func (s Step) Terminal() bool { return s == StepCompleted }

// WorkflowState is the orchestrator-owned state machine snapshot for one
// conversation.
type WorkflowState struct {
	CurrentStep      Step          `json:"current_step"`
	MeetingDraft     *MeetingDraft `json:"meeting_draft"`
	ValidationErrors []string      `json:"validation_errors"`
	IsComplete       bool          `json:"is_complete"`
}

// NewWorkflowState returns a fresh state positioned at intent detection.
func NewWorkflowState() *WorkflowState {
	return &WorkflowState{
		CurrentStep:      StepIntentDetection,
		MeetingDraft:     NewMeetingDraft(),
		ValidationErrors: []string{},
	}
}

// Clone returns a deep copy safe for independent mutation.
func (w *WorkflowState) Clone() *WorkflowState {
	if w == nil {
		return nil
	}
	clone := *w
	clone.MeetingDraft = w.MeetingDraft.Clone()
	clone.ValidationErrors = append([]string{}, w.ValidationErrors...)
	return &clone
}

// TypeLocked reports whether the meeting type may no longer change: once set
// and past the selection step, any further type change request is rejected
// rather than silently re-branching the flow.
func (w *WorkflowState) TypeLocked() bool {
	if w.MeetingDraft == nil || w.MeetingDraft.Type == "" {
		return false
	}
	return w.CurrentStep != StepIntentDetection && w.CurrentStep != StepMeetingTypeSelection
}
