package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/meetingmesh/meetingmesh/attendee"
	"github.com/meetingmesh/meetingmesh/calendar"
	"github.com/meetingmesh/meetingmesh/contextengine"
	"github.com/meetingmesh/meetingmesh/core"
	"github.com/meetingmesh/meetingmesh/logging"
	"github.com/meetingmesh/meetingmesh/notify"
	"github.com/meetingmesh/meetingmesh/router"
	"github.com/meetingmesh/meetingmesh/rules"
)

// recentWindow is how many trailing messages intent extraction sees.
const recentWindow = 6

// AI is the seam to the routed model operations. *router.Router satisfies it.
type AI interface {
	ExtractIntent(ctx context.Context, msgs []core.Message) (router.IntentResult, error)
	GenerateTitles(ctx context.Context, purpose string) []string
	GenerateAgenda(ctx context.Context, draft *core.MeetingDraft, background string) (string, error)
}

// Compressor supplies the compact conversation view fed into content
// generation prompts. *contextengine.Engine satisfies it.
type Compressor interface {
	GetCompressedContext(ctx context.Context, convCtx *core.ConversationContext, strategy contextengine.Strategy) contextengine.Compressed
}

// Options configures an Orchestrator.
type Options struct {
	// AI backs intent extraction and content generation. Required.
	AI AI
	// Validator checks attendee emails. Defaults to a format-only validator.
	Validator *attendee.Validator
	// Compressor provides conversation background for agenda generation.
	// Optional; without one agendas are generated from the draft alone.
	Compressor Compressor
	// Calendar backs availability checks and event creation. Optional; without
	// one calendar access is reported denied and creation fails validation.
	Calendar calendar.Provider
	// Notifier receives lifecycle events, best effort. Defaults to the
	// logging fallback.
	Notifier notify.Publisher
	// Logger defaults to NoOp if nil.
	Logger logging.Logger
	// ConfidenceThreshold gates acting on extracted intent. Defaults to 0.7.
	ConfidenceThreshold float64
	// Now is the clock, swappable in tests.
	Now func() time.Time
}

// Orchestrator is the meeting workflow state machine. It is stateless across
// calls: all per-conversation state lives in the ConversationContext and
// WorkflowState the caller passes in, and the caller serializes access per
// conversation.
type Orchestrator struct {
	ai         AI
	validator  *attendee.Validator
	compressor Compressor
	calendar   calendar.Provider
	notifier   notify.Publisher
	logger     logging.Logger
	confidence float64
	now        func() time.Time
}

// New creates an Orchestrator.
func New(optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		Logger:              logging.NoOpLogger{},
		ConfidenceThreshold: 0.7,
		Now:                 time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.AI == nil {
		return nil, fmt.Errorf("workflow: AI operations are required")
	}
	if opts.Validator == nil {
		opts.Validator = attendee.New()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewFallbackPublisher(opts.Logger)
	}
	return &Orchestrator{
		ai:         opts.AI,
		validator:  opts.Validator,
		compressor: opts.Compressor,
		calendar:   opts.Calendar,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
		confidence: opts.ConfidenceThreshold,
		now:        opts.Now,
	}, nil
}

// ProcessMessage reacts to a newly appended user message: it extracts intent,
// seeds or refines the draft, auto-advances past mechanical steps and
// assembles the response envelope. At intent detection a failed extraction
// backend is a blocking error; past that point the workflow keeps moving on
// whatever data it already holds.
func (o *Orchestrator) ProcessMessage(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState) (core.Envelope, error) {
	syncDraft(convCtx, state)

	if state.CurrentStep == core.StepIntentDetection {
		intent, err := o.ai.ExtractIntent(ctx, convCtx.RecentMessages(recentWindow))
		if err != nil {
			return core.Envelope{}, fmt.Errorf("workflow: intent extraction: %w", err)
		}
		if intent.Intent != router.IntentScheduleMeeting || intent.Confidence < o.confidence {
			return core.Envelope{
				Message:    "Happy to chat. Tell me when you want to schedule a meeting.",
				Workflow:   o.snapshot(state),
				Validation: core.ValidResult(),
			}, nil
		}
		o.merge(convCtx, state, intent.DraftPatch())
		o.transition(state, core.StepCalendarVerification)
	} else if !state.IsComplete {
		// Refinement turn: harvest any newly mentioned fields, but never let a
		// locked meeting type change under the user.
		if intent, err := o.ai.ExtractIntent(ctx, convCtx.RecentMessages(recentWindow)); err == nil && intent.Confidence >= o.confidence {
			patch := intent.DraftPatch()
			if state.TypeLocked() {
				patch.Type = ""
			}
			if !patch.Empty() {
				o.merge(convCtx, state, patch)
			}
		}
	}

	o.autoAdvance(ctx, convCtx, state)
	return o.envelope(ctx, convCtx, state), nil
}

// AdvanceToStep validates the preconditions for the target step, merges the
// provided data into the draft, runs the business rules appropriate to the
// target and either advances or returns blocking errors. Rejections leave the
// current step unchanged.
func (o *Orchestrator) AdvanceToStep(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState, target core.Step, data core.DraftPatch) core.AdvanceResult {
	syncDraft(convCtx, state)

	if !target.Valid() {
		return o.reject(state, fmt.Sprintf("unknown workflow step %q", target))
	}
	if reasons := o.preconditions(convCtx, state, target, data); len(reasons) > 0 {
		return o.reject(state, reasons...)
	}
	if result := o.applyData(ctx, convCtx, state, data); !result.IsValid {
		return o.reject(state, result.Errors...)
	}
	if result := o.validateForStep(convCtx, state, target); !result.IsValid {
		return o.reject(state, result.Errors...)
	}

	if state.CurrentStep == core.StepApproval && target == core.StepCreation {
		// The user just confirmed the summary.
		state.MeetingDraft.Status = core.DraftStatusApproved
		o.publish(ctx, notify.KeyMeetingApproved, convCtx, nil, "", "meeting approved")
	}

	o.transition(state, target)
	state.ValidationErrors = []string{}
	o.autoAdvance(ctx, convCtx, state)

	return core.AdvanceResult{
		Success:    len(state.ValidationErrors) == 0,
		Message:    o.messageFor(state),
		Workflow:   o.snapshot(state),
		Validation: core.ValidationResult{IsValid: len(state.ValidationErrors) == 0, Errors: append([]string{}, state.ValidationErrors...), Warnings: []string{}},
	}
}

// ProcessStepTransition is the narrow primitive for same-step refinements,
// such as repeatedly editing the attendee list while staying in attendee
// collection. A from step that does not match the live state is rejected.
func (o *Orchestrator) ProcessStepTransition(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState, from, to core.Step, data core.DraftPatch) core.AdvanceResult {
	syncDraft(convCtx, state)

	if from != state.CurrentStep {
		return o.reject(state, fmt.Sprintf("workflow is at %s, not %s", state.CurrentStep, from))
	}
	if from != to {
		return o.AdvanceToStep(ctx, convCtx, state, to, data)
	}
	if result := o.applyData(ctx, convCtx, state, data); !result.IsValid {
		return o.reject(state, result.Errors...)
	}
	state.ValidationErrors = []string{}
	return core.AdvanceResult{
		Success:    true,
		Message:    o.messageFor(state),
		Workflow:   o.snapshot(state),
		Validation: core.ValidResult(),
	}
}

// autoAdvance runs mechanical steps until one needs input, the workflow
// completes or a step blocks.
func (o *Orchestrator) autoAdvance(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState) {
	for !state.IsComplete && !state.CurrentStep.RequiresInput() {
		if !o.runAutoStep(ctx, convCtx, state) {
			return
		}
	}
}

// runAutoStep executes one mechanical step. It returns false when the loop
// must stop: the step blocked or the workflow completed.
func (o *Orchestrator) runAutoStep(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState) bool {
	switch state.CurrentStep {
	case core.StepCalendarVerification:
		if o.calendar == nil {
			convCtx.CalendarAccessStatus = core.CalendarAccessDenied
			o.logger.Warn("no calendar provider configured, availability checks disabled",
				"conversation_id", convCtx.ConversationID)
		} else {
			convCtx.CalendarAccessStatus = core.CalendarAccessGranted
		}
		o.transition(state, core.StepMeetingTypeSelection)
		return true

	case core.StepAvailabilityCheck:
		conflicts, err := o.listConflicts(ctx, convCtx, state.MeetingDraft)
		if err != nil {
			// Reads are already retried below us; a persistent failure must not
			// strand the workflow, so proceed unchecked.
			o.logger.Warn("availability check failed, proceeding without it",
				"conversation_id", convCtx.ConversationID, "error", err.Error())
		}
		convCtx.AvailabilityChecked = err == nil
		if len(conflicts) > 0 {
			o.publish(ctx, notify.KeyConflictDetected, convCtx, nil, "",
				fmt.Sprintf("%d overlapping events", len(conflicts)))
			o.transition(state, core.StepConflictResolution)
			return true
		}
		o.transition(state, core.StepAttendeeCollection)
		return true

	case core.StepValidation:
		result := rules.ValidateMeeting(state.MeetingDraft, o.now())
		if !result.IsValid {
			state.ValidationErrors = result.Errors
			// Send the user back to the step where the gaps can be filled.
			o.transition(state, core.StepDetailsCollection)
			return false
		}
		state.ValidationErrors = []string{}
		o.transition(state, core.StepAgendaGeneration)
		return true

	case core.StepAgendaGeneration:
		if state.MeetingDraft.Agenda == "" {
			agenda, err := o.ai.GenerateAgenda(ctx, state.MeetingDraft, o.agendaBackground(ctx, convCtx))
			if err != nil {
				state.ValidationErrors = []string{"agenda generation is unavailable right now, try again"}
				return false
			}
			state.MeetingDraft.Agenda = agenda
		}
		o.transition(state, core.StepAgendaApproval)
		return true

	case core.StepCreation:
		if err := o.createMeeting(ctx, convCtx, state); err != nil {
			// Calendar writes are never retried: surface the failure and let the
			// user decide to try again.
			state.ValidationErrors = []string{fmt.Sprintf("could not create the calendar event: %v", err)}
			return false
		}
		o.transition(state, core.StepCompleted)
		return true

	case core.StepCompleted:
		state.IsComplete = true
		state.ValidationErrors = []string{}
		return false

	default:
		return false
	}
}

// agendaBackground produces the conversation background for agenda prompts:
// the compressed history when a compressor is wired, otherwise nothing.
func (o *Orchestrator) agendaBackground(ctx context.Context, convCtx *core.ConversationContext) string {
	if o.compressor == nil {
		return ""
	}
	return o.compressor.GetCompressedContext(ctx, convCtx, contextengine.StrategyHybrid).Text
}

// createMeeting writes the approved draft to the calendar and publishes the
// created event.
func (o *Orchestrator) createMeeting(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState) error {
	if o.calendar == nil {
		return fmt.Errorf("no calendar provider configured")
	}
	payload, err := calendar.PayloadFromDraft(state.MeetingDraft)
	if err != nil {
		return err
	}
	event, err := o.calendar.CreateEvent(ctx, payload)
	if err != nil {
		return err
	}
	state.MeetingDraft.Status = core.DraftStatusCreated
	o.logger.Info("meeting created",
		"conversation_id", convCtx.ConversationID, "event_id", event.ID)

	invite, err := calendar.RenderInvite(event, payload)
	if err != nil {
		// The meeting exists either way; the notification just goes out bare.
		o.logger.Warn("invite rendering failed",
			"event_id", event.ID, "error", err.Error())
	}
	o.publish(ctx, notify.KeyMeetingCreated, convCtx, &event, invite, "meeting created")
	return nil
}

// applyData merges a patch into the draft, running attendee verification on
// any new attendees. A type change on a locked draft is a blocking error.
func (o *Orchestrator) applyData(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState, data core.DraftPatch) core.ValidationResult {
	if data.Empty() {
		return core.ValidResult()
	}
	if data.Type != "" && state.TypeLocked() && data.Type != state.MeetingDraft.Type {
		return core.Invalid("meeting type is locked and can no longer change")
	}

	if len(data.Attendees) > 0 {
		emails := make([]string, len(data.Attendees))
		for i, a := range data.Attendees {
			emails[i] = a.Email
		}
		results := o.validator.ValidateBatch(ctx, emails)
		var errs []string
		for _, r := range results {
			if !r.Valid {
				errs = append(errs, fmt.Sprintf("attendee email %q was rejected", r.Email))
			}
		}
		if len(errs) > 0 {
			return core.Invalid(errs...)
		}
		data.Attendees = attendee.Apply(data.Attendees, results)
	}

	o.merge(convCtx, state, data)
	return core.ValidResult()
}

// merge applies the patch to the shared draft and refreshes the derived
// context flags.
func (o *Orchestrator) merge(convCtx *core.ConversationContext, state *core.WorkflowState, patch core.DraftPatch) {
	merged := core.MergeDraft(state.MeetingDraft, patch)
	state.MeetingDraft = merged
	convCtx.MeetingDraft = merged
	convCtx.TimeCollectionComplete = merged.TimeCollectionComplete()
	if patch.TouchesTime() {
		convCtx.AvailabilityChecked = false
	}
}

func (o *Orchestrator) transition(state *core.WorkflowState, to core.Step) {
	from := state.CurrentStep
	state.CurrentStep = to
	if to == core.StepCompleted {
		state.IsComplete = true
	}
	o.logger.Debug("workflow step transition", "from", string(from), "to", string(to))
}

func (o *Orchestrator) reject(state *core.WorkflowState, reasons ...string) core.AdvanceResult {
	state.ValidationErrors = append([]string{}, reasons...)
	msg := "the workflow cannot advance"
	if len(reasons) > 0 {
		msg = reasons[0]
	}
	return core.AdvanceResult{
		Success:    false,
		Message:    msg,
		Workflow:   o.snapshot(state),
		Validation: core.Invalid(reasons...),
	}
}

func (o *Orchestrator) publish(ctx context.Context, key string, convCtx *core.ConversationContext, event *calendar.Event, invite, detail string) {
	msg := notify.Envelope{
		ConversationID: convCtx.ConversationID,
		OccurredAt:     o.now().UTC(),
		Event:          event,
		Invite:         invite,
		Detail:         detail,
	}
	if err := o.notifier.Publish(ctx, key, msg); err != nil {
		o.logger.Warn("event publish failed", "key", key, "error", err.Error())
	}
}

func (o *Orchestrator) snapshot(state *core.WorkflowState) core.WorkflowSnapshot {
	return core.WorkflowSnapshot{
		CurrentStep:   state.CurrentStep,
		RequiresInput: state.CurrentStep.RequiresInput(),
		IsComplete:    state.IsComplete,
		Draft:         state.MeetingDraft.Clone(),
	}
}

// syncDraft keeps the context and workflow pointing at the same draft.
func syncDraft(convCtx *core.ConversationContext, state *core.WorkflowState) {
	if state.MeetingDraft == nil {
		state.MeetingDraft = core.NewMeetingDraft()
	}
	if convCtx.MeetingDraft == nil {
		convCtx.MeetingDraft = state.MeetingDraft
		return
	}
	state.MeetingDraft = convCtx.MeetingDraft
}
