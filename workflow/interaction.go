package workflow

import (
	"context"
	"fmt"

	"github.com/meetingmesh/meetingmesh/core"
)

// Interaction is a reply to a structured prompt: the prompt kind it answers
// plus the data it carries. Agenda editor replies use Action and Content
// instead of a draft patch. Refine applies Data without leaving the current
// step, for prompts that support repeated edits such as attendee management.
type Interaction struct {
	Kind    core.PromptKind `json:"kind"`
	Data    core.DraftPatch `json:"data"`
	Action  string          `json:"action,omitempty"`
	Content string          `json:"content,omitempty"`
	Refine  bool            `json:"refine,omitempty"`
}

// targetStep maps a prompt kind to the step its answer moves the workflow
// toward. Auto-advanced steps between the two still run.
func targetStep(kind core.PromptKind) (core.Step, bool) {
	switch kind {
	case core.PromptKindMeetingType:
		return core.StepTimeDateCollection, true
	case core.PromptKindTimeCollection:
		return core.StepAvailabilityCheck, true
	case core.PromptKindConflict:
		return core.StepAttendeeCollection, true
	case core.PromptKindAttendees:
		return core.StepDetailsCollection, true
	case core.PromptKindDetails:
		return core.StepValidation, true
	case core.PromptKindMeetingApproval:
		return core.StepCreation, true
	default:
		return "", false
	}
}

// HandleInteraction applies a structured prompt reply and returns the full
// response envelope for the resulting state, including the next prompt when
// the workflow still needs input.
func (o *Orchestrator) HandleInteraction(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState, in Interaction) core.Envelope {
	var result core.AdvanceResult
	switch {
	case in.Kind == core.PromptKindAgendaEditor:
		result = o.HandleAgendaAction(ctx, convCtx, state, in.Action, in.Content)
	case in.Refine && in.Kind == core.PromptKindAttendees:
		result = o.ProcessStepTransition(ctx, convCtx, state, core.StepAttendeeCollection, core.StepAttendeeCollection, in.Data)
	default:
		target, ok := targetStep(in.Kind)
		if !ok {
			result = o.reject(state, fmt.Sprintf("unknown prompt kind %q", in.Kind))
			break
		}
		result = o.AdvanceToStep(ctx, convCtx, state, target, in.Data)
	}

	env := o.envelope(ctx, convCtx, state)
	if result.Message != "" {
		env.Message = result.Message
	}
	env.Validation = result.Validation
	return env
}
