package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/meetingmesh/meetingmesh/core"
	"github.com/meetingmesh/meetingmesh/rules"
)

// Agenda editor actions offered while the workflow sits at agenda approval.
const (
	AgendaActionUpdate     = "update"
	AgendaActionRegenerate = "regenerate"
	AgendaActionApprove    = "approve"
)

// HandleAgendaAction drives the agenda editor sub-flow. Update replaces the
// agenda with user-provided content, regenerate asks the backend for a new
// one (reusing the conversation as background) and approve validates the
// content and moves the workflow to final approval.
func (o *Orchestrator) HandleAgendaAction(ctx context.Context, convCtx *core.ConversationContext, state *core.WorkflowState, action, content string) core.AdvanceResult {
	syncDraft(convCtx, state)

	if state.CurrentStep != core.StepAgendaApproval {
		return o.reject(state, fmt.Sprintf("the agenda editor is not active at step %s", state.CurrentStep))
	}

	switch action {
	case AgendaActionUpdate:
		if result := rules.ValidateAgenda(content); !result.IsValid {
			return o.reject(state, result.Errors...)
		}
		state.MeetingDraft.Agenda = strings.TrimSpace(content)
		state.ValidationErrors = []string{}
		return core.AdvanceResult{
			Success:    true,
			Message:    "Agenda updated. Approve it when you are ready.",
			Workflow:   o.snapshot(state),
			Validation: core.ValidResult(),
		}

	case AgendaActionRegenerate:
		// User guidance takes precedence over the compressed history.
		background := content
		if background == "" {
			background = o.agendaBackground(ctx, convCtx)
		}
		agenda, err := o.ai.GenerateAgenda(ctx, state.MeetingDraft, background)
		if err != nil {
			return o.reject(state, "agenda generation is unavailable right now, try again")
		}
		state.MeetingDraft.Agenda = agenda
		state.ValidationErrors = []string{}
		return core.AdvanceResult{
			Success:    true,
			Message:    "Here is a fresh agenda.",
			Workflow:   o.snapshot(state),
			Validation: core.ValidResult(),
		}

	case AgendaActionApprove:
		if result := rules.ValidateAgenda(state.MeetingDraft.Agenda); !result.IsValid {
			reasons := append([]string{"cannot approve agenda with validation errors"}, result.Errors...)
			return o.reject(state, reasons...)
		}
		state.MeetingDraft.Status = core.DraftStatusPendingApproval
		o.transition(state, core.StepApproval)
		state.ValidationErrors = []string{}
		return core.AdvanceResult{
			Success:    true,
			Message:    o.messageFor(state),
			Workflow:   o.snapshot(state),
			Validation: core.ValidResult(),
		}

	default:
		return o.reject(state, fmt.Sprintf("unknown agenda action %q", action))
	}
}
