// Package meetingmesh assembles the conversational meeting scheduling
// assistant: the context engine, the workflow orchestrator, the AI router and
// their storage and calendar backends, behind one façade.
//
// The Assistant serializes all mutations per conversation, so concurrent
// messages for the same conversation are applied one at a time while
// different conversations proceed in parallel. Per-conversation workflow
// position lives in a bounded, expiring cache; the meeting draft itself is
// persisted with the conversation context and survives cache eviction.
package meetingmesh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/meetingmesh/meetingmesh/attendee"
	"github.com/meetingmesh/meetingmesh/calendar"
	"github.com/meetingmesh/meetingmesh/contextengine"
	"github.com/meetingmesh/meetingmesh/core"
	"github.com/meetingmesh/meetingmesh/logging"
	"github.com/meetingmesh/meetingmesh/notify"
	"github.com/meetingmesh/meetingmesh/router"
	"github.com/meetingmesh/meetingmesh/storage"
	"github.com/meetingmesh/meetingmesh/workflow"
)

// Options configures an Assistant.
type Options struct {
	// Router dispatches the AI operations. Required.
	Router *router.Router
	// Store persists conversation contexts. Defaults to in-memory.
	Store core.ConversationStore
	// Calendar backs availability checks and event creation. Optional.
	Calendar calendar.Provider
	// Notifier receives meeting lifecycle events. Defaults to the logging
	// fallback.
	Notifier notify.Publisher
	// Logger defaults to NoOp if nil.
	Logger logging.Logger
	// CacheSize bounds the per-conversation runtime cache. Defaults to 1024.
	CacheSize int
	// CacheTTL expires idle conversation runtimes. Defaults to 30 minutes.
	CacheTTL time.Duration
}

// session is the process-local runtime for one conversation: its workflow
// position and the lock serializing mutations.
type session struct {
	mu    sync.Mutex
	state *core.WorkflowState
}

// Assistant is the top-level entry point.
type Assistant struct {
	store  core.ConversationStore
	engine *contextengine.Engine
	orch   *workflow.Orchestrator
	logger logging.Logger

	mu       sync.Mutex
	sessions *expirable.LRU[string, *session]
}

// New wires the assistant together.
func New(optFns ...func(o *Options)) (*Assistant, error) {
	opts := Options{
		Logger:    logging.NoOpLogger{},
		CacheSize: 1024,
		CacheTTL:  30 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Router == nil {
		return nil, fmt.Errorf("meetingmesh: a router is required")
	}
	if opts.Store == nil {
		opts.Store = storage.NewInMemoryStore()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewFallbackPublisher(opts.Logger)
	}

	engine, err := contextengine.New(func(o *contextengine.Options) {
		o.Store = opts.Store
		o.Summarizer = opts.Router
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	var provider calendar.Provider
	if opts.Calendar != nil {
		provider = calendar.WithRetry(opts.Calendar, func(o *calendar.RetryOptions) {
			o.Logger = opts.Logger
		})
	}

	orch, err := workflow.New(func(o *workflow.Options) {
		o.AI = opts.Router
		o.Compressor = engine
		o.Validator = attendee.New(func(vo *attendee.Options) {
			vo.Verifier = opts.Router
			vo.Logger = opts.Logger
		})
		o.Calendar = provider
		o.Notifier = opts.Notifier
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	return &Assistant{
		store:    opts.Store,
		engine:   engine,
		orch:     orch,
		logger:   opts.Logger,
		sessions: expirable.NewLRU[string, *session](opts.CacheSize, nil, opts.CacheTTL),
	}, nil
}

// conversationID resolves the effective conversation key. Without an explicit
// id every user gets one implicit ongoing conversation.
func conversationID(userID, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return "user:" + userID
}

// acquire returns the locked session for a conversation. The caller must
// Unlock it.
func (a *Assistant) acquire(convID string) *session {
	a.mu.Lock()
	s, ok := a.sessions.Get(convID)
	if !ok {
		s = &session{state: core.NewWorkflowState()}
		a.sessions.Add(convID, s)
	}
	a.mu.Unlock()
	s.mu.Lock()
	return s
}

// ProcessMessage handles one user chat message end to end: store it, detect
// the conversational mode, drive the workflow and persist the outcome. The
// returned envelope carries the reply, the workflow snapshot and any
// validation errors.
func (a *Assistant) ProcessMessage(ctx context.Context, userID, convID, message string) (core.Envelope, error) {
	id := conversationID(userID, convID)
	s := a.acquire(id)
	defer s.mu.Unlock()

	convCtx, err := a.engine.Load(ctx, id)
	if err != nil {
		return core.Envelope{}, err
	}
	if err := a.engine.AddMessage(ctx, convCtx, core.NewUserMessage(message)); err != nil {
		return core.Envelope{}, err
	}

	env, err := a.orch.ProcessMessage(ctx, convCtx, s.state)
	if err != nil {
		return core.Envelope{}, err
	}

	if err := a.persist(ctx, convCtx, env.Message); err != nil {
		return core.Envelope{}, err
	}
	return env, nil
}

// AdvanceStep requests an explicit workflow transition, typically from a
// structured prompt interaction. Rejected transitions come back with
// success=false and the blocking reasons; they are not errors.
func (a *Assistant) AdvanceStep(ctx context.Context, userID, convID string, step core.Step, data core.DraftPatch) (core.AdvanceResult, error) {
	id := conversationID(userID, convID)
	s := a.acquire(id)
	defer s.mu.Unlock()

	convCtx, err := a.engine.Load(ctx, id)
	if err != nil {
		return core.AdvanceResult{}, err
	}
	result := a.orch.AdvanceToStep(ctx, convCtx, s.state, step, data)
	if err := a.persist(ctx, convCtx, result.Message); err != nil {
		return core.AdvanceResult{}, err
	}
	return result, nil
}

// HandleStructuredInteraction applies a reply to a structured prompt, such as
// a meeting type choice or an agenda action, and returns the same envelope
// shape as ProcessMessage.
func (a *Assistant) HandleStructuredInteraction(ctx context.Context, userID, convID string, in workflow.Interaction) (core.Envelope, error) {
	id := conversationID(userID, convID)
	s := a.acquire(id)
	defer s.mu.Unlock()

	convCtx, err := a.engine.Load(ctx, id)
	if err != nil {
		return core.Envelope{}, err
	}
	env := a.orch.HandleInteraction(ctx, convCtx, s.state, in)
	if err := a.persist(ctx, convCtx, env.Message); err != nil {
		return core.Envelope{}, err
	}
	return env, nil
}

// ProcessStepTransition applies a same-step refinement, such as editing the
// attendee list while staying in attendee collection.
func (a *Assistant) ProcessStepTransition(ctx context.Context, userID, convID string, from, to core.Step, data core.DraftPatch) (core.AdvanceResult, error) {
	id := conversationID(userID, convID)
	s := a.acquire(id)
	defer s.mu.Unlock()

	convCtx, err := a.engine.Load(ctx, id)
	if err != nil {
		return core.AdvanceResult{}, err
	}
	result := a.orch.ProcessStepTransition(ctx, convCtx, s.state, from, to, data)
	if err := a.persist(ctx, convCtx, result.Message); err != nil {
		return core.AdvanceResult{}, err
	}
	return result, nil
}

// HandleAgendaAction drives the agenda editor sub-flow (update, regenerate,
// approve).
func (a *Assistant) HandleAgendaAction(ctx context.Context, userID, convID, action, content string) (core.AdvanceResult, error) {
	id := conversationID(userID, convID)
	s := a.acquire(id)
	defer s.mu.Unlock()

	convCtx, err := a.engine.Load(ctx, id)
	if err != nil {
		return core.AdvanceResult{}, err
	}
	result := a.orch.HandleAgendaAction(ctx, convCtx, s.state, action, content)
	if err := a.persist(ctx, convCtx, result.Message); err != nil {
		return core.AdvanceResult{}, err
	}
	return result, nil
}

// WorkflowState returns the current workflow snapshot for a conversation.
func (a *Assistant) WorkflowState(userID, convID string) core.WorkflowSnapshot {
	id := conversationID(userID, convID)
	s := a.acquire(id)
	defer s.mu.Unlock()
	return core.WorkflowSnapshot{
		CurrentStep:   s.state.CurrentStep,
		RequiresInput: s.state.CurrentStep.RequiresInput(),
		IsComplete:    s.state.IsComplete,
		Draft:         s.state.MeetingDraft.Clone(),
	}
}

// Context returns the persisted conversation context.
func (a *Assistant) Context(ctx context.Context, userID, convID string) (*core.ConversationContext, error) {
	return a.engine.Load(ctx, conversationID(userID, convID))
}

// persist writes the updated context back and records the assistant's reply
// in the message history.
func (a *Assistant) persist(ctx context.Context, convCtx *core.ConversationContext, reply string) error {
	if reply != "" {
		if err := a.engine.AddMessage(ctx, convCtx, core.NewAssistantMessage(reply)); err != nil {
			return err
		}
		return nil
	}
	return a.store.PutContext(ctx, convCtx.ConversationID, convCtx)
}
