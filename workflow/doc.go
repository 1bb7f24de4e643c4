// Package workflow drives the step-gated meeting creation state machine. The
// orchestrator consumes conversation state, calls AI operations for
// extraction and generation, applies the business rules and emits the next
// conversational action plus an optional structured prompt.
//
// Steps that need no user input are advanced automatically so purely
// mechanical stages are never exposed to the user. Every rejected transition
// leaves the current step unchanged and reports a human-readable reason.
package workflow
