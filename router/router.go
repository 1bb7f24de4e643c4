package router

import (
	"context"
	"fmt"
	"time"

	"github.com/meetingmesh/meetingmesh/logging"
	"github.com/meetingmesh/meetingmesh/model"
)

// Operation names for every routed call. Rules are looked up by these.
const (
	OpExtractIntent   = "extract_meeting_intent"
	OpGenerateTitles  = "generate_meeting_titles"
	OpGenerateAgenda  = "generate_agenda"
	OpSummarize       = "summarize_conversation"
	OpPolishWording   = "polish_wording"
	OpVerifyAttendees = "verify_attendees"
)

// Backend names used by the default rule table. Callers register concrete
// model.Model implementations under these keys (or their own).
const (
	BackendPrimary   = "primary"
	BackendSecondary = "secondary"
)

// Rule is the static routing configuration for one logical operation.
// Loaded once, read-only at runtime.
type Rule struct {
	Operation  string
	Primary    string
	Fallback   string
	Timeout    time.Duration
	CostWeight float64
	// MaxAttempts bounds retries per backend for retryable failures.
	MaxAttempts int
}

// DefaultRules returns the built-in rule table. Extraction and generation get
// generous timeouts and full retries; cosmetic wording operations run tighter
// since they degrade anyway.
func DefaultRules() []Rule {
	return []Rule{
		{Operation: OpExtractIntent, Primary: BackendPrimary, Fallback: BackendSecondary, Timeout: 10 * time.Second, CostWeight: 1.0, MaxAttempts: 3},
		{Operation: OpGenerateAgenda, Primary: BackendPrimary, Fallback: BackendSecondary, Timeout: 20 * time.Second, CostWeight: 2.0, MaxAttempts: 3},
		{Operation: OpSummarize, Primary: BackendSecondary, Fallback: BackendPrimary, Timeout: 15 * time.Second, CostWeight: 1.5, MaxAttempts: 3},
		{Operation: OpGenerateTitles, Primary: BackendSecondary, Fallback: BackendPrimary, Timeout: 8 * time.Second, CostWeight: 0.5, MaxAttempts: 2},
		{Operation: OpPolishWording, Primary: BackendSecondary, Fallback: BackendPrimary, Timeout: 8 * time.Second, CostWeight: 0.5, MaxAttempts: 2},
		{Operation: OpVerifyAttendees, Primary: BackendSecondary, Fallback: BackendPrimary, Timeout: 8 * time.Second, CostWeight: 0.5, MaxAttempts: 2},
	}
}

// Options configures a Router instance.
type Options struct {
	// Backends maps backend names to model implementations.
	Backends map[string]model.Model
	// Rules overrides the default routing rule table.
	Rules []Rule
	// Logger defaults to NoOp if nil.
	Logger logging.Logger
	// BackoffBase is the initial retry delay, doubled per attempt.
	BackoffBase time.Duration
}

// Router dispatches logical operations to configured backends with fallback,
// retries and degradation. Safe for concurrent use; all fields are immutable
// after construction.
type Router struct {
	backends    map[string]model.Model
	rules       map[string]Rule
	logger      logging.Logger
	backoffBase time.Duration
	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Router. At least one backend must be registered before any
// Invoke call can succeed.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{
		Backends:    map[string]model.Model{},
		Rules:       DefaultRules(),
		Logger:      logging.NoOpLogger{},
		BackoffBase: 100 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	rules := make(map[string]Rule, len(opts.Rules))
	for _, rule := range opts.Rules {
		rules[rule.Operation] = rule
	}

	return &Router{
		backends:    opts.Backends,
		rules:       rules,
		logger:      opts.Logger,
		backoffBase: opts.BackoffBase,
		sleep:       sleepCtx,
	}
}

// RuleFor returns the routing rule for an operation and whether one exists.
func (r *Router) RuleFor(operation string) (Rule, bool) {
	rule, ok := r.rules[operation]
	return rule, ok
}

// Invoke routes one operation: primary backend with bounded retries, then the
// fallback backend, returning the first successful response and the backend
// name that produced it. On total failure the last error is returned as a
// *BackendError with CodeExhausted wrapping the terminal cause.
func (r *Router) Invoke(ctx context.Context, operation string, req model.Request) (model.Response, string, error) {
	rule, ok := r.rules[operation]
	if !ok {
		return model.Response{}, "", fmt.Errorf("router: no routing rule for operation %q", operation)
	}

	var lastErr *BackendError
	for _, name := range []string{rule.Primary, rule.Fallback} {
		if name == "" {
			continue
		}
		backend, ok := r.backends[name]
		if !ok {
			r.logger.Warn("backend not registered", "operation", operation, "backend", name)
			continue
		}
		resp, err := r.invokeBackend(ctx, rule, name, backend, req)
		if err == nil {
			return resp, name, nil
		}
		lastErr = err
		if !retryableCode(err.Code) && err.Code != CodeTimeout {
			// Fatal on this backend; the fallback still gets its chance.
			r.logger.Warn("backend failed fatally, trying fallback",
				"operation", operation, "backend", name, "code", string(err.Code))
		}
	}

	if lastErr == nil {
		return model.Response{}, "", fmt.Errorf("router: no backends registered for operation %q", operation)
	}
	return model.Response{}, "", &BackendError{
		Operation: operation,
		Backend:   lastErr.Backend,
		Code:      CodeExhausted,
		Err:       lastErr,
	}
}

// invokeBackend runs one backend with the rule's per-attempt timeout and
// exponential backoff on retryable failures.
func (r *Router) invokeBackend(ctx context.Context, rule Rule, name string, backend model.Model, req model.Request) (model.Response, *BackendError) {
	attempts := rule.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr *BackendError
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, r.backoffBase<<uint(attempt-1)); err != nil {
				return model.Response{}, &BackendError{Operation: rule.Operation, Backend: name, Code: CodeTimeout, Err: err}
			}
		}

		start := time.Now()
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if rule.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, rule.Timeout)
		}
		resp, err := backend.Invoke(attemptCtx, req)
		cancel()

		if err == nil {
			r.logger.Debug("backend call succeeded",
				"operation", rule.Operation, "backend", name,
				"attempt", attempt+1, "duration", time.Since(start))
			return resp, nil
		}

		lastErr = &BackendError{Operation: rule.Operation, Backend: name, Code: classify(err), Err: err}
		r.logger.Warn("backend call failed",
			"operation", rule.Operation, "backend", name,
			"attempt", attempt+1, "code", string(lastErr.Code), "error", err.Error())

		if !lastErr.Retryable() {
			return model.Response{}, lastErr
		}
		// Parent cancellation must stop the retry loop even though the
		// per-attempt deadline classifies as retryable.
		if ctx.Err() != nil {
			return model.Response{}, lastErr
		}
	}
	return model.Response{}, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
