package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/meetingmesh/meetingmesh/logging"
)

// RetryOptions configures the read-retry wrapper.
type RetryOptions struct {
	// MaxAttempts is the total number of tries for a read. Defaults to 3.
	MaxAttempts int
	// BackoffBase is the delay before the first retry, doubled per attempt.
	// Defaults to 200ms.
	BackoffBase time.Duration
	// Logger defaults to NoOp if nil.
	Logger logging.Logger
}

// RetryingProvider wraps a Provider with bounded retries on reads.
// CreateEvent passes through untouched: a write that timed out may still
// have landed, and retrying it risks duplicate events.
type RetryingProvider struct {
	inner       Provider
	maxAttempts int
	backoffBase time.Duration
	logger      logging.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps the provider.
func WithRetry(inner Provider, optFns ...func(o *RetryOptions)) *RetryingProvider {
	opts := RetryOptions{
		MaxAttempts: 3,
		BackoffBase: 200 * time.Millisecond,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RetryingProvider{
		inner:       inner,
		maxAttempts: opts.MaxAttempts,
		backoffBase: opts.BackoffBase,
		logger:      opts.Logger,
		sleep:       sleepCtx,
	}
}

// CreateEvent delegates without retrying.
func (r *RetryingProvider) CreateEvent(ctx context.Context, payload EventPayload) (Event, error) {
	return r.inner.CreateEvent(ctx, payload)
}

// ListEvents retries retryable provider errors with exponential backoff.
func (r *RetryingProvider) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := r.backoffBase << uint(attempt-2)
			if err := r.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		events, err := r.inner.ListEvents(ctx, from, to)
		if err == nil {
			return events, nil
		}
		lastErr = err

		var provErr *ProviderError
		if !errors.As(err, &provErr) || !provErr.Retryable() {
			return nil, err
		}
		r.logger.Warn("calendar read failed, retrying",
			"attempt", attempt, "max_attempts", r.maxAttempts, "error", err.Error())
	}
	return nil, lastErr
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
