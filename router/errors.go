package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a machine-readable failure category for backend calls.
type ErrorCode string

const (
	// CodeTimeout means the call exceeded its routing-rule timeout.
	CodeTimeout ErrorCode = "timeout"
	// CodeRateLimited means the backend throttled the request.
	CodeRateLimited ErrorCode = "rate_limited"
	// CodeTransient covers retryable 5xx-style upstream failures.
	CodeTransient ErrorCode = "transient"
	// CodeAuth means credentials were rejected.
	CodeAuth ErrorCode = "auth"
	// CodeBadRequest means the request itself was malformed.
	CodeBadRequest ErrorCode = "bad_request"
	// CodeContentSafety means the backend refused the content.
	CodeContentSafety ErrorCode = "content_safety"
	// CodeExhausted means primary and fallback both failed terminally.
	CodeExhausted ErrorCode = "exhausted"
)

// BackendError is a typed failure from a routed backend call carrying a
// human-readable message and a machine-readable code.
type BackendError struct {
	Operation string
	Backend   string
	Code      ErrorCode
	Err       error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("router: %s via %s: %s: %v", e.Operation, e.Backend, e.Code, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *BackendError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt against the same backend could
// reasonably succeed.
func (e *BackendError) Retryable() bool {
	switch e.Code {
	case CodeTimeout, CodeRateLimited, CodeTransient:
		return true
	default:
		return false
	}
}

// classify maps a raw backend error onto an ErrorCode. Vendor SDK errors
// reach us as wrapped messages, so classification falls back to pattern
// matching on status fragments when no typed error is available.
func classify(err error) ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CodeTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "overloaded"):
		return CodeRateLimited
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return CodeTimeout
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key") ||
		strings.Contains(msg, "authentication"):
		return CodeAuth
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid request") ||
		strings.Contains(msg, "malformed"):
		return CodeBadRequest
	case strings.Contains(msg, "content policy") || strings.Contains(msg, "safety") ||
		strings.Contains(msg, "refused"):
		return CodeContentSafety
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "504") ||
		strings.Contains(msg, "internal server") || strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "connection"):
		return CodeTransient
	default:
		// Unknown failures get one fallback attempt but no same-backend retry.
		return CodeBadRequest
	}
}

func retryableCode(code ErrorCode) bool {
	switch code {
	case CodeTimeout, CodeRateLimited, CodeTransient:
		return true
	default:
		return false
	}
}
