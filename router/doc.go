// Package router maps logical AI operations (intent extraction, agenda and
// title generation, summarization) onto one of two interchangeable model
// backends with automatic fallback, bounded retries and rule-based
// degradation.
//
// Resilience contract per operation: consult the static routing rule, attempt
// the primary backend, on failure attempt the fallback. If both fail, blocking
// operations propagate a typed BackendError while cosmetic operations
// substitute a deterministic rule-based result so the user-facing flow never
// stalls for generated polish.
//
// Backend responses are free text expected to contain structured data; a
// parse failure is a low-confidence/empty result, never an error, since
// malformed model output is an expected occurrence.
package router
