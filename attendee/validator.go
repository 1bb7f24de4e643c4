package attendee

import (
	"context"
	"strings"

	"github.com/meetingmesh/meetingmesh/core"
	"github.com/meetingmesh/meetingmesh/logging"
	"github.com/meetingmesh/meetingmesh/rules"
)

// Verifier is the backend seam for deliverability checks. *router.Router
// satisfies it through VerifyAttendees. Returned verdicts are keyed by the
// lowercased address regardless of the casing the caller submitted.
type Verifier interface {
	VerifyAttendees(ctx context.Context, emails []string) (map[string]bool, error)
}

// VerifierFunc adapts a plain function to the Verifier interface.
type VerifierFunc func(ctx context.Context, emails []string) (map[string]bool, error)

// VerifyAttendees implements Verifier.
func (f VerifierFunc) VerifyAttendees(ctx context.Context, emails []string) (map[string]bool, error) {
	return f(ctx, emails)
}

// Verification is the per-address outcome. Trusted reports whether the
// backend produced the verdict; false means the local format fallback did.
type Verification struct {
	Email   string `json:"email"`
	Valid   bool   `json:"valid"`
	Trusted bool   `json:"trusted"`
}

// Options configures a Validator.
type Options struct {
	// Verifier backs the trusted path. Optional; without one every result is
	// format-checked and untrusted.
	Verifier Verifier
	// Logger defaults to NoOp if nil.
	Logger logging.Logger
}

// Validator checks attendee emails with backend assistance and a local
// fallback.
type Validator struct {
	verifier Verifier
	logger   logging.Logger
}

// New creates a Validator.
func New(optFns ...func(o *Options)) *Validator {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Validator{verifier: opts.Verifier, logger: opts.Logger}
}

// ValidateEmail checks a single address.
func (v *Validator) ValidateEmail(ctx context.Context, email string) Verification {
	return v.ValidateBatch(ctx, []string{email})[0]
}

// ValidateBatch checks a batch of addresses in one backend call. Addresses
// that fail the local format check are rejected up front and never sent to
// the backend. On backend failure the remaining addresses fall back to the
// format verdict with Trusted=false.
func (v *Validator) ValidateBatch(ctx context.Context, emails []string) []Verification {
	out := make([]Verification, len(emails))
	var toVerify []string
	for i, email := range emails {
		trimmed := strings.TrimSpace(email)
		out[i] = Verification{Email: trimmed, Valid: rules.EmailPattern.MatchString(trimmed)}
		if out[i].Valid {
			toVerify = append(toVerify, trimmed)
		}
	}
	if v.verifier == nil || len(toVerify) == 0 {
		return out
	}

	verdicts, err := v.verifier.VerifyAttendees(ctx, toVerify)
	if err != nil {
		v.logger.Warn("attendee verification backend unavailable, using format check",
			"error", err.Error(), "count", len(toVerify))
		return out
	}
	for i := range out {
		if !out[i].Valid {
			continue
		}
		if valid, ok := verdicts[strings.ToLower(out[i].Email)]; ok {
			out[i].Valid = valid
			out[i].Trusted = true
		}
	}
	return out
}

// Apply overlays batch verification results onto a draft attendee list,
// setting IsValidated for addresses the backend (or fallback) accepted.
// Attendees without a matching result are left untouched.
func Apply(attendees []core.Attendee, results []Verification) []core.Attendee {
	byEmail := make(map[string]Verification, len(results))
	for _, r := range results {
		byEmail[strings.ToLower(r.Email)] = r
	}
	out := make([]core.Attendee, len(attendees))
	copy(out, attendees)
	for i := range out {
		if r, ok := byEmail[strings.ToLower(strings.TrimSpace(out[i].Email))]; ok {
			out[i].IsValidated = r.Valid
		}
	}
	return out
}
