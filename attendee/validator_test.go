package attendee

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingmesh/meetingmesh/core"
)

func TestValidateBatch_TrustedVerdicts(t *testing.T) {
	var sent []string
	v := New(func(o *Options) {
		o.Verifier = VerifierFunc(func(_ context.Context, emails []string) (map[string]bool, error) {
			sent = emails
			return map[string]bool{"a@example.com": true, "b@example.com": false}, nil
		})
	})

	results := v.ValidateBatch(context.Background(), []string{"a@example.com", "b@example.com", "garbage"})
	require.Len(t, results, 3)

	assert.True(t, results[0].Valid)
	assert.True(t, results[0].Trusted)
	assert.False(t, results[1].Valid)
	assert.True(t, results[1].Trusted)

	// Malformed addresses are rejected locally and never hit the backend.
	assert.False(t, results[2].Valid)
	assert.False(t, results[2].Trusted)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sent)
}

func TestValidateBatch_MixedCaseKeepsBackendVerdict(t *testing.T) {
	// Verdicts come back keyed by lowercased address; a rejection must stick
	// whatever casing the caller used.
	v := New(func(o *Options) {
		o.Verifier = VerifierFunc(func(_ context.Context, _ []string) (map[string]bool, error) {
			return map[string]bool{"john@example.com": false}, nil
		})
	})

	results := v.ValidateBatch(context.Background(), []string{"John@Example.com"})
	require.Len(t, results, 1)
	assert.Equal(t, "John@Example.com", results[0].Email)
	assert.False(t, results[0].Valid)
	assert.True(t, results[0].Trusted)
}

func TestValidateBatch_BackendFailureFallsBack(t *testing.T) {
	v := New(func(o *Options) {
		o.Verifier = VerifierFunc(func(_ context.Context, _ []string) (map[string]bool, error) {
			return nil, errors.New("backend down")
		})
	})

	results := v.ValidateBatch(context.Background(), []string{"a@example.com", "bad address"})
	require.Len(t, results, 2)

	// Well-formed address passes the local check, but is marked untrusted.
	assert.True(t, results[0].Valid)
	assert.False(t, results[0].Trusted)
	assert.False(t, results[1].Valid)
}

func TestValidateBatch_NoVerifier(t *testing.T) {
	v := New()
	results := v.ValidateBatch(context.Background(), []string{"  a@example.com  "})
	require.Len(t, results, 1)
	assert.Equal(t, "a@example.com", results[0].Email)
	assert.True(t, results[0].Valid)
	assert.False(t, results[0].Trusted)
}

func TestValidateEmail(t *testing.T) {
	v := New(func(o *Options) {
		o.Verifier = VerifierFunc(func(_ context.Context, emails []string) (map[string]bool, error) {
			return map[string]bool{emails[0]: true}, nil
		})
	})
	result := v.ValidateEmail(context.Background(), "john@example.com")
	assert.True(t, result.Valid)
	assert.True(t, result.Trusted)
}

func TestApply(t *testing.T) {
	attendees := []core.Attendee{
		{Email: "a@example.com"},
		{Email: "B@Example.com"},
		{Email: "c@example.com"},
	}
	results := []Verification{
		{Email: "a@example.com", Valid: true, Trusted: true},
		{Email: "b@example.com", Valid: true, Trusted: false},
	}

	updated := Apply(attendees, results)
	assert.True(t, updated[0].IsValidated)
	assert.True(t, updated[1].IsValidated)
	assert.False(t, updated[2].IsValidated)

	// The input list is not mutated.
	assert.False(t, attendees[0].IsValidated)
}
