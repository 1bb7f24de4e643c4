// Package rules holds the pure business validators applied to meeting drafts.
// Every function is stateless and side-effect free: it takes a draft (or a
// slice of it) and returns a core.ValidationResult. Errors block workflow
// progression, warnings never do.
package rules
