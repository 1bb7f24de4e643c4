package core

// ValidationResult carries the outcome of business-rule validation. Errors
// block progression; warnings are advisory and never block.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidResult returns a passing result with empty (non-nil) slices so the
// envelope always itemizes rather than omitting.
func ValidResult() ValidationResult {
	return ValidationResult{IsValid: true, Errors: []string{}, Warnings: []string{}}
}

// Invalid returns a failing result carrying the given errors.
func Invalid(errs ...string) ValidationResult {
	return ValidationResult{IsValid: false, Errors: errs, Warnings: []string{}}
}

// Merge combines two results: errors and warnings concatenate, validity ANDs.
func (v ValidationResult) Merge(other ValidationResult) ValidationResult {
	return ValidationResult{
		IsValid:  v.IsValid && other.IsValid,
		Errors:   append(append([]string{}, v.Errors...), other.Errors...),
		Warnings: append(append([]string{}, v.Warnings...), other.Warnings...),
	}
}

// WorkflowSnapshot is the externally visible view of the workflow machine.
type WorkflowSnapshot struct {
	CurrentStep   Step          `json:"current_step"`
	RequiresInput bool          `json:"requires_input"`
	IsComplete    bool          `json:"is_complete"`
	Draft         *MeetingDraft `json:"draft,omitempty"`
}

// Envelope is the response shape returned to the chat/UI layer for every
// interaction. Message is always present; the structured prompt is optional.
type Envelope struct {
	Message    string           `json:"message"`
	Prompt     Prompt           `json:"structured_prompt,omitempty"`
	Workflow   WorkflowSnapshot `json:"workflow"`
	Validation ValidationResult `json:"validation"`
}

// AdvanceResult is the outcome of an explicit step advance request.
type AdvanceResult struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	Workflow   WorkflowSnapshot `json:"workflow"`
	Validation ValidationResult `json:"validation"`
}
