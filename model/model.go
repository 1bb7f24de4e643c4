package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/meetingmesh/meetingmesh/core"
)

// Request captures the normalized backend input produced by the router.
// Instructions become the system message; Messages carry the conversational
// or structured prompt content in order.
type Request struct {
	Instructions string         `json:"instructions"`
	Messages     []core.Message `json:"messages"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the free-text backend output. It may embed structured data
// (JSON-like); extracting it is the caller's responsibility.
type Response struct {
	Text  string      `json:"text"`
	Usage *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Model is the minimal interface required to drive generation. Invoke blocks
// until the backend produces a complete response or the context is done.
type Model interface {
	Invoke(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockBackend is a lightweight in-memory Model for tests and examples. It
// returns canned completions keyed by the last message's content and can be
// scripted to fail a fixed number of times before succeeding.
type MockBackend struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	failures  []error
	calls     int
}

// NewMockBackend constructs a MockBackend with the given identity.
func NewMockBackend(name, provider string) *MockBackend {
	return &MockBackend{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockBackend) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith queues errors returned by subsequent Invoke calls before any
// canned response is served.
func (m *MockBackend) FailWith(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

// Calls returns how many times Invoke has been called.
func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Invoke implements Model.
func (m *MockBackend) Invoke(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return Response{}, err
	}
	if len(req.Messages) == 0 {
		return Response{}, fmt.Errorf("no messages provided")
	}
	input := req.Messages[len(req.Messages)-1].Content
	if resp, ok := m.responses[input]; ok {
		return Response{Text: resp}, nil
	}
	return Response{Text: fmt.Sprintf("Mock response to: %s", input)}, nil
}

// Info implements Model.
func (m *MockBackend) Info() Info { return m.info }
