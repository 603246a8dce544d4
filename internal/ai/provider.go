package ai

import "context"

// ResponseFormat asks the provider for strict JSON matching Schema.
type ResponseFormat struct {
	Name   string
	Schema map[string]any
}

// CompletionRequest is one system+user exchange with a model.
type CompletionRequest struct {
	Model  string
	System string
	User   string
	Format *ResponseFormat // nil for free text
}

// LLMProvider sends a request to an LLM and returns the raw text response.
type LLMProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
