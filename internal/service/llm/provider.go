// Package llm abstracts chat-completion providers behind a single
// Completer interface so the generation pipeline never depends on a
// concrete SDK.
package llm

import "context"

// Request is one completion call. Model is a hint; providers that do
// not recognize it fall back to their configured default.
type Request struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Completer produces a completion for a request. Implementations must
// honor context cancellation and return within the caller's deadline.
type Completer interface {
	Complete(ctx context.Context, req *Request) (string, error)
	Name() string
	SupportsModel(model string) bool
}
