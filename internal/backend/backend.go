// Package backend defines the external completion contract consumed by the
// pipeline agents and provides the Anthropic-backed implementation plus the
// Caller wrapper that gates every request through rate limiting, retry, and
// circuit breaking.
package backend

import (
	"context"
	"errors"
)

// Sentinel errors used to classify backend failures. Transient failures are
// retried up to the configured ceiling; blocked failures are converted to a
// user-visible placeholder response instead of propagating.
var (
	// ErrRateLimited indicates the provider rejected the call for quota
	// reasons (HTTP 429).
	ErrRateLimited = errors.New("backend rate limited")

	// ErrOverloaded indicates a transient provider-side failure (HTTP 5xx).
	ErrOverloaded = errors.New("backend overloaded")

	// ErrSafetyBlocked indicates the provider refused to answer the prompt.
	// Not retried: the same prompt would be refused again.
	ErrSafetyBlocked = errors.New("backend refused prompt")
)

// ToolSpec describes a tool advertised to the backend so the model may
// request its invocation instead of answering in text.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolInvocation is the model's request to run an advertised tool.
type ToolInvocation struct {
	ID    string
	Name  string
	Input map[string]any
}

// Request is one completion request. Prompt is required; everything else
// falls back to client defaults.
type Request struct {
	Prompt            string
	SystemInstruction string
	Tools             []ToolSpec
	MaxTokens         int
	Temperature       float64
}

// Response carries either assistant text or a tool invocation request,
// plus the provider-reported token usage.
type Response struct {
	Text           string
	ToolInvocation *ToolInvocation
	InputTokens    int
	OutputTokens   int
}

// Client is the completion interface the pipeline depends on. Implementations
// must honor ctx cancellation and return classified errors where possible so
// the retry wrapper can distinguish transient from terminal failures.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// IsTransient reports whether err is worth retrying with the same prompt.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrOverloaded)
}

// IsBlocked reports whether err is a refusal that retrying cannot fix.
func IsBlocked(err error) bool {
	return errors.Is(err, ErrSafetyBlocked)
}

// EstimateTokens approximates the token cost of a prompt using a word-count
// heuristic (roughly 4 tokens per 3 words). The rate limiter only needs an
// estimate in the right order of magnitude, not an exact count.
func EstimateTokens(text string) int {
	words := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}
	n := words * 4 / 3
	if n < 1 {
		n = 1
	}
	return n
}
