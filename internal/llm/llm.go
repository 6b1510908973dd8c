// Package llm talks to the external text-completion and embedding services.
// Their model behavior is out of scope; only the request/response contract
// and its failure modes are handled here.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTimeout is returned when a call exceeds its deadline.
	ErrTimeout = errors.New("llm call timed out")
	// ErrEmptyResponse is returned when the service answers without content.
	ErrEmptyResponse = errors.New("llm returned an empty response")
)

// CompletionRequest is one prompt/answer exchange.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
}

// Completer returns a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder returns the embedding vector of a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Provider is a service offering both capabilities.
type Provider interface {
	Completer
	Embedder
	Name() string
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports rate limiting and server-side failures.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
