package intent

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/brizzai/auto-api/internal/llm"
	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/brizzai/auto-api/internal/requester"
	"github.com/brizzai/auto-api/internal/schema"
	"github.com/stretchr/testify/require"
)

type noopFactory struct{}

func (noopFactory) BuildRouteExecutor(route *requester.RouteConfig) (requester.RouteExecutor, error) {
	return func(ctx context.Context, values map[string]any, body any) (*requester.Response, error) {
		return &requester.Response{StatusCode: http.StatusOK}, nil
	}, nil
}

func accountOperations() []parser.Operation {
	return []parser.Operation{
		{
			ID:          "GET_accounts_id",
			Method:      "GET",
			Path:        "/accounts/{id}",
			URLTemplate: "http://api/accounts/{id}",
			Summary:     "Get an account",
			Parameters: []parser.Parameter{
				{Name: "id", In: parser.LocationPath, Required: true, Schema: &schema.Node{Type: "integer"}},
			},
		},
		{
			ID:          "POST_accounts",
			Method:      "POST",
			Path:        "/accounts",
			URLTemplate: "http://api/accounts",
			Summary:     "Create an account",
			RequestBody: &schema.Node{
				Type:     "object",
				Required: []string{"name"},
				Properties: map[string]*schema.Node{
					"name":  {Type: "string"},
					"city":  {Type: "string"},
					"state": {Type: "string"},
					"seats": {Type: "integer"},
				},
			},
		},
		{
			ID:          "list_accounts",
			Method:      "GET",
			Path:        "/accounts",
			URLTemplate: "http://api/accounts",
			Summary:     "List accounts",
			Parameters: []parser.Parameter{
				{Name: "limit", In: parser.LocationQuery, Schema: &schema.Node{Type: "integer"}},
				{Name: "active", In: parser.LocationQuery, Schema: &schema.Node{Type: "boolean"}},
			},
		},
	}
}

func accountRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(noopFactory{})
	require.NoError(t, reg.RegisterAll(accountOperations()))
	return reg
}

// fakeCompleter returns a canned answer and records the prompts it saw.
type fakeCompleter struct {
	mu       sync.Mutex
	answer   string
	err      error
	requests []llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.answer, f.err
}

// keywordEmbedder embeds text as counts of a fixed vocabulary.
type keywordEmbedder struct {
	vocabulary []string
	err        error
}

func (e keywordEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	words := tokens(text)
	vec := make([]float64, len(e.vocabulary))
	for i, v := range e.vocabulary {
		for _, w := range words {
			if w == v {
				vec[i]++
			}
		}
	}
	return vec, nil
}
