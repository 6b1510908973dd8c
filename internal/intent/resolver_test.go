package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/llm"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Completion(t *testing.T) {
	tests := []struct {
		name         string
		answer       string
		wantTool     string
		wantParams   map[string]any
		wantBody     map[string]any
		wantWarnings []string
	}{
		{
			name:       "integer parameter coerced",
			answer:     "Here you go: {\"tool_name\":\"GET_accounts_id\",\"parameters\":{\"id\":\"7\"}}",
			wantTool:   "GET_accounts_id",
			wantParams: map[string]any{"id": int64(7)},
		},
		{
			name:         "uncoercible parameter flagged",
			answer:       `{"tool_name":"GET_accounts_id","parameters":{"id":"seven"}}`,
			wantTool:     "GET_accounts_id",
			wantParams:   map[string]any{"id": "seven"},
			wantWarnings: []string{"id"},
		},
		{
			name:       "body coerced by property type",
			answer:     `{"tool_name":"POST_accounts","parameters":{},"request_body":{"name":"Acme","city":"Denver","seats":"3"}}`,
			wantTool:   "POST_accounts",
			wantParams: map[string]any{},
			wantBody:   map[string]any{"name": "Acme", "city": "Denver", "seats": int64(3)},
		},
		{
			name:         "body violating its schema is flagged",
			answer:       `{"tool_name":"POST_accounts","parameters":{},"request_body":{"name":5}}`,
			wantTool:     "POST_accounts",
			wantParams:   map[string]any{},
			wantBody:     map[string]any{"name": float64(5)},
			wantWarnings: []string{"request_body.name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := accountRegistry(t)
			completer := &fakeCompleter{answer: tt.answer}
			r := NewResolver(reg, NewCompletionExtractor(completer, 0))

			plan, err := r.Resolve(context.Background(), "anything")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTool, plan.ToolName)
			assert.Equal(t, tt.wantParams, plan.Parameters)
			assert.Equal(t, tt.wantBody, plan.RequestBody)

			var names []string
			for _, w := range plan.Warnings {
				names = append(names, w.Parameter)
			}
			assert.Equal(t, tt.wantWarnings, names)
		})
	}
}

func TestResolver_Failures(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		err      error
		wantErr  error
		wantKind FailureKind
	}{
		{
			name:     "unknown tool",
			answer:   `{"tool_name":"DELETE_everything","parameters":{}}`,
			wantErr:  registry.ErrUnknownTool,
			wantKind: FailureUnknownTool,
		},
		{
			name:     "explicit no match",
			answer:   `{"tool_name":null}`,
			wantErr:  ErrNoToolMatched,
			wantKind: FailureNoMatch,
		},
		{
			name:     "prose only",
			answer:   "I'm not sure.",
			wantErr:  ErrNoStructuredResponse,
			wantKind: FailureUnparseable,
		},
		{
			name:     "completion timeout",
			err:      llm.ErrTimeout,
			wantErr:  llm.ErrTimeout,
			wantKind: FailureTimeout,
		},
		{
			name:     "completion error",
			err:      errors.New("connection refused"),
			wantKind: FailureCompletionFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := accountRegistry(t)
			r := NewResolver(reg, NewCompletionExtractor(&fakeCompleter{answer: tt.answer, err: tt.err}, 0))

			plan, err := r.Resolve(context.Background(), "anything")
			require.Error(t, err)
			assert.Nil(t, plan)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantKind, Classify(err).Kind)
		})
	}
}

func TestResolver_EmptyRegistry(t *testing.T) {
	completer := &fakeCompleter{answer: `{"tool_name":"x"}`}
	r := NewResolver(registry.New(noopFactory{}), NewCompletionExtractor(completer, 0))

	_, err := r.Resolve(context.Background(), "get account 7")
	assert.ErrorIs(t, err, ErrNoTools)
	assert.Empty(t, completer.requests, "no completion call without tools")
}

func TestResolver_PromptCarriesManifest(t *testing.T) {
	reg := accountRegistry(t)
	completer := &fakeCompleter{answer: `{"tool_name":"list_accounts"}`}
	r := NewResolver(reg, NewCompletionExtractor(completer, 0.2))

	_, err := r.Resolve(context.Background(), "list my accounts")
	require.NoError(t, err)
	require.Len(t, completer.requests, 1)

	req := completer.requests[0]
	assert.Equal(t, 0.2, req.Temperature)
	assert.Contains(t, req.System, `"tool_name"`)
	for _, name := range reg.Names() {
		assert.Contains(t, req.User, name)
	}
	assert.True(t, strings.HasSuffix(req.User, "Request: list my accounts"))
}

func TestResolver_Heuristic(t *testing.T) {
	reg := accountRegistry(t)
	r := NewResolver(reg, NewHeuristicExtractor(reg))

	plan, err := r.Resolve(context.Background(), "get account 7")
	require.NoError(t, err)
	assert.Equal(t, "GET_accounts_id", plan.ToolName)
	assert.Equal(t, map[string]any{"id": int64(7)}, plan.Parameters)
	assert.Empty(t, plan.Warnings)

	plan, err = r.Resolve(context.Background(), "create account named Acme in Denver CO")
	require.NoError(t, err)
	assert.Equal(t, "POST_accounts", plan.ToolName)
	assert.Equal(t, "Acme", plan.RequestBody["name"])
	assert.Equal(t, "Denver", plan.RequestBody["city"])
	assert.Equal(t, "CO", plan.RequestBody["state"])
	assert.Empty(t, plan.Warnings)
}

func TestResolver_Shortlist(t *testing.T) {
	reg := accountRegistry(t)
	embedder := keywordEmbedder{vocabulary: []string{"create", "list", "get"}}
	index := NewIndex(embedder)
	require.NoError(t, index.Rebuild(context.Background(), reg.Manifest()))

	completer := &fakeCompleter{answer: `{"tool_name":"POST_accounts","request_body":{"name":"x"}}`}
	r := NewResolver(reg, NewCompletionExtractor(completer, 0), WithIndex(index, 1))

	_, err := r.Resolve(context.Background(), "create an account")
	require.NoError(t, err)
	require.Len(t, completer.requests, 1)
	assert.Contains(t, completer.requests[0].User, "POST_accounts")
	assert.NotContains(t, completer.requests[0].User, "list_accounts")
}

func TestResolver_ShortlistFailureFallsBack(t *testing.T) {
	reg := accountRegistry(t)
	index := NewIndex(keywordEmbedder{vocabulary: []string{"create"}})
	require.NoError(t, index.Rebuild(context.Background(), reg.Manifest()))
	index.embedder = keywordEmbedder{err: errors.New("embedding service down")}

	completer := &fakeCompleter{answer: `{"tool_name":"list_accounts"}`}
	r := NewResolver(reg, NewCompletionExtractor(completer, 0), WithIndex(index, 1))

	plan, err := r.Resolve(context.Background(), "list accounts")
	require.NoError(t, err)
	assert.Equal(t, "list_accounts", plan.ToolName)
	assert.Contains(t, completer.requests[0].User, "POST_accounts")
}

func TestNewExtractor(t *testing.T) {
	reg := accountRegistry(t)

	e, err := NewExtractor(config.ResolverConfig{Strategy: config.ResolverStrategyHeuristic}, nil, reg)
	require.NoError(t, err)
	assert.IsType(t, &HeuristicExtractor{}, e)

	e, err = NewExtractor(config.ResolverConfig{Strategy: config.ResolverStrategyCompletion}, &fakeCompleter{}, reg)
	require.NoError(t, err)
	assert.IsType(t, &CompletionExtractor{}, e)

	_, err = NewExtractor(config.ResolverConfig{Strategy: config.ResolverStrategyCompletion}, nil, reg)
	assert.Error(t, err)

	_, err = NewExtractor(config.ResolverConfig{Strategy: "magic"}, nil, reg)
	assert.Error(t, err)
}
