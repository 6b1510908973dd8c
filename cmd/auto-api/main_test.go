package main

import (
	"bytes"
	"testing"

	"github.com/brizzai/auto-api/internal/assistant"
	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/server"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

const accountsDoc = "../../examples/accounts/openapi.yaml"

func offlineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTO_API_LLM_PROVIDER", "none")
	t.Setenv("AUTO_API_RESOLVER_STRATEGY", "heuristic")
	t.Setenv("AUTO_API_HISTORY_ENABLED", "false")
	t.Setenv("AUTO_API_LOGGING_LEVEL", "error")
	pterm.DisableOutput()
	t.Cleanup(pterm.EnableOutput)
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestAppGraph(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = config.LLMProviderNone
	cfg.Resolver.Strategy = config.ResolverStrategyHeuristic
	cfg.History.Enabled = false

	var a *assistant.Assistant
	require.NoError(t, fx.ValidateApp(appOptions(cfg, fx.Populate(&a))...))

	var srv *server.Server
	require.NoError(t, fx.ValidateApp(appOptions(cfg, server.Module, fx.Populate(&srv))...))
}

func TestCommands(t *testing.T) {
	offlineEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "tools", args: []string{"tools", "--openapi-file", accountsDoc}},
		{name: "tool detail", args: []string{"tools", "get_policy", "--openapi-file", accountsDoc}},
		{name: "unknown tool", args: []string{"tools", "nope", "--openapi-file", accountsDoc}, wantErr: "nope"},
		{name: "tools without document", args: []string{"tools"}, wantErr: "openapi file is required"},
		{name: "ingest", args: []string{"ingest", accountsDoc}},
		{name: "ingest missing file", args: []string{"ingest", "missing.yaml"}, wantErr: "failed to read spec file"},
		{name: "ask no match", args: []string{"ask", "order", "a", "pizza", "--openapi-file", accountsDoc}, wantErr: "no_match"},
		{name: "history disabled", args: []string{"history"}},
		{name: "bad strategy", args: []string{"tools", "--strategy", "guess"}, wantErr: "unsupported resolver strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfigFromRequiresLoad(t *testing.T) {
	_, err := configFrom(t.Context())
	assert.Error(t, err)

	cfg := config.Default()
	got, err := configFrom(withConfig(t.Context(), cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
