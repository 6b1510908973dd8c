package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/brizzai/auto-api/internal/assistant"
	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/intent"
	"github.com/brizzai/auto-api/internal/invoker"
	"github.com/brizzai/auto-api/internal/metrics"
	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/brizzai/auto-api/internal/requester"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// accountsAPI serves the operations described by examples/accounts.
func accountsAPI() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Acme"},{"id":2,"name":"Globex"}]`))
	})
	mux.HandleFunc("GET /accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "404" {
			http.Error(w, "no such account", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":` + r.PathValue("id") + `,"name":"Acme"}`))
	})
	mux.HandleFunc("POST /accounts", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = 3
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)
	})
	return mux
}

func exampleConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := filepath.Join("..", "..", "examples", "accounts")
	cfg := config.Default()
	cfg.OpenAPIFile = filepath.Join(dir, "openapi.yaml")
	cfg.AdjustmentsFile = filepath.Join(dir, "adjustments.yaml")
	cfg.EndpointConfig.BaseURL = baseURL
	cfg.Resolver.Strategy = config.ResolverStrategyHeuristic
	cfg.Resolver.Explain = false
	cfg.Server.Host = "localhost"
	cfg.Server.Mode = config.ServerModeSSE
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, collector *metrics.Collector) *Server {
	t.Helper()
	req := requester.NewHTTPRequester(requester.HTTPRequesterParams{EndpointConfig: &cfg.EndpointConfig})
	reg := registry.New(req)
	inv := invoker.New(invoker.Params{Registry: reg, Metrics: collector})
	a := assistant.New(assistant.Params{
		Config:   cfg,
		Parser:   parser.NewOpenAPIParser(nil, cfg),
		Registry: reg,
		Resolver: intent.NewResolver(reg, intent.NewHeuristicExtractor(reg)),
		Invoker:  inv,
		Metrics:  collector,
	})
	srv := NewServer(Params{Config: cfg, Assistant: a, Invoker: inv, Metrics: collector})
	require.NotNil(t, srv)
	return srv
}

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err, "Failed to create listener")
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close(), "Failed to close listener")
	return port
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content %T", result.Content[0])
		return ""
	}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	return request
}

func TestServer_LoadPublishesAdjustedTools(t *testing.T) {
	srv := newTestServer(t, exampleConfig(t, "http://unused"), nil)
	assert.Len(t, srv.Tools(), 2, "only the built-in tools before ingestion")

	require.NoError(t, srv.Load(context.Background()))

	tools := map[string]mcp.Tool{}
	for _, st := range srv.Tools() {
		tools[st.Tool.Name] = st.Tool
	}
	for _, name := range []string{
		"ask", "list_operations",
		"list_accounts", "POST_accounts", "GET_accounts_id", "DELETE_accounts_id", "get_policy",
	} {
		assert.Contains(t, tools, name)
	}
	assert.Len(t, tools, 7)

	t.Run("query parameters keep their types", func(t *testing.T) {
		props := tools["list_accounts"].InputSchema.Properties
		limit, ok := props["limit"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "number", limit["type"])
		active, ok := props["active"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "boolean", active["type"])
		assert.Empty(t, tools["list_accounts"].InputSchema.Required)
	})

	t.Run("path parameters are required", func(t *testing.T) {
		assert.Equal(t, []string{"account_id", "policy_id"}, tools["get_policy"].InputSchema.Required)
	})

	t.Run("request body is one object argument", func(t *testing.T) {
		in := tools["POST_accounts"].InputSchema
		body, ok := in.Properties["body"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "object", body["type"])
		props, ok := body["properties"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, props, "name")
		assert.Contains(t, props, "city")
		assert.Equal(t, []string{"name"}, body["required"])
		assert.Contains(t, in.Required, "body")
	})

	t.Run("description override applies", func(t *testing.T) {
		assert.Contains(t, tools["DELETE_accounts_id"].Description, "Irreversible")
		assert.Contains(t, tools["DELETE_accounts_id"].Description, "DELETE /accounts/{id}")
	})
}

func TestServer_ToolHandlers(t *testing.T) {
	target := httptest.NewServer(accountsAPI())
	defer target.Close()

	srv := newTestServer(t, exampleConfig(t, target.URL), nil)
	require.NoError(t, srv.Load(context.Background()))

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){}
	for _, st := range srv.Tools() {
		handlers[st.Tool.Name] = st.Handler
	}
	ctx := context.Background()

	tests := []struct {
		name      string
		tool      string
		args      map[string]any
		wantError bool
		contains  string
	}{
		{name: "path parameter", tool: "GET_accounts_id", args: map[string]any{"id": float64(7)}, contains: `"name": "Acme"`},
		{name: "string coerced", tool: "GET_accounts_id", args: map[string]any{"id": "8"}, contains: `"id": 8`},
		{name: "http error", tool: "GET_accounts_id", args: map[string]any{"id": 404}, wantError: true, contains: "HTTP Error 404"},
		{name: "missing path parameter", tool: "GET_accounts_id", args: map[string]any{}, wantError: true, contains: "id"},
		{name: "body object", tool: "POST_accounts", args: map[string]any{"body": map[string]any{"name": "Initech"}}, contains: "Initech"},
		{name: "body as json text", tool: "POST_accounts", args: map[string]any{"body": `{"name":"Hooli"}`}, contains: "Hooli"},
		{name: "body not an object", tool: "POST_accounts", args: map[string]any{"body": "[1,2]"}, wantError: true, contains: "Invalid body argument"},
		{name: "list operations", tool: "list_operations", contains: `"name": "get_policy"`},
		{name: "ask without query", tool: "ask", args: map[string]any{}, wantError: true, contains: "query"},
		{name: "ask", tool: "ask", args: map[string]any{"query": "get account 7"}, contains: "GET_accounts_id"},
		{name: "ask unmatched", tool: "ask", args: map[string]any{"query": "what is the weather"}, wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, ok := handlers[tt.tool]
			require.True(t, ok, "tool %s not published", tt.tool)
			result, err := handler(ctx, callRequest(tt.tool, tt.args))
			require.NoError(t, err)
			assert.Equal(t, tt.wantError, result.IsError)
			if tt.contains != "" {
				assert.Contains(t, textOf(t, result), tt.contains)
			}
		})
	}
}

func TestServer_IngestRepublishesTools(t *testing.T) {
	srv := newTestServer(t, exampleConfig(t, "http://unused"), nil)
	require.NoError(t, srv.Load(context.Background()))
	require.Len(t, srv.Tools(), 7)

	doc := `
openapi: 3.0.3
info: {title: Ping, version: "1"}
paths:
  /ping:
    get:
      operationId: ping
      responses:
        "200": {description: pong}
`
	_, err := srv.assistant.Ingest(context.Background(), "ping.yaml", []byte(doc))
	require.NoError(t, err)

	var names []string
	for _, st := range srv.Tools() {
		names = append(names, st.Tool.Name)
	}
	assert.ElementsMatch(t, []string{"ask", "list_operations", "ping"}, names)
}

// TestServer_SSE drives the server through the MCP SSE transport.
func TestServer_SSE(t *testing.T) {
	target := httptest.NewServer(accountsAPI())
	defer target.Close()

	port := freePort(t)
	cfg := exampleConfig(t, target.URL)
	cfg.Server.Port = port
	srv := newTestServer(t, cfg, metrics.NewCollector("test"))
	require.NoError(t, srv.Load(context.Background()))

	serverCtx, stopServer := context.WithCancel(context.Background())
	defer stopServer()
	go func() {
		if err := srv.ServeSSE(serverCtx); err != nil {
			t.Logf("Server error: %v", err)
		}
	}()

	base := fmt.Sprintf("http://localhost:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	clientCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sseClient, err := client.NewSSEMCPClient(base + "/sse")
	require.NoError(t, err, "Failed to create SSE client")
	defer sseClient.Close()
	require.NoError(t, sseClient.Start(clientCtx), "Failed to start client")

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.Capabilities = mcp.ClientCapabilities{}
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}
	initResult, err := sseClient.Initialize(clientCtx, initReq)
	require.NoError(t, err, "Failed to initialize client")
	require.NotNil(t, initResult)

	t.Run("list tools", func(t *testing.T) {
		tools, err := sseClient.ListTools(clientCtx, mcp.ListToolsRequest{})
		require.NoError(t, err)
		var names []string
		for _, tool := range tools.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{
			"ask", "list_operations",
			"list_accounts", "POST_accounts", "GET_accounts_id", "DELETE_accounts_id", "get_policy",
		}, names)
	})

	t.Run("call operation", func(t *testing.T) {
		result, err := sseClient.CallTool(clientCtx, callRequest("GET_accounts_id", map[string]any{"id": 7}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Contains(t, textOf(t, result), "Acme")
	})

	t.Run("call ask", func(t *testing.T) {
		result, err := sseClient.CallTool(clientCtx, callRequest("ask", map[string]any{"query": "list accounts limit=1"}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Contains(t, textOf(t, result), "Globex")
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		resp, err := http.Get(base + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

// TestServer_ContextCancellation tests that the server shuts down properly when context is cancelled
func TestServer_ContextCancellation(t *testing.T) {
	cfg := exampleConfig(t, "http://example.com")
	cfg.Server.Port = freePort(t)
	srv := newTestServer(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err, "Server should shut down gracefully")
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down within timeout")
	}
}

func TestServer_StartRejectsUnknownMode(t *testing.T) {
	cfg := exampleConfig(t, "http://example.com")
	cfg.Server.Mode = "carrier-pigeon"
	srv := newTestServer(t, cfg, nil)
	assert.ErrorContains(t, srv.Start(context.Background()), "unsupported server mode")
}
