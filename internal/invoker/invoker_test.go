package invoker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/intent"
	"github.com/brizzai/auto-api/internal/metrics"
	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/brizzai/auto-api/internal/requester"
	"github.com/brizzai/auto-api/internal/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":7,"name":"Acme"}`)
	})
	mux.HandleFunc("POST /accounts", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		body["id"] = 8
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newInvoker(t *testing.T, base string, timeout time.Duration, collector *metrics.Collector) *Invoker {
	t.Helper()
	endpoint := &config.EndpointConfig{AuthType: config.AuthTypeNone, Timeout: timeout}
	req := requester.NewHTTPRequester(requester.HTTPRequesterParams{EndpointConfig: endpoint})
	reg := registry.New(req)
	require.NoError(t, reg.RegisterAll([]parser.Operation{
		{
			ID: "GET_accounts_id", Method: "GET", Path: "/accounts/{id}", URLTemplate: base + "/accounts/{id}",
			Parameters: []parser.Parameter{{Name: "id", In: parser.LocationPath, Required: true, Schema: &schema.Node{Type: "integer"}}},
		},
		{
			ID: "POST_accounts", Method: "POST", Path: "/accounts", URLTemplate: base + "/accounts",
			RequestBody: &schema.Node{Type: "object"},
		},
		{ID: "slow", Method: "GET", Path: "/slow", URLTemplate: base + "/slow"},
	}))
	return New(Params{Registry: reg, Metrics: collector})
}

func TestInvoker_Invoke(t *testing.T) {
	srv := accountsServer(t)
	inv := newInvoker(t, srv.URL, time.Second, nil)

	tests := []struct {
		name       string
		plan       *intent.Plan
		wantStatus int
		wantBody   any
	}{
		{
			name:       "get by id",
			plan:       &intent.Plan{ToolName: "GET_accounts_id", Parameters: map[string]any{"id": int64(7)}},
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"id": float64(7), "name": "Acme"},
		},
		{
			name:       "non-2xx is data",
			plan:       &intent.Plan{ToolName: "GET_accounts_id", Parameters: map[string]any{"id": int64(9)}},
			wantStatus: http.StatusNotFound,
			wantBody:   "account not found\n",
		},
		{
			name: "post body",
			plan: &intent.Plan{
				ToolName:    "POST_accounts",
				Parameters:  map[string]any{},
				RequestBody: map[string]any{"name": "Acme", "city": "Denver"},
			},
			wantStatus: http.StatusCreated,
			wantBody:   map[string]any{"id": float64(8), "name": "Acme", "city": "Denver"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := inv.Invoke(context.Background(), tt.plan)
			require.NoError(t, err)
			require.NotNil(t, result.StatusCode)
			assert.Equal(t, tt.wantStatus, *result.StatusCode)
			assert.Equal(t, tt.wantBody, result.Body)
			assert.Empty(t, result.Error)
			assert.Equal(t, tt.wantStatus < 300, result.OK())
		})
	}
}

func TestInvoker_UnknownTool(t *testing.T) {
	inv := newInvoker(t, "http://unused", time.Second, nil)

	_, err := inv.Invoke(context.Background(), &intent.Plan{ToolName: "gone"})
	var unknown *registry.UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "gone", unknown.Name)
}

func TestInvoker_MissingParameter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()
	inv := newInvoker(t, srv.URL, time.Second, nil)

	result, err := inv.Invoke(context.Background(), &intent.Plan{ToolName: "GET_accounts_id", Parameters: map[string]any{}})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, requester.ErrMissingParameter)
	assert.Zero(t, hits.Load())
}

func TestInvoker_TransportFailureFolded(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	collector := metrics.NewCollector("test")
	inv := newInvoker(t, base, time.Second, collector)

	result, err := inv.Invoke(context.Background(), &intent.Plan{ToolName: "GET_accounts_id", Parameters: map[string]any{"id": 7}})
	require.NoError(t, err)
	assert.Nil(t, result.StatusCode)
	assert.NotEmpty(t, result.Error)
	assert.False(t, result.Timeout)
	assert.False(t, result.OK())

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status_code":null`)

	count, err := testutil.GatherAndCount(collector.Registry(), "test_invocations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInvoker_Timeout(t *testing.T) {
	srv := accountsServer(t)
	inv := newInvoker(t, srv.URL, 50*time.Millisecond, nil)

	result, err := inv.Invoke(context.Background(), &intent.Plan{ToolName: "slow"})
	require.NoError(t, err)
	assert.Nil(t, result.StatusCode)
	assert.True(t, result.Timeout)
}

func TestInvoker_RecordsMetrics(t *testing.T) {
	srv := accountsServer(t)
	collector := metrics.NewCollector("test")
	inv := newInvoker(t, srv.URL, time.Second, collector)

	_, err := inv.Invoke(context.Background(), &intent.Plan{ToolName: "GET_accounts_id", Parameters: map[string]any{"id": 7}})
	require.NoError(t, err)

	expected := `
# HELP test_invocations_total Total number of API operation invocations
# TYPE test_invocations_total counter
test_invocations_total{status="200",tool="GET_accounts_id"} 1
`
	require.NoError(t, testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "test_invocations_total"))
}
