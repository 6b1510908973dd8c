package requester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a target API call when the endpoint sets none.
const DefaultTimeout = 30 * time.Second

// HTTPRequester builds and executes requests against the target API
type HTTPRequester struct {
	client   *http.Client
	endpoint *config.EndpointConfig
	authMgr  AuthManager
	log      *zap.Logger
}

type HTTPRequesterParams struct {
	fx.In

	EndpointConfig *config.EndpointConfig
	AuthManager    AuthManager
}

// NewHTTPRequester creates a new HTTPRequester. The client timeout comes
// from the endpoint configuration.
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	endpoint := params.EndpointConfig
	if endpoint == nil {
		endpoint = &config.EndpointConfig{AuthType: config.AuthTypeNone}
	}
	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	authMgr := params.AuthManager
	if authMgr == nil {
		authMgr = NewHTTPAuthManager(endpoint)
	}
	return &HTTPRequester{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		authMgr:  authMgr,
		log:      logger.Named("requester"),
	}
}

// BuildRouteExecutor returns an executor bound to a snapshot of route.
// Later changes to route do not affect the executor.
func (r *HTTPRequester) BuildRouteExecutor(route *RouteConfig) (RouteExecutor, error) {
	if route == nil {
		return nil, fmt.Errorf("route config is nil")
	}
	builder := NewHTTPRequestBuilder(r.endpoint, r.authMgr, route)
	name := route.Name

	return func(ctx context.Context, values map[string]any, body any) (*Response, error) {
		if ctx == nil {
			ctx = context.Background()
		}
		req, err := builder.BuildRequest(ctx, values, body)
		if err != nil {
			return nil, err
		}
		r.log.Debug("Executing route",
			zap.String("tool", name),
			zap.String("method", req.Method),
			zap.String("url", req.URL),
		)

		resp, err := r.execute(req)
		if err != nil {
			invErr := newInvocationError(name, err)
			r.log.Warn("Route execution failed",
				zap.String("tool", name),
				zap.Bool("timeout", invErr.Timeout),
				zap.Error(err),
			)
			return nil, invErr
		}
		return resp, nil
	}, nil
}

// execute performs the HTTP round trip and reads the whole body
func (r *HTTPRequester) execute(req *Request) (resp *Response, err error) {
	httpResp, err := r.client.Do(req.HttpRequest)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return newResponse(httpResp, raw), nil
}
