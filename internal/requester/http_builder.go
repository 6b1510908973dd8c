package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/parser"
)

// HTTPRequestBuilder turns parameter values into an *http.Request for one route
type HTTPRequestBuilder struct {
	endpoint *config.EndpointConfig
	authMgr  AuthManager
	route    *RouteConfig
}

// NewHTTPRequestBuilder creates a builder bound to a copy of route
func NewHTTPRequestBuilder(endpoint *config.EndpointConfig, authMgr AuthManager, route *RouteConfig) *HTTPRequestBuilder {
	if endpoint == nil {
		endpoint = &config.EndpointConfig{}
	}
	var rc *RouteConfig
	if route != nil {
		rc = route.Clone()
	}
	return &HTTPRequestBuilder{endpoint: endpoint, authMgr: authMgr, route: rc}
}

// BuildRequest partitions values into path, header, cookie and query
// parameters, substitutes the URL template and encodes body as JSON.
// A placeholder left without a value fails with *MissingParameterError.
func (b *HTTPRequestBuilder) BuildRequest(ctx context.Context, values map[string]any, body any) (*Request, error) {
	if b.route == nil {
		return nil, fmt.Errorf("route config is nil")
	}

	target, err := b.buildURL(values)
	if err != nil {
		return nil, err
	}

	var payload []byte
	var reader io.Reader
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, b.route.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	for k, v := range b.endpoint.Headers {
		headers[k] = v
	}
	for _, name := range b.route.HeaderParams {
		if v, ok := values[name]; ok && v != nil {
			headers[name] = formatValue(v)
		}
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	for _, name := range b.route.CookieParams {
		if v, ok := values[name]; ok && v != nil {
			httpReq.AddCookie(&http.Cookie{Name: name, Value: formatValue(v)})
		}
	}

	if b.authMgr != nil {
		if err := b.authMgr.ApplyAuth(httpReq); err != nil {
			return nil, fmt.Errorf("failed to apply authentication: %w", err)
		}
	}

	return &Request{
		URL:         target,
		Method:      b.route.Method,
		Headers:     headers,
		Body:        payload,
		HttpRequest: httpReq,
	}, nil
}

func (b *HTTPRequestBuilder) buildURL(values map[string]any) (string, error) {
	target := b.route.URLTemplate
	for _, name := range b.route.PathParams {
		v, ok := values[name]
		if !ok || v == nil {
			continue
		}
		// an empty segment would address a different resource
		text := formatValue(v)
		if strings.TrimSpace(text) == "" {
			continue
		}
		target = strings.ReplaceAll(target, "{"+name+"}", url.PathEscape(text))
	}

	if missing := parser.PathParams(target); len(missing) > 0 {
		return "", &MissingParameterError{Tool: b.route.Name, Names: missing}
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", target, err)
	}

	q := u.Query()
	for name, v := range values {
		if v == nil || b.isPathOrTransport(name) {
			continue
		}
		addQuery(q, name, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// isPathOrTransport reports names that do not travel in the query string.
func (b *HTTPRequestBuilder) isPathOrTransport(name string) bool {
	return slices.Contains(b.route.PathParams, name) ||
		slices.Contains(b.route.HeaderParams, name) ||
		slices.Contains(b.route.CookieParams, name)
}

func addQuery(q url.Values, name string, v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if _, isBytes := v.([]byte); !isBytes {
			for i := 0; i < rv.Len(); i++ {
				q.Add(name, formatValue(rv.Index(i).Interface()))
			}
			return
		}
	}
	q.Add(name, formatValue(v))
}

// formatValue renders a parameter value. Integral floats, as decoded from
// JSON, print without a fraction.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return formatValue(float64(t))
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
