package requester

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/brizzai/auto-api/internal/parser"
)

// RouteExecutor executes one route with parameter values and an optional
// JSON body.
type RouteExecutor func(ctx context.Context, values map[string]any, body any) (*Response, error)

// RouteConfig is a value snapshot of what an operation needs at call time.
type RouteConfig struct {
	Name         string   `json:"name"`
	Method       string   `json:"method"`
	URLTemplate  string   `json:"url_template"`
	PathParams   []string `json:"path_params,omitempty"`
	QueryParams  []string `json:"query_params,omitempty"`
	HeaderParams []string `json:"header_params,omitempty"`
	CookieParams []string `json:"cookie_params,omitempty"`
}

// NewRouteConfig snapshots op. Path params come from the template itself so
// undeclared placeholders are still enforced.
func NewRouteConfig(op parser.Operation) *RouteConfig {
	rc := &RouteConfig{
		Name:        op.ID,
		Method:      strings.ToUpper(op.Method),
		URLTemplate: op.URLTemplate,
		PathParams:  parser.PathParams(op.URLTemplate),
	}
	for _, p := range op.Parameters {
		switch p.In {
		case parser.LocationQuery:
			rc.QueryParams = append(rc.QueryParams, p.Name)
		case parser.LocationHeader:
			rc.HeaderParams = append(rc.HeaderParams, p.Name)
		case parser.LocationCookie:
			rc.CookieParams = append(rc.CookieParams, p.Name)
		}
	}
	return rc
}

// Clone returns a copy that shares no slices with rc.
func (rc RouteConfig) Clone() *RouteConfig {
	c := rc
	c.PathParams = append([]string(nil), rc.PathParams...)
	c.QueryParams = append([]string(nil), rc.QueryParams...)
	c.HeaderParams = append([]string(nil), rc.HeaderParams...)
	c.CookieParams = append([]string(nil), rc.CookieParams...)
	return &c
}

// Request is a fully built HTTP request.
type Request struct {
	URL         string
	Method      string
	Headers     map[string]string
	Body        []byte
	HttpRequest *http.Request
}

// Response is a normalized HTTP response. Non-2xx statuses are data.
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	// Body is the decoded JSON value, the raw text when it is not JSON, or
	// nil when the response is empty.
	Body any    `json:"body"`
	Raw  []byte `json:"-"`
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the raw body as a string.
func (r *Response) Text() string {
	return string(r.Raw)
}

func newResponse(resp *http.Response, raw []byte) *Response {
	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = strings.Join(v, ", ")
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       decodeBody(raw),
		Raw:        raw,
	}
}

func decodeBody(raw []byte) any {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}
