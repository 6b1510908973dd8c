// Package invoker executes resolved plans against the registry and
// normalizes the outcome into an APIResult.
package invoker

import (
	"context"
	"errors"
	"time"

	"github.com/brizzai/auto-api/internal/intent"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/metrics"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/brizzai/auto-api/internal/requester"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// APIResult is the normalized outcome of one invocation. StatusCode is nil
// when the target API produced no response; Error then says why.
type APIResult struct {
	StatusCode *int              `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
	Error      string            `json:"error,omitempty"`
	Timeout    bool              `json:"timeout,omitempty"`
	Duration   time.Duration     `json:"duration"`
}

// OK reports whether a 2xx response was received.
func (r *APIResult) OK() bool {
	return r != nil && r.StatusCode != nil && *r.StatusCode >= 200 && *r.StatusCode < 300
}

// Invoker runs plans against a registry.
type Invoker struct {
	registry *registry.Registry
	metrics  *metrics.Collector
	log      *zap.Logger
}

// Params are the fx dependencies of New.
type Params struct {
	fx.In

	Registry *registry.Registry
	Metrics  *metrics.Collector `optional:"true"`
}

// New creates an invoker.
func New(p Params) *Invoker {
	return &Invoker{
		registry: p.Registry,
		metrics:  p.Metrics,
		log:      logger.Named("invoker"),
	}
}

// Invoke looks the plan's tool up at call time and performs the request. A
// stale tool name (*registry.UnknownToolError) and unsubstituted path
// parameters (*requester.MissingParameterError) are returned as errors;
// transport failures are folded into the result.
func (i *Invoker) Invoke(ctx context.Context, plan *intent.Plan) (*APIResult, error) {
	tool, err := i.registry.Lookup(plan.ToolName)
	if err != nil {
		return nil, err
	}

	var body any
	if plan.RequestBody != nil {
		body = plan.RequestBody
	}

	start := time.Now()
	resp, err := tool.Invoke(ctx, plan.Parameters, body)
	elapsed := time.Since(start)

	if err != nil {
		var invErr *requester.InvocationError
		if !errors.As(err, &invErr) {
			return nil, err
		}
		i.metrics.RecordInvocation(tool.Name, 0, elapsed)
		i.log.Warn("Invocation failed",
			zap.String("tool", tool.Name),
			zap.Bool("timeout", invErr.Timeout),
			zap.Error(invErr.Cause))
		return &APIResult{
			Error:    invErr.Error(),
			Timeout:  invErr.Timeout,
			Duration: elapsed,
		}, nil
	}

	i.metrics.RecordInvocation(tool.Name, resp.StatusCode, elapsed)
	i.log.Debug("Invocation completed",
		zap.String("tool", tool.Name),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed))

	status := resp.StatusCode
	return &APIResult{
		StatusCode: &status,
		Headers:    resp.Headers,
		Body:       resp.Body,
		Duration:   elapsed,
	}, nil
}

// Module provides the Invoker.
var Module = fx.Module("invoker", fx.Provide(New))
