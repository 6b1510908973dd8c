// Package intent maps a free-text query onto one registered tool and a set
// of typed arguments.
package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brizzai/auto-api/internal/llm"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/brizzai/auto-api/internal/requester"
)

// ErrNoToolMatched is returned when the extractor states that no tool applies.
var ErrNoToolMatched = errors.New("no tool matches the query")

// ErrNoStructuredResponse matches every *NoStructuredResponseError.
var ErrNoStructuredResponse = errors.New("no structured response")

// NoStructuredResponseError reports a completion without any well-formed
// JSON object in it, or whose plan object has the wrong shape.
type NoStructuredResponseError struct {
	Raw string
	// Reason is set when an object was found but did not fit the plan shape.
	Reason string
}

func (e *NoStructuredResponseError) Error() string {
	const limit = 200
	raw := e.Raw
	if len(raw) > limit {
		raw = raw[:limit] + "..."
	}
	if e.Reason != "" {
		return fmt.Sprintf("malformed plan object (%s) in response: %q", e.Reason, raw)
	}
	return fmt.Sprintf("no structured object found in response: %q", raw)
}

func (e *NoStructuredResponseError) Is(target error) bool {
	return target == ErrNoStructuredResponse
}

// RawPlan is the extractor's answer before validation and coercion.
type RawPlan struct {
	ToolName    string         `json:"tool_name" jsonschema:"description=Name of the chosen tool or null when no tool applies"`
	Parameters  map[string]any `json:"parameters" jsonschema:"description=Path and query parameter values keyed by parameter name"`
	RequestBody map[string]any `json:"request_body,omitempty" jsonschema:"description=JSON request body or null"`
}

// CoercionWarning records a value that could not be converted to its
// declared type. The value is passed on unchanged.
type CoercionWarning struct {
	Parameter string `json:"parameter"`
	Expected  string `json:"expected"`
	Value     any    `json:"value"`
	Reason    string `json:"reason"`
}

func (w CoercionWarning) String() string {
	return fmt.Sprintf("%s: expected %s, got %v (%s)", w.Parameter, w.Expected, w.Value, w.Reason)
}

// Plan is the resolved (tool, parameters, body) triple for one query.
type Plan struct {
	ToolName    string            `json:"tool_name"`
	Parameters  map[string]any    `json:"parameters"`
	RequestBody map[string]any    `json:"request_body,omitempty"`
	Warnings    []CoercionWarning `json:"warnings,omitempty"`
}

// ValueExtractor chooses a tool and extracts raw values for query.
type ValueExtractor interface {
	Extract(ctx context.Context, query string, tools []registry.ToolInfo) (*RawPlan, error)
}

// FailureKind classifies why no plan could be produced.
type FailureKind string

const (
	FailureNoMatch          FailureKind = "no_match"
	FailureUnparseable      FailureKind = "unparseable"
	FailureUnknownTool      FailureKind = "unknown_tool"
	FailureTimeout          FailureKind = "timeout"
	FailureCompletionFailed FailureKind = "completion_failed"
	FailureNoTools          FailureKind = "no_tools"
	FailureMissingParameter FailureKind = "missing_parameter"
)

// Failure is a user-displayable account of a resolution error.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return f.Message
}

// ErrNoTools is returned when the registry is empty.
var ErrNoTools = errors.New("no tools registered")

// Classify maps a resolution error to a Failure. It returns nil for nil.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	var unknown *registry.UnknownToolError
	var missing *requester.MissingParameterError
	switch {
	case errors.Is(err, ErrNoTools):
		return &Failure{Kind: FailureNoTools, Message: "No API document has been ingested yet, so there is nothing to call."}
	case errors.Is(err, ErrNoToolMatched):
		return &Failure{Kind: FailureNoMatch, Message: "None of the available operations matches this request. Try naming the resource or action more explicitly."}
	case errors.Is(err, ErrNoStructuredResponse):
		return &Failure{Kind: FailureUnparseable, Message: "An operation may match, but the assistant's answer could not be understood. Try rephrasing the request."}
	case errors.As(err, &unknown):
		return &Failure{Kind: FailureUnknownTool, Message: fmt.Sprintf("The assistant picked %q, which is not an available operation. Try rephrasing or list the operations first.", unknown.Name)}
	case errors.As(err, &missing):
		return &Failure{Kind: FailureMissingParameter, Message: fmt.Sprintf("The request for %s needs a value for: %s. Mention it in the query.", missing.Tool, strings.Join(missing.Names, ", "))}
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: FailureTimeout, Message: "The language model did not answer in time. Try again in a moment."}
	default:
		return &Failure{Kind: FailureCompletionFailed, Message: fmt.Sprintf("The request could not be resolved: %v", err)}
	}
}
