// Package tool adapts registry tools and assistant flows to MCP tool handlers.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/brizzai/auto-api/internal/assistant"
	"github.com/brizzai/auto-api/internal/intent"
	"github.com/brizzai/auto-api/internal/invoker"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// HandlerFunc is the MCP tool handler signature.
type HandlerFunc = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Names of the built-in tools.
const (
	AskToolName            = "ask"
	ListOperationsToolName = "list_operations"
)

// Handler builds MCP tool handlers.
type Handler struct {
	invoker   *invoker.Invoker
	assistant *assistant.Assistant
	log       *zap.Logger
}

// NewHandler creates a tool handler factory.
func NewHandler(inv *invoker.Invoker, a *assistant.Assistant) *Handler {
	return &Handler{invoker: inv, assistant: a, log: logger.Named("mcp")}
}

// CreateHandler returns the handler of the registry tool for op. Arguments
// are coerced to the declared parameter types; the body argument is sent as
// the JSON request body.
func (h *Handler) CreateHandler(op parser.Operation) HandlerFunc {
	bodyArg := BodyArgumentName(op)
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := maps.Clone(request.GetArguments())
		if args == nil {
			args = map[string]any{}
		}

		var body map[string]any
		if raw, ok := args[bodyArg]; ok && op.RequestBody != nil {
			delete(args, bodyArg)
			decoded, err := decodeBody(raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Invalid %s argument: %v", bodyArg, err)), nil
			}
			body = decoded
		}

		params, warnings := intent.Coerce(op, args)
		for _, w := range warnings {
			h.log.Debug("Argument kept as sent", zap.String("tool", op.ID), zap.String("warning", w.String()))
		}

		result, err := h.invoker.Invoke(ctx, &intent.Plan{ToolName: op.ID, Parameters: params, RequestBody: body})
		if err != nil {
			return mcp.NewToolResultError(intent.Classify(err).Message), nil
		}
		return ResultFromAPI(result), nil
	}
}

// AskHandler answers a natural-language query end to end.
func (h *Handler) AskHandler() HandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, _ := request.GetArguments()["query"].(string)
		if query == "" {
			return mcp.NewToolResultError("The query argument is required"), nil
		}
		answer, err := h.assistant.Ask(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("ask: %w", err)
		}
		if answer.Failure != nil {
			return mcp.NewToolResultError(answer.Failure.Message), nil
		}
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode answer: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// ListOperationsHandler returns the registry manifest as JSON.
func (h *Handler) ListOperationsHandler(reg *registry.Registry) HandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.MarshalIndent(reg.Manifest(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode manifest: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// AskTool describes the ask tool.
func AskTool() mcp.Tool {
	return mcp.NewTool(AskToolName,
		mcp.WithDescription("Answer a natural-language request by choosing one API operation, calling it and explaining the response."),
		mcp.WithString("query", mcp.Required(), mcp.Description("What you want to do, in plain language")),
	)
}

// ListOperationsTool describes the list_operations tool.
func ListOperationsTool() mcp.Tool {
	return mcp.NewTool(ListOperationsToolName,
		mcp.WithDescription("List the API operations currently available, with their parameters."),
	)
}

// ResultFromAPI renders an APIResult as an MCP tool result. Transport
// failures and 4xx/5xx statuses are error results.
func ResultFromAPI(result *invoker.APIResult) *mcp.CallToolResult {
	if result.StatusCode == nil {
		return mcp.NewToolResultError(result.Error)
	}
	text := bodyText(result.Body)
	if *result.StatusCode >= http.StatusBadRequest {
		return mcp.NewToolResultError(fmt.Sprintf("HTTP Error %d: %s", *result.StatusCode, text))
	}
	return mcp.NewToolResultText(text)
}

func bodyText(body any) string {
	switch b := body.(type) {
	case nil:
		return ""
	case string:
		return b
	default:
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return fmt.Sprint(b)
		}
		return string(data)
	}
}

func decodeBody(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("not a JSON object: %w", err)
		}
		return m, nil
	default:
		return nil, errors.New("expected a JSON object")
	}
}
