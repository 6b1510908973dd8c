package tool

import (
	"fmt"
	"slices"
	"strings"

	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// BodyArgument is the MCP argument carrying the JSON request body.
const BodyArgument = "body"

// BodyArgumentName returns the body argument for op, avoiding a clash with
// a declared parameter.
func BodyArgumentName(op parser.Operation) string {
	if _, clash := op.Parameter(BodyArgument); clash {
		return "request_body"
	}
	return BodyArgument
}

// Description renders the tool description shown to MCP clients.
func Description(op parser.Operation) string {
	text := strings.TrimSpace(op.Text())
	route := fmt.Sprintf("%s %s", op.Method, op.Path)
	if text == "" {
		return route
	}
	return text + "\n\n" + route
}

// Options builds the MCP tool options of op: one argument per parameter
// plus the body argument when the operation takes one.
func Options(op parser.Operation) []mcp.ToolOption {
	opts := []mcp.ToolOption{mcp.WithDescription(Description(op))}
	for _, p := range op.Parameters {
		desc := p.Description
		if desc == "" {
			desc = fmt.Sprintf("%s parameter %s", p.In, p.Name)
		}
		opts = append(opts, schemaOption(p.Schema, p.Name, desc, p.Required))
	}
	if op.RequestBody != nil {
		desc := "Request body"
		if op.RequestBody.Description != "" {
			desc = op.RequestBody.Description
		}
		opts = append(opts, schemaOption(op.RequestBody, BodyArgumentName(op), desc, op.RequestBodyRequired))
	}
	return opts
}

// schemaOption converts a schema node to an MCP tool argument.
func schemaOption(node *schema.Node, name, description string, required bool) mcp.ToolOption {
	if node != nil && !node.Opaque() && (node.Type == "object" || (node.Type == "" && len(node.Properties) > 0)) {
		return createObjectOption(node, name, description, required)
	}

	baseOpts := []mcp.PropertyOption{mcp.Description(description)}
	if required {
		baseOpts = append(baseOpts, mcp.Required())
	}
	if node == nil || node.Opaque() {
		return mcp.WithString(name, baseOpts...)
	}

	switch node.Type {
	case "array":
		if node.Items != nil {
			baseOpts = append(baseOpts, mcp.Items(node.Items.JSONSchema()))
		}
		return mcp.WithArray(name, baseOpts...)
	case "string":
		return createStringOption(node, name, baseOpts)
	case "integer", "number":
		return createNumberOption(node, name, baseOpts)
	case "boolean":
		return mcp.WithBoolean(name, baseOpts...)
	case "":
		return mcp.WithString(name, baseOpts...)
	default:
		return mcp.WithString(name, append(baseOpts,
			mcp.Description(fmt.Sprintf("%s (unknown type: %s)", description, node.Type)))...)
	}
}

// createObjectOption publishes an object argument. The object's own
// required list shares the "required" key that mcp.Required uses, so the
// argument is marked required on the tool schema directly.
func createObjectOption(node *schema.Node, name, description string, required bool) mcp.ToolOption {
	objOpts := []mcp.PropertyOption{mcp.Description(description)}
	if len(node.Properties) > 0 {
		props := make(map[string]any, len(node.Properties))
		for propName, prop := range node.Properties {
			props[propName] = prop.JSONSchema()
		}
		objOpts = append(objOpts, mcp.Properties(props))
	}
	if len(node.Required) > 0 {
		props := append([]string(nil), node.Required...)
		objOpts = append(objOpts, func(m map[string]any) {
			m["required"] = props
		})
	}
	return func(t *mcp.Tool) {
		mcp.WithObject(name, objOpts...)(t)
		if required && !slices.Contains(t.InputSchema.Required, name) {
			t.InputSchema.Required = append(t.InputSchema.Required, name)
		}
	}
}

func createStringOption(node *schema.Node, name string, baseOpts []mcp.PropertyOption) mcp.ToolOption {
	stringOpts := baseOpts
	if len(node.Enum) > 0 {
		values := make([]string, 0, len(node.Enum))
		for _, v := range node.Enum {
			if s, ok := v.(string); ok {
				values = append(values, s)
			}
		}
		if len(values) > 0 {
			stringOpts = append(stringOpts, mcp.Enum(values...))
		}
	}
	if node.MaxLength != nil {
		stringOpts = append(stringOpts, mcp.MaxLength(int(*node.MaxLength)))
	}
	if node.MinLength != nil {
		stringOpts = append(stringOpts, mcp.MinLength(int(*node.MinLength)))
	}
	if node.Pattern != "" {
		stringOpts = append(stringOpts, mcp.Pattern(node.Pattern))
	}
	return mcp.WithString(name, stringOpts...)
}

func createNumberOption(node *schema.Node, name string, baseOpts []mcp.PropertyOption) mcp.ToolOption {
	numberOpts := baseOpts
	if node.Maximum != nil {
		numberOpts = append(numberOpts, mcp.Max(*node.Maximum))
	}
	if node.Minimum != nil {
		numberOpts = append(numberOpts, mcp.Min(*node.Minimum))
	}
	return mcp.WithNumber(name, numberOpts...)
}
