// Package registry binds extracted operations to invocable tools.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/requester"
	"github.com/brizzai/auto-api/internal/schema"
	"go.uber.org/zap"
)

// ErrUnknownTool matches every *UnknownToolError.
var ErrUnknownTool = errors.New("unknown tool")

// UnknownToolError reports a tool name absent from the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

func (e *UnknownToolError) Is(target error) bool {
	return target == ErrUnknownTool
}

// ExecutorFactory builds the call capability of a route.
type ExecutorFactory interface {
	BuildRouteExecutor(route *requester.RouteConfig) (requester.RouteExecutor, error)
}

// Tool pairs an operation with its call capability.
type Tool struct {
	Name      string
	Operation parser.Operation
	execute   requester.RouteExecutor
}

// Invoke performs the HTTP call. Errors are *requester.MissingParameterError
// or *requester.InvocationError.
func (t *Tool) Invoke(ctx context.Context, values map[string]any, body any) (*requester.Response, error) {
	return t.execute(ctx, values, body)
}

// Registry maps tool names to tools. Safe for concurrent use: lookups never
// observe a partially applied Replace.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*Tool
	factory ExecutorFactory
	log     *zap.Logger
}

// New creates an empty registry whose tools execute through factory.
func New(factory ExecutorFactory) *Registry {
	return &Registry{
		tools:   map[string]*Tool{},
		factory: factory,
		log:     logger.Named("registry"),
	}
}

func (r *Registry) build(op parser.Operation) (*Tool, error) {
	op = op.Clone()
	execute, err := r.factory.BuildRouteExecutor(requester.NewRouteConfig(op))
	if err != nil {
		return nil, fmt.Errorf("failed to build executor for %s: %w", op.ID, err)
	}
	return &Tool{Name: op.ID, Operation: op, execute: execute}, nil
}

// Register adds op, replacing any tool with the same name.
func (r *Registry) Register(op parser.Operation) (*Tool, error) {
	tool, err := r.build(op)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; exists {
		r.log.Debug("Replacing tool", zap.String("tool", tool.Name))
	}
	r.tools[tool.Name] = tool
	return tool, nil
}

// RegisterAll registers ops in order; later duplicates win.
func (r *Registry) RegisterAll(ops []parser.Operation) error {
	built, err := r.buildAll(ops)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tool := range built {
		r.tools[tool.Name] = tool
	}
	return nil
}

// Replace swaps the whole tool set for ops in one step.
func (r *Registry) Replace(ops []parser.Operation) error {
	built, err := r.buildAll(ops)
	if err != nil {
		return err
	}
	next := make(map[string]*Tool, len(built))
	for _, tool := range built {
		next[tool.Name] = tool
	}
	r.mu.Lock()
	r.tools = next
	r.mu.Unlock()
	r.log.Info("Registry replaced", zap.Int("tools", len(next)))
	return nil
}

func (r *Registry) buildAll(ops []parser.Operation) ([]*Tool, error) {
	built := make([]*Tool, 0, len(ops))
	for _, op := range ops {
		tool, err := r.build(op)
		if err != nil {
			return nil, err
		}
		built = append(built, tool)
	}
	return built, nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Lookup is Get with an *UnknownToolError for absent names.
func (r *Registry) Lookup(name string) (*Tool, error) {
	if tool, ok := r.Get(name); ok {
		return tool, nil
	}
	return nil, &UnknownToolError{Name: name}
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Tools returns the tools sorted by name.
func (r *Registry) Tools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ParamInfo describes one parameter in the manifest.
type ParamInfo struct {
	Name        string `json:"name"`
	In          string `json:"in"`
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// ToolInfo is the read-only manifest entry of a tool.
type ToolInfo struct {
	Name        string      `json:"name"`
	Method      string      `json:"method"`
	Path        string      `json:"path"`
	URLTemplate string      `json:"url_template"`
	Summary     string      `json:"summary,omitempty"`
	Description string      `json:"description,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Parameters  []ParamInfo `json:"parameters"`
	HasBody     bool        `json:"has_body"`
	// Body is a one-line rendering of the request body schema.
	Body string `json:"body,omitempty"`
}

// ParameterNames returns the declared parameter names in order.
func (ti ToolInfo) ParameterNames() []string {
	names := make([]string, 0, len(ti.Parameters))
	for _, p := range ti.Parameters {
		names = append(names, p.Name)
	}
	return names
}

// Info builds the manifest entry of t.
func (t *Tool) Info() ToolInfo {
	op := t.Operation
	info := ToolInfo{
		Name:        t.Name,
		Method:      op.Method,
		Path:        op.Path,
		URLTemplate: op.URLTemplate,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        op.Tags,
		Parameters:  make([]ParamInfo, 0, len(op.Parameters)),
		HasBody:     op.RequestBody != nil,
	}
	for _, p := range op.Parameters {
		info.Parameters = append(info.Parameters, ParamInfo{
			Name:        p.Name,
			In:          string(p.In),
			Type:        p.Type(),
			Required:    p.Required,
			Description: p.Description,
		})
	}
	if op.RequestBody != nil && !op.RequestBody.IsEmpty() {
		info.Body = schema.Summary(op.RequestBody)
	}
	return info
}

// Manifest lists every tool sorted by name.
func (r *Registry) Manifest() []ToolInfo {
	tools := r.Tools()
	out := make([]ToolInfo, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Info())
	}
	return out
}
