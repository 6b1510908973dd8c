package intent

import (
	"context"
	"fmt"
	"sort"

	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/llm"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/brizzai/auto-api/internal/schema"
	"go.uber.org/zap"
)

// Resolver turns a query into a validated, coerced Plan.
type Resolver struct {
	registry  *registry.Registry
	extractor ValueExtractor
	index     *Index
	shortlist int
	log       *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithIndex narrows the tools shown to the extractor to the k best matches
// of index. k <= 0 disables the shortlist.
func WithIndex(index *Index, k int) Option {
	return func(r *Resolver) {
		r.index = index
		r.shortlist = k
	}
}

// NewResolver creates a resolver over reg using extractor.
func NewResolver(reg *registry.Registry, extractor ValueExtractor, opts ...Option) *Resolver {
	r := &Resolver{
		registry:  reg,
		extractor: extractor,
		log:       logger.Named("intent"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Index returns the embedding index, or nil when shortlisting is off.
func (r *Resolver) Index() *Index {
	return r.index
}

// Resolve picks a tool for query and returns its typed arguments. Values that
// do not fit their declared types are kept and reported in Plan.Warnings.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Plan, error) {
	tools := r.registry.Manifest()
	if len(tools) == 0 {
		return nil, ErrNoTools
	}

	candidates := tools
	if r.index != nil && r.shortlist > 0 && r.index.Len() > 0 {
		short, err := r.index.Shortlist(ctx, query, tools, r.shortlist)
		if err != nil {
			r.log.Warn("Shortlist failed, using all tools", zap.Error(err))
		} else {
			candidates = short
		}
	}

	raw, err := r.extractor.Extract(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	tool, err := r.registry.Lookup(raw.ToolName)
	if err != nil {
		return nil, err
	}

	params, warnings := Coerce(tool.Operation, raw.Parameters)
	plan := &Plan{
		ToolName:   tool.Name,
		Parameters: params,
		Warnings:   warnings,
	}
	if raw.RequestBody != nil {
		body, bodyWarnings := CoerceBody(tool.Operation.RequestBody, raw.RequestBody)
		plan.RequestBody = body
		plan.Warnings = append(plan.Warnings, bodyWarnings...)
		plan.Warnings = append(plan.Warnings, ValidateBody(tool.Operation.RequestBody, body)...)
	}

	r.log.Debug("Query resolved",
		zap.String("tool", plan.ToolName),
		zap.Int("parameters", len(plan.Parameters)),
		zap.Int("warnings", len(plan.Warnings)))
	return plan, nil
}

// CoerceBody converts top-level body values to their declared property types.
// body is not modified.
func CoerceBody(bodySchema *schema.Node, body map[string]any) (map[string]any, []CoercionWarning) {
	out := make(map[string]any, len(body))
	names := make([]string, 0, len(body))
	for name, v := range body {
		out[name] = v
		names = append(names, name)
	}
	if bodySchema == nil {
		return out, nil
	}
	sort.Strings(names)

	var warnings []CoercionWarning
	for _, name := range names {
		prop := bodySchema.Properties[name]
		if prop == nil || body[name] == nil {
			continue
		}
		coerced, err := CoerceValue(prop.Type, body[name])
		if err != nil {
			warnings = append(warnings, CoercionWarning{
				Parameter: "request_body." + name,
				Expected:  prop.Type,
				Value:     body[name],
				Reason:    err.Error(),
			})
			continue
		}
		out[name] = coerced
	}
	return out, warnings
}

// NewExtractor selects the extraction strategy named by cfg.
func NewExtractor(cfg config.ResolverConfig, completer llm.Completer, source OperationSource) (ValueExtractor, error) {
	switch cfg.Strategy {
	case config.ResolverStrategyHeuristic:
		return NewHeuristicExtractor(source), nil
	case "", config.ResolverStrategyCompletion:
		if completer == nil {
			return nil, fmt.Errorf("resolver strategy %q requires an llm provider", config.ResolverStrategyCompletion)
		}
		return NewCompletionExtractor(completer, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unsupported resolver strategy %q", cfg.Strategy)
	}
}
