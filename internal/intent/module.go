package intent

import (
	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/llm"
	"github.com/brizzai/auto-api/internal/registry"
	"go.uber.org/fx"
)

// Module provides the Resolver with the configured strategy and optional
// embedding shortlist.
var Module = fx.Module("intent",
	fx.Provide(
		func(cfg *config.Config, provider llm.Provider, reg *registry.Registry) (ValueExtractor, error) {
			var completer llm.Completer
			if provider != nil {
				completer = provider
			}
			return NewExtractor(cfg.Resolver, completer, reg)
		},
		func(cfg *config.Config, provider llm.Provider, reg *registry.Registry, extractor ValueExtractor) *Resolver {
			var opts []Option
			if provider != nil && cfg.Resolver.Shortlist > 0 {
				opts = append(opts, WithIndex(NewIndex(provider), cfg.Resolver.Shortlist))
			}
			return NewResolver(reg, extractor, opts...)
		},
	),
)
