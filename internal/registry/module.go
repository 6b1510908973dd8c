package registry

import (
	"github.com/brizzai/auto-api/internal/requester"
	"go.uber.org/fx"
)

// Module provides the tool registry backed by the HTTP requester
var Module = fx.Module("registry",
	fx.Provide(
		func(r *requester.HTTPRequester) *Registry {
			return New(r)
		},
	),
)
