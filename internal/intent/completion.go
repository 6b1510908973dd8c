package intent

import (
	"context"
	"fmt"

	"github.com/brizzai/auto-api/internal/llm"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/registry"
	"go.uber.org/zap"
)

// CompletionExtractor delegates tool choice and value extraction to a
// text-completion service.
type CompletionExtractor struct {
	completer   llm.Completer
	temperature float64
	log         *zap.Logger
}

// NewCompletionExtractor creates an extractor. Temperature 0 keeps
// extraction reproducible.
func NewCompletionExtractor(completer llm.Completer, temperature float64) *CompletionExtractor {
	return &CompletionExtractor{
		completer:   completer,
		temperature: temperature,
		log:         logger.Named("intent"),
	}
}

// Extract asks the completer for a plan and parses its answer.
func (e *CompletionExtractor) Extract(ctx context.Context, query string, tools []registry.ToolInfo) (*RawPlan, error) {
	if e.completer == nil {
		return nil, fmt.Errorf("completion extractor: no completer configured")
	}
	system, user := BuildPrompt(query, tools)
	raw, err := e.completer.Complete(ctx, llm.CompletionRequest{
		System:      system,
		User:        user,
		Temperature: e.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	e.log.Debug("Completion received", zap.Int("length", len(raw)))
	return ParseResponse(raw)
}
