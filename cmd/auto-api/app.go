package main

import (
	"context"
	"fmt"

	"github.com/brizzai/auto-api/internal/assistant"
	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/history"
	"github.com/brizzai/auto-api/internal/intent"
	"github.com/brizzai/auto-api/internal/invoker"
	"github.com/brizzai/auto-api/internal/llm"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/metrics"
	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/registry"
	"github.com/brizzai/auto-api/internal/requester"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// appOptions wires every module behind the assistant. extra adds command
// specific modules and fx.Populate targets.
func appOptions(cfg *config.Config, extra ...fx.Option) []fx.Option {
	opts := []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Supply(cfg),
		fx.Provide(func(c *config.Config) *config.EndpointConfig { return &c.EndpointConfig }),
		parser.Module,
		requester.Module,
		registry.Module,
		llm.Module,
		intent.Module,
		history.Module,
		metrics.Module,
		invoker.Module,
		assistant.Module,
	}
	return append(opts, extra...)
}

// startApp builds and starts the application. The returned stop function
// runs the lifecycle OnStop hooks.
func startApp(ctx context.Context, cfg *config.Config, extra ...fx.Option) (func(), error) {
	app := fx.New(appOptions(cfg, extra...)...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	if err := app.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start application: %w", err)
	}
	return func() {
		if err := app.Stop(context.Background()); err != nil {
			logger.Warn("Application stop failed", zap.Error(err))
		}
	}, nil
}

// loadAssistant starts the application and ingests the configured
// document with its adjustments.
func loadAssistant(ctx context.Context, cfg *config.Config) (*assistant.Assistant, func(), error) {
	if err := cfg.RequireOpenAPIFile(); err != nil {
		return nil, nil, err
	}
	var a *assistant.Assistant
	stop, err := startApp(ctx, cfg, fx.Populate(&a))
	if err != nil {
		return nil, nil, err
	}
	if err := a.LoadAdjustments(cfg.AdjustmentsFile); err != nil {
		stop()
		return nil, nil, err
	}
	if _, err := a.IngestFile(ctx, cfg.OpenAPIFile); err != nil {
		stop()
		return nil, nil, err
	}
	return a, stop, nil
}
