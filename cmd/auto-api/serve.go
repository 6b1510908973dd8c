package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the API operations as MCP tools",
		Long: `Serve ingests the configured OpenAPI document and publishes one MCP tool per
operation plus the ask and list_operations tools. In sse and http modes the
JSON API, /healthz and /metrics are served next to the MCP endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var srv *server.Server
			stop, err := startApp(ctx, cfg, server.Module, fx.Populate(&srv))
			if err != nil {
				return err
			}
			defer stop()

			if err := srv.Load(ctx); err != nil {
				return err
			}
			logger.Info("Serving",
				zap.String("mode", string(cfg.Server.Mode)),
				zap.String("openapi_file", cfg.OpenAPIFile))
			return srv.Start(ctx)
		},
	}
}
