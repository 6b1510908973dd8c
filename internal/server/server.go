// Package server exposes the ingested API over the Model Context Protocol:
// one MCP tool per operation plus the ask and list_operations tools.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/brizzai/auto-api/internal/assistant"
	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/invoker"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/metrics"
	"github.com/brizzai/auto-api/internal/server/handler"
	"github.com/brizzai/auto-api/internal/server/tool"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server represents the MCP server instance. It supports SSE, HTTP and
// STDIO modes and re-publishes its tool list after every ingestion.
type Server struct {
	config    *config.Config
	assistant *assistant.Assistant
	mcp       *mcpserver.MCPServer
	handler   *handler.Handler
	tool      *tool.Handler
	log       *zap.Logger
}

// Params are the dependencies of NewServer.
type Params struct {
	fx.In

	Config    *config.Config
	Assistant *assistant.Assistant
	Invoker   *invoker.Invoker
	Metrics   *metrics.Collector `optional:"true"`
}

// NewServer creates the MCP server and publishes the tools currently in the
// registry.
func NewServer(p Params) *Server {
	if p.Config == nil {
		logger.Fatal("Config cannot be nil")
	}
	if p.Assistant == nil {
		logger.Fatal("Assistant cannot be nil")
	}

	mcpServer := mcpserver.NewMCPServer(
		p.Config.Server.Name,
		p.Config.Server.Version,
		mcpserver.WithToolCapabilities(true),
	)

	srv := &Server{
		config:    p.Config,
		assistant: p.Assistant,
		mcp:       mcpServer,
		handler:   handler.NewHandler(p.Config.Server, p.Assistant, p.Metrics),
		tool:      tool.NewHandler(p.Invoker, p.Assistant),
		log:       logger.Named("server"),
	}

	srv.SyncTools()
	p.Assistant.OnIngest(func(*assistant.IngestReport) { srv.SyncTools() })
	return srv
}

// Load applies the configured adjustments and ingests the configured
// document, when there is one.
func (s *Server) Load(ctx context.Context) error {
	if err := s.assistant.LoadAdjustments(s.config.AdjustmentsFile); err != nil {
		return fmt.Errorf("failed to load adjustments: %w", err)
	}
	if s.config.OpenAPIFile == "" {
		s.log.Warn("No OpenAPI document configured, waiting for an upload")
		return nil
	}
	if _, err := s.assistant.IngestFile(ctx, s.config.OpenAPIFile); err != nil {
		return fmt.Errorf("failed to initialize parser: %w", err)
	}
	return nil
}

// Tools returns the MCP tools for the current registry contents.
func (s *Server) Tools() []mcpserver.ServerTool {
	tools := []mcpserver.ServerTool{
		{Tool: tool.AskTool(), Handler: s.tool.AskHandler()},
		{Tool: tool.ListOperationsTool(), Handler: s.tool.ListOperationsHandler(s.assistant.Registry())},
	}
	for _, t := range s.assistant.Registry().Tools() {
		if t.Name == tool.AskToolName || t.Name == tool.ListOperationsToolName {
			s.log.Warn("Operation shadowed by a built-in tool", zap.String("tool", t.Name))
			continue
		}
		tools = append(tools, mcpserver.ServerTool{
			Tool:    mcp.NewTool(t.Name, tool.Options(t.Operation)...),
			Handler: s.tool.CreateHandler(t.Operation),
		})
	}
	return tools
}

// SyncTools replaces the published tool list with the registry contents.
func (s *Server) SyncTools() {
	tools := s.Tools()
	s.mcp.SetTools(tools...)
	s.log.Info("Published tools", zap.Int("count", len(tools)))
}

func (s *Server) ServeSSE(ctx context.Context) error {
	s.log.Info("Starting SSE server")

	sseServer := mcpserver.NewSSEServer(
		s.mcp,
		mcpserver.WithBaseURL(fmt.Sprintf("http://%s:%d", s.config.Server.Host, s.config.Server.Port)),
	)

	return s.serveHTTP(ctx, sseServer, "SSE")
}

func (s *Server) ServeHTTP(ctx context.Context) error {
	s.log.Info("Starting HTTP server")
	httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
	return s.serveHTTP(ctx, httpServer, "HTTP")
}

// Handler returns the HTTP handler wrapping mcpHandler with the API routes
// and middleware.
func (s *Server) Handler(mcpHandler http.Handler) http.Handler {
	return s.handler.CreateHTTPHandler(mcpHandler)
}

func (s *Server) serveHTTP(ctx context.Context, mcpHandler http.Handler, mode string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(mcpHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel for server errors
	errChan := make(chan error, 1)

	go func() {
		s.log.Info("Starting server",
			zap.String("mode", mode),
			zap.String("address", addr),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down server",
			zap.String("mode", mode),
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

func (s *Server) ServeSTDIO(ctx context.Context) error {
	s.log.Info("Starting STDIO server")
	stdioServer := mcpserver.NewStdioServer(s.mcp)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// Start starts the server in the configured mode (SSE, HTTP, or STDIO).
// It returns an error if the server fails to start or encounters an error
// during operation.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting server",
		zap.String("mode", string(s.config.Server.Mode)),
		zap.String("version", s.config.Server.Version),
	)

	switch s.config.Server.Mode {
	case config.ServerModeSSE:
		return s.ServeSSE(ctx)
	case config.ServerModeHTTP:
		return s.ServeHTTP(ctx)
	case config.ServerModeSTDIO:
		return s.ServeSTDIO(ctx)
	default:
		return fmt.Errorf("unsupported server mode: %s", s.config.Server.Mode)
	}
}

// Module provides the MCP server dependencies
var Module = fx.Module("mcp_server",
	fx.Provide(
		NewServer,
	),
)
