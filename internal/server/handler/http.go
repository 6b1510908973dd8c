// Package handler provides HTTP request handling for the MCP server.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/brizzai/auto-api/internal/assistant"
	"github.com/brizzai/auto-api/internal/auth/middleware"
	"github.com/brizzai/auto-api/internal/config"
	"github.com/brizzai/auto-api/internal/logger"
	"github.com/brizzai/auto-api/internal/metrics"
	"go.uber.org/zap"
)

// maxUploadSize bounds documents posted to /api/ingest.
const maxUploadSize = 10 << 20

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	config    config.ServerConfig
	assistant *assistant.Assistant
	metrics   *metrics.Collector
}

// NewHandler creates a new HTTP handler.
func NewHandler(cfg config.ServerConfig, a *assistant.Assistant, m *metrics.Collector) *Handler {
	return &Handler{config: cfg, assistant: a, metrics: m}
}

// CreateHTTPHandler mounts the MCP transport at the root next to the JSON
// API, health and metrics endpoints, behind token auth, logging and CORS.
func (h *Handler) CreateHTTPHandler(mcpHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.Handle("GET /metrics", h.metrics.Handler())
	mux.HandleFunc("GET /api/tools", h.tools)
	mux.HandleFunc("POST /api/ask", h.ask)
	mux.HandleFunc("POST /api/ingest", h.ingest)
	mux.HandleFunc("GET /api/history", h.history)
	mux.Handle("/", mcpHandler)

	if h.config.AuthToken != "" {
		logger.Info("Enabled token authentication for all routes")
	} else {
		logger.Info("Running without authentication")
	}

	var handler http.Handler = mux
	handler = middleware.Authenticate(h.config.AuthToken)(handler)
	handler = h.logging(mux, handler)
	return middleware.CORS(h.config.AllowOrigins)(handler)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tools":  h.assistant.Registry().Len(),
	})
}

func (h *Handler) tools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.assistant.Registry().Manifest())
}

type askRequest struct {
	Query string `json:"query"`
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "Body must be a JSON object with a query field")
		return
	}
	answer, err := h.assistant.Ask(r.Context(), req.Query)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	status := http.StatusOK
	if answer.Failure != nil {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, answer)
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Document exceeds the upload limit")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	logger.Info("Ingesting uploaded document",
		zap.String("name", name),
		zap.Int("size", len(data)),
		zap.String("caller", caller(r)),
	)
	report, err := h.assistant.Ingest(r.Context(), name, data)
	if err != nil {
		middleware.WriteError(w, http.StatusUnprocessableEntity, "invalid_document", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}
	records, err := h.assistant.Recent(r.Context(), limit)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// caller names the authenticated token for logs, or "anonymous".
func caller(r *http.Request) string {
	if info, ok := middleware.FromContext(r.Context()); ok {
		return "token:" + info.Fingerprint()
	}
	return "anonymous"
}

// logging logs each request and records it in the HTTP metrics.
func (h *Handler) logging(mux *http.ServeMux, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		_, route := mux.Handler(r)
		if route == "" {
			route = "unmatched"
		}
		h.metrics.RecordHTTPRequest(r.Method, route, rw.statusCode, duration)
		logger.Info("HTTP Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rw.statusCode),
			zap.Duration("duration", duration),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

// responseWriter captures the status code. It forwards Flush so SSE streams
// keep working through the middleware.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", zap.Error(err))
	}
}
