// Package server routes HTTP requests to the tool store and serializes
// results as JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olgasafonova/devops-tools-api/internal/store"
	"github.com/olgasafonova/devops-tools-api/internal/validation"
)

// ToolStore is the store surface the handlers depend on.
type ToolStore interface {
	List() []store.Record
	Get(id int) (store.Tool, error)
	Create(t store.Tool) store.Record
	Update(id int, t store.Tool) (store.Record, error)
	Delete(id int) error
}

// Options configures optional endpoints and protections.
type Options struct {
	Security SecurityConfig

	// MetricsHandler, when set, is served at GET /metrics
	MetricsHandler http.Handler

	// MCPHandler, when set, is served at /mcp
	MCPHandler http.Handler

	// Version is reported in the OpenAPI document
	Version string
}

// Server is the DevOps Tools HTTP API.
type Server struct {
	store     ToolStore
	validator *validation.Validator
	logger    *slog.Logger
	opts      Options
	security  *SecurityMiddleware
	handler   http.Handler
}

// New builds the router and middleware chain.
func New(st ToolStore, validator *validation.Validator, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	s := &Server{
		store:     st,
		validator: validator,
		logger:    logger,
		opts:      opts,
	}

	s.security = NewSecurityMiddleware(s.routes(), logger, opts.Security)
	s.handler = withRequestID(withObservability(logger, withRecover(logger, s.security)))
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /tools", s.handleListTools)
	mux.HandleFunc("POST /tools", s.handleCreateTool)
	mux.HandleFunc("GET /tools/{tool_id}", s.handleGetTool)
	mux.HandleFunc("PUT /tools/{tool_id}", s.handleUpdateTool)
	mux.HandleFunc("DELETE /tools/{tool_id}", s.handleDeleteTool)

	mux.HandleFunc("GET /openapi.json", s.handleOpenAPI)
	mux.Handle("GET /docs", http.RedirectHandler("/openapi.json", http.StatusTemporaryRedirect))

	if s.opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.opts.MetricsHandler)
	}
	if s.opts.MCPHandler != nil {
		mux.Handle("/mcp", s.opts.MCPHandler)
	}

	// Known paths hit with an unsupported method.
	mux.Handle("/{$}", methodNotAllowed("GET"))
	mux.Handle("/health", methodNotAllowed("GET"))
	mux.Handle("/tools", methodNotAllowed("GET", "POST"))
	mux.Handle("/tools/{tool_id}", methodNotAllowed("GET", "PUT", "DELETE"))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	return mux
}

func methodNotAllowed(allowed ...string) http.Handler {
	allow := strings.Join(allowed, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close releases background resources held by the middleware.
func (s *Server) Close() {
	s.security.Close()
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down HTTP server", "timeout", shutdownTimeout)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		s.logger.Info("HTTP server stopped")
		return nil
	}
}
