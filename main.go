// DevOps Tools API - an HTTP service managing a catalog of DevOps tools
// Serves CRUD endpoints under /tools, with optional MCP tools and Prometheus metrics
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/olgasafonova/devops-tools-api/internal/config"
	"github.com/olgasafonova/devops-tools-api/internal/server"
	"github.com/olgasafonova/devops-tools-api/internal/store"
	"github.com/olgasafonova/devops-tools-api/internal/validation"
	"github.com/olgasafonova/devops-tools-api/tools"
	"github.com/olgasafonova/devops-tools-api/tracing"
)

const (
	ServerName    = "devops-tools-api"
	ServerVersion = "1.0.0"
)

// recoverPanic logs a panic that escaped a top-level goroutine and turns it
// into an error
func recoverPanic(logger *slog.Logger, operation string, errp *error) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(debug.Stack()))
		*errp = fmt.Errorf("%s: panic: %v", operation, r)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string
	v := config.New()

	root := &cobra.Command{
		Use:           ServerName,
		Short:         "HTTP API for managing a catalog of DevOps tools",
		Version:       ServerVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.BindFlags(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	config.RegisterFlags(root.Flags())
	root.Flags().StringVar(&configFile, "config", "", "path to a YAML config file")

	root.AddCommand(newClientCommand())
	return root
}

// newLogger writes text logs to stderr at the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}

// tracingConfig maps server settings onto the exporter setup.
func tracingConfig(cfg *config.Config) tracing.Config {
	return tracing.Config{
		ServiceName:    ServerName,
		ServiceVersion: ServerVersion,
		Environment:    cfg.Environment,
		Enabled:        cfg.TracingActive(),
		Endpoint:       cfg.TracingEndpoint,
		SampleRatio:    cfg.TracingSampleRatio,
	}
}

func runServer(ctx context.Context, cfg *config.Config) (err error) {
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	defer recoverPanic(logger, "serve", &err)

	shutdownTracing, err := tracing.Setup(ctx, tracingConfig(cfg))
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if shutdownErr := shutdownTracing(context.Background()); shutdownErr != nil {
			logger.Warn("Tracing shutdown failed", "error", shutdownErr)
		}
	}()

	validator, err := validation.NewValidator()
	if err != nil {
		return err
	}
	st := store.New(store.WithLogger(logger))

	opts := server.Options{
		Security: server.SecurityConfig{
			RateLimit:   cfg.RateLimit,
			MaxBodySize: cfg.MaxBodyBytes,
		},
		Version: ServerVersion,
	}
	if cfg.MetricsEnabled {
		opts.MetricsHandler = promhttp.Handler()
	}
	if cfg.MCPEnabled {
		registry := tools.NewHandlerRegistry(st, validator, logger)
		opts.MCPHandler = tools.NewHTTPHandler(tools.NewServer(registry, ServerVersion))
	}

	srv := server.New(st, validator, logger, opts)
	defer srv.Close()

	logger.Info("Starting DevOps Tools API",
		"name", ServerName,
		"version", ServerVersion,
		"addr", cfg.Addr,
		"mcp", cfg.MCPEnabled,
		"metrics", cfg.MetricsEnabled,
		"rate_limit", cfg.RateLimit,
		"tracing", cfg.TracingActive(),
	)

	err = srv.ListenAndServe(ctx, cfg.Addr, cfg.ShutdownTimeout)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err)
		return err
	}
	return nil
}
