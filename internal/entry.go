// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/inkwell/internal/api"
	"github.com/starford/inkwell/internal/mcpserver"
	"github.com/starford/inkwell/internal/postservice"
	"github.com/starford/inkwell/internal/sse"
	"github.com/starford/inkwell/internal/storage"
)

// setup validates options and builds the logger and storage backend shared
// by the HTTP and MCP entry points.
func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOut: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", cfg.App.Mode),
		slog.String("backend", cfg.GitHub.Backend),
		slog.String("repository", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo),
		slog.String("branch", cfg.GitHub.Branch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if app.backend == nil {
		b, err := newBackend(cfg.GitHub)
		if err != nil {
			return nil, nil, fmt.Errorf("init storage: %w", err)
		}
		app.backend = b
	}
	return app, logger, nil
}

func newBackend(cfg GitHubConfig) (storage.Backend, error) {
	if cfg.Backend == BackendMemory {
		return storage.NewMemory(cfg.Owner, cfg.Repo, cfg.Branch), nil
	}
	return storage.NewGitHub(storage.GitHubOptions{
		Token:   cfg.Token,
		Owner:   cfg.Owner,
		Repo:    cfg.Repo,
		Branch:  cfg.Branch,
		BaseURL: cfg.APIURL,
	})
}

// newHandler builds the full HTTP handler: health checks plus the API
// mounted under /api.
func newHandler(cfg *Config, svc *postservice.Service, broker *sse.Broker) http.Handler {
	apiRouter := api.NewRouter(svc, api.RouterOptions{
		AuthEnabled:        cfg.Auth.AuthEnabled(),
		Token:              cfg.Auth.Token,
		SSE:                broker,
		MaxSubmissionBytes: cfg.Content.MaxSubmissionBytes,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)
	return r
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	broker := sse.NewBroker(30 * time.Second)
	defer broker.Close()

	svc := postservice.NewService(cfg.ServiceConfig(), app.backend, broker, logger)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHandler(cfg, svc, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
// Logs must not share stdout with the protocol, so they default to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}

	svc := postservice.NewService(app.config.ServiceConfig(), app.backend, nil, logger)

	logger.Info("Starting MCP server on stdio")
	errCh := make(chan error, 1)
	go func() { errCh <- mcpserver.New(svc).ServeStdio() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
