package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-doc-agent/internal/auth"
	"github.com/sha1n/mcp-doc-agent/internal/config"
)

const shutdownTimeout = 10 * time.Second

// StartHTTPServer serves the SSE transport and the HTTP API until ctx is done.
func StartHTTPServer(ctx context.Context, s *mcp.Server, c *Components, settings *config.Settings) error {
	srv, err := NewHTTPServer(s, c, settings)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening (HTTP)", "addr", srv.Addr, "auth_type", settings.Auth.Type)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// NewHTTPServer creates the HTTP server: the MCP SSE endpoint, the JSON API and,
// for the filesystem backend, the signed file endpoint.
func NewHTTPServer(s *mcp.Server, c *Components, settings *config.Settings) (*http.Server, error) {
	authMiddleware, err := auth.NewMiddleware(settings.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(authMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if s != nil {
		r.Handle("/sse", mcp.NewSSEHandler(func(*http.Request) *mcp.Server {
			return s
		}, nil))
	}

	if c != nil && c.Agent != nil {
		RegisterAPIRoutes(r, NewAPIHandler(c.Agent, slog.Default()))
	}
	if c != nil && c.Files != nil {
		r.Get("/files/*", FileHandler(c.Files))
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
