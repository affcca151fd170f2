package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-doc-agent/internal/config"
	mcputil "github.com/sha1n/mcp-doc-agent/internal/mcp"
	"github.com/spf13/pflag"
)

// ServerName is the MCP implementation name.
const ServerName = "doc-agent"

// RunParams contains dependencies for the run functions
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	BuildComponents   func(context.Context, *config.Settings) (*Components, error)
	StartHTTPServer   func(context.Context, *mcp.Server, *Components, *config.Settings) error
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
	LogOutput         io.Writer     // Optional: defaults to stderr
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:    config.LoadSettingsWithFlags,
		ValidSettings:   config.ValidateSettings,
		BuildComponents: BuildComponents,
		StartHTTPServer: StartHTTPServer,
	}
}

// setup loads and validates settings, configures logging and wires the components.
func setup(ctx context.Context, params RunParams, flags *pflag.FlagSet) (*config.Settings, *Components, error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Always log to stderr; stdout carries the stdio transport.
	out := params.LogOutput
	if out == nil {
		out = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(settings.LogLevel)})))
	config.Log(settings)

	c, err := params.BuildComponents(ctx, settings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build components: %w", err)
	}
	return settings, c, nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func closeComponents(c *Components) {
	if err := c.Close(); err != nil {
		slog.Error("Failed to close components", "error", err)
	}
}

// RunWithDeps serves MCP over stdio or SSE with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, c, err := setup(ctx, params, flags)
	if err != nil {
		return err
	}
	defer closeComponents(c)

	slog.Info("Starting document agent", "version", version)

	cfg := mcputil.ServerConfig{Name: ServerName, Version: version, Logger: slog.Default()}
	if c.Agent != nil {
		cfg.Agent = c.Agent
	}
	server := mcputil.CreateServer(cfg)

	if settings.Transport == config.TransportStdio {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return server.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
	return params.StartHTTPServer(ctx, server, c, settings)
}

// SyncWithDeps runs one index synchronization and prints its progress to out.
func SyncWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, out io.Writer) error {
	_, c, err := setup(ctx, params, flags)
	if err != nil {
		return err
	}
	defer closeComponents(c)

	c.Manager.OnProgress(func(step, total int, label string) {
		_, _ = fmt.Fprintf(out, "[%d/%d] %s\n", step, total, label)
	})

	status, err := c.Agent.SynchronizeWait(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}
	_, _ = fmt.Fprintln(out, mcputil.FormatStatus(status))
	return nil
}

// AskWithDeps runs one query through the agent and prints the rendered response.
func AskWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, query string, out io.Writer) error {
	_, c, err := setup(ctx, params, flags)
	if err != nil {
		return err
	}
	defer closeComponents(c)

	resp, err := c.Agent.Handle(ctx, query)
	_, _ = fmt.Fprintln(out, resp.Text)
	return err
}
