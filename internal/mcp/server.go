// Package mcp exposes the document agent as MCP tools.
package mcp

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string
	// Agent backs the tools. The server has no tools when nil.
	Agent  Agent
	Logger *slog.Logger
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &mcp.ServerOptions{
		Instructions: "Retrieve documents from the corpus, list document categories and answer questions from document content.",
	})

	if cfg.Agent != nil {
		RegisterTools(s, cfg.Agent, cfg.Logger)
	}
	return s
}
