package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-doc-agent/internal/agent"
	"github.com/sha1n/mcp-doc-agent/internal/index"
)

// Agent is the behavior the tools need.
type Agent interface {
	Handle(ctx context.Context, query string) (agent.Response, error)
	FindFile(ctx context.Context, keywords string) (agent.Response, error)
	ListFolder(ctx context.Context, folder string) (agent.Response, error)
	Ask(ctx context.Context, question string) (agent.Response, error)
	Synchronize(ctx context.Context) (index.Status, error)
	IndexReady(ctx context.Context) (bool, error)
	IndexLoaded() bool
	Syncing() bool
}

// AskArgument is the input of the ask tool.
type AskArgument struct {
	Query string `json:"query" jsonschema:"Natural language request: ask for a document, a category listing or a question about document content"`
}

// FindFileArgument is the input of the find_file tool.
type FindFileArgument struct {
	Keywords string `json:"keywords" jsonschema:"Space separated keywords that must all appear in the document path"`
}

// ListFolderArgument is the input of the list_folder tool.
type ListFolderArgument struct {
	Folder string `json:"folder" jsonschema:"Category folder name, or a file extension such as pdf or png"`
}

// AnswerArgument is the input of the answer_question tool.
type AnswerArgument struct {
	Question string `json:"question" jsonschema:"Question answered from the indexed document content"`
}

// NoArgument is the input of tools without parameters.
type NoArgument struct{}

// Handlers implements the MCP tools on top of an Agent.
type Handlers struct {
	agent  Agent
	logger *slog.Logger
}

// NewHandlers creates tool handlers.
func NewHandlers(a Agent, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{agent: a, logger: logger}
}

// Ask routes a free-form query through the intent router.
func (h *Handlers) Ask(ctx context.Context, _ *mcp.CallToolRequest, args AskArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}
	resp, err := h.agent.Handle(ctx, args.Query)
	h.logFailure("ask", err)
	return responseResult(resp, true), nil, nil
}

// FindFile looks documents up by keywords without classification.
func (h *Handlers) FindFile(ctx context.Context, _ *mcp.CallToolRequest, args FindFileArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Keywords) == "" {
		return errorResult("Keywords cannot be empty"), nil, nil
	}
	resp, err := h.agent.FindFile(ctx, args.Keywords)
	h.logFailure("find_file", err)
	return responseResult(resp, false), nil, nil
}

// ListFolder lists a category without classification.
func (h *Handlers) ListFolder(ctx context.Context, _ *mcp.CallToolRequest, args ListFolderArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Folder) == "" {
		return errorResult("Folder cannot be empty"), nil, nil
	}
	resp, err := h.agent.ListFolder(ctx, args.Folder)
	h.logFailure("list_folder", err)
	return responseResult(resp, false), nil, nil
}

// AnswerQuestion answers from the semantic index without classification.
func (h *Handlers) AnswerQuestion(ctx context.Context, _ *mcp.CallToolRequest, args AnswerArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Question) == "" {
		return errorResult("Question cannot be empty"), nil, nil
	}
	resp, err := h.agent.Ask(ctx, args.Question)
	h.logFailure("answer_question", err)
	if resp.Kind == agent.KindWarning {
		return errorResult(resp.Text), nil, nil
	}
	return responseResult(resp, false), nil, nil
}

// SyncIndex synchronizes the semantic index with the corpus.
func (h *Handlers) SyncIndex(ctx context.Context, _ *mcp.CallToolRequest, _ NoArgument) (*mcp.CallToolResult, any, error) {
	status, err := h.agent.Synchronize(ctx)
	switch {
	case errors.Is(err, agent.ErrSyncInProgress):
		return errorResult("An index synchronization is already running. Please try again later."), nil, nil
	case errors.Is(err, index.ErrEmptyCorpus):
		return errorResult("Synchronization failed: " + index.MsgEmpty), nil, nil
	case err != nil:
		h.logFailure("sync_index", err)
		return errorResult(fmt.Sprintf("Synchronization failed: %s", err)), nil, nil
	}
	return textResult(FormatStatus(status)), nil, nil
}

// IndexStatus reports whether questions can be answered.
func (h *Handlers) IndexStatus(ctx context.Context, _ *mcp.CallToolRequest, _ NoArgument) (*mcp.CallToolResult, any, error) {
	ready, err := h.agent.IndexReady(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to check the index: %s", err)), nil, nil
	}

	var sb strings.Builder
	switch {
	case ready && h.agent.IndexLoaded():
		sb.WriteString("The search index is ready and loaded in memory.")
	case ready:
		sb.WriteString("The search index is ready. It is loaded on the first question.")
	default:
		sb.WriteString(agent.MsgIndexNotReady)
	}
	if h.agent.Syncing() {
		sb.WriteString("\nA synchronization is in progress.")
	}
	return textResult(sb.String()), nil, nil
}

func (h *Handlers) logFailure(tool string, err error) {
	if err != nil {
		h.logger.Warn("Tool call failed", "tool", tool, "error", err)
	}
}

// FormatStatus renders a synchronization outcome for people.
func FormatStatus(s index.Status) string {
	if !s.Changed {
		return capitalize(s.Message) + "."
	}
	msg := fmt.Sprintf("Index rebuilt from %d documents (%d chunks).", s.Documents, s.Chunks)
	if s.Skipped > 0 {
		msg += fmt.Sprintf(" %d documents could not be read and were skipped.", s.Skipped)
	}
	return msg
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// responseResult renders an agent response. The detected intent is appended when routed.
func responseResult(resp agent.Response, showIntent bool) *mcp.CallToolResult {
	text := resp.Text
	if showIntent && resp.Decision.Intent != "" {
		text += fmt.Sprintf("\n\n_(intent: %s)_", resp.Decision.Intent)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: resp.IsError(),
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// RegisterTools registers every document agent tool with an MCP server.
func RegisterTools(server *mcp.Server, a Agent, logger *slog.Logger) {
	h := NewHandlers(a, logger)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a natural language request: retrieves a named document, lists a document category, or answers a question from document content",
	}, h.Ask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_file",
		Description: "Find documents whose path contains all the given keywords and return time-limited download links",
	}, h.FindFile)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_folder",
		Description: "List the documents in a category folder, or every document with a given extension",
	}, h.ListFolder)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "answer_question",
		Description: "Answer a question using the content of the indexed documents, citing sources",
	}, h.AnswerQuestion)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_index",
		Description: "Synchronize the search index with the document corpus; rebuilds only when documents changed",
	}, h.SyncIndex)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report whether the search index is available",
	}, h.IndexStatus)
}
