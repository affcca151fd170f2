package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sha1n/mcp-doc-agent/internal/agent"
	"github.com/sha1n/mcp-doc-agent/internal/domain"
	"github.com/sha1n/mcp-doc-agent/internal/index"
)

// APIAgent is the agent behavior served by the JSON API.
type APIAgent interface {
	Handle(ctx context.Context, query string) (agent.Response, error)
	Synchronize(ctx context.Context) (index.Status, error)
	IndexReady(ctx context.Context) (bool, error)
	IndexLoaded() bool
	Syncing() bool
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
}

// StatusResponse is the body of GET /v1/status.
type StatusResponse struct {
	Ready   bool `json:"ready"`
	Loaded  bool `json:"loaded"`
	Syncing bool `json:"syncing"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIHandler serves the JSON API.
type APIHandler struct {
	agent    APIAgent
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(a APIAgent, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{agent: a, validate: validator.New(), logger: logger}
}

// RegisterAPIRoutes mounts the API under /v1.
func RegisterAPIRoutes(r chi.Router, h *APIHandler) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", h.Ask)
		r.Post("/sync", h.Sync)
		r.Get("/status", h.Status)
	})
}

// Ask handles POST /v1/ask. Failed actions still return the rendered response.
func (h *APIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	resp, err := h.agent.Handle(r.Context(), req.Query)
	if err != nil {
		h.logger.Warn("Ask failed", "error", err)
	}
	h.respondJSON(w, statusFor(err), resp)
}

// Sync handles POST /v1/sync.
func (h *APIHandler) Sync(w http.ResponseWriter, r *http.Request) {
	status, err := h.agent.Synchronize(r.Context())
	switch {
	case errors.Is(err, agent.ErrSyncInProgress):
		h.respondError(w, http.StatusConflict, "synchronization already in progress", err)
	case errors.Is(err, index.ErrEmptyCorpus), errors.Is(err, index.ErrNoDocumentsLoaded):
		h.respondError(w, http.StatusUnprocessableEntity, "nothing to index", err)
	case err != nil:
		h.respondError(w, statusFor(err), "synchronization failed", err)
	default:
		h.respondJSON(w, http.StatusOK, status)
	}
}

// Status handles GET /v1/status.
func (h *APIHandler) Status(w http.ResponseWriter, r *http.Request) {
	ready, err := h.agent.IndexReady(r.Context())
	if err != nil {
		h.respondError(w, statusFor(err), "failed to check index", err)
		return
	}
	h.respondJSON(w, http.StatusOK, StatusResponse{Ready: ready, Loaded: h.agent.IndexLoaded(), Syncing: h.agent.Syncing()})
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrMissingParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStorage), errors.Is(err, domain.ErrModel):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("Failed to write response", "error", err)
	}
}

func (h *APIHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	h.logger.Warn(message, "status", status, "error", err)
	h.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message + ": " + err.Error(),
	})
}
