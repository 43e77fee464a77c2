package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"docuchat/internal/contextutil"
	"docuchat/internal/query"
	"docuchat/internal/service"
)

// QueryHandler handles HTTP requests for retrieval-augmented queries.
type QueryHandler struct {
	engine query.Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine query.Engine) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// QueryRequest represents the HTTP request payload for queries.
//
// swagger:model QueryRequest
type QueryRequest struct {
	Query string `json:"query"`
}

// ServeHTTP handles POST /api/v1/query.
//
// Runs the query through the retrieval core under the active profile and
// returns the answer with retrieval provenance.
//
// swagger:route POST /api/v1/query query runQuery
//
// # Ask a question
//
// responses:
//
//	'200':
//	  description: Answer with retrieval metadata
//	'400':
//	  description: Missing query text
//	'502':
//	  description: Embedding provider or LLM unavailable
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.engine.Query(ctx, req.Query)
	if err != nil {
		h.handleQueryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *QueryHandler) handleQueryError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch {
	case errors.Is(err, service.ErrValidation):
		logger.WarnContext(ctx, "invalid query", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUpstream):
		logger.ErrorContext(ctx, "upstream failure", "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
	case errors.Is(err, service.ErrIntegrity):
		logger.ErrorContext(ctx, "registry integrity fault", "error", err)
		writeError(w, http.StatusInternalServerError, "Profile registry is in an inconsistent state")
	default:
		logger.ErrorContext(ctx, "query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process query")
	}
}
