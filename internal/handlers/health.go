package handlers

import (
	"context"
	"net/http"
	"time"

	"docuchat/internal/contextutil"
)

// StoreChecker reports whether the external chunk store is reachable and its
// collection exists. Implemented by chunkstore.QdrantStore.
type StoreChecker interface {
	CollectionExists(ctx context.Context) (bool, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              StoreChecker
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store StoreChecker) *HealthHandler {
	return &HealthHandler{
		store:              store,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/v1/health.
//
// swagger:route GET /api/v1/health health healthCheck
//
// # Health check endpoint
//
// Returns 200 OK when the chunk store is reachable, 503 otherwise.
//
// responses:
//
//	'200':
//	  description: System is healthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	exists, err := h.store.CollectionExists(checkCtx)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "chunk store health check failed", "error", err)
		checks["chunk_store"] = "error"
		issues = append(issues, "chunk_store_unavailable")
	case !exists:
		logger.WarnContext(ctx, "chunk store collection does not exist")
		checks["chunk_store"] = "error"
		issues = append(issues, "collection_missing")
	default:
		checks["chunk_store"] = "ok"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}
