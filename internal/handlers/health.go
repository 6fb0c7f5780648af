package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"compdb/internal/contextutil"
	"compdb/internal/registry"
)

// RegistryReader is the registry view the health check needs.
type RegistryReader interface {
	Entries() []registry.Entry
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              registry.Store
	registry           RegistryReader
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store registry.Store, reg RegistryReader) *HealthHandler {
	return &HealthHandler{
		store:              store,
		registry:           reg,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK if healthy or degraded, 503 Service Unavailable if the
// registry store cannot be read.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Returns the health status of the registry store and the registered databases.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy or degraded
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Create context with timeout for health checks
	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	status := "healthy"
	httpStatus := http.StatusOK

	if h.checkStore(checkCtx, logger) {
		checks["registry_store"] = "ok"
	} else {
		checks["registry_store"] = "error"
		issues = append(issues, "registry_store_unavailable")
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	// Databases whose file vanished are reported but do not fail the check
	stale := 0
	for _, e := range h.registry.Entries() {
		if e.Stale() {
			stale++
		}
	}
	if stale == 0 {
		checks["databases"] = "ok"
	} else {
		checks["databases"] = "stale"
		issues = append(issues, "stale_databases")
		if status == "healthy" {
			status = "degraded"
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if len(issues) > 0 {
		response.Issues = issues
	}

	writeJSON(w, ctx, httpStatus, response)
}

// checkStore checks if the registry store is readable.
func (h *HealthHandler) checkStore(ctx context.Context, logger *slog.Logger) bool {
	if _, err := h.store.Load(ctx); err != nil {
		logger.WarnContext(ctx, "registry store health check failed", "error", err)
		return false
	}
	return true
}
