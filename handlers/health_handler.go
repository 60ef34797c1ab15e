package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/lunarspired/portfolio-chat/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Mode      string            `json:"mode,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db                 HealthChecker
	providerConfigured bool
	logger             *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db is nil when persistence is disabled.
func NewHealthHandler(db HealthChecker, providerConfigured bool, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:                 db,
		providerConfigured: providerConfigured,
		logger:             logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only; always 200 while the process is serving.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
// A missing database or provider key is reported but still ready, since chat
// degrades to the fallback reply. A configured database that fails its check is not.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	switch {
	case h.db == nil:
		checks["database"] = "not_configured"
	case h.checkDatabase(ctx) != nil:
		checks["database"] = "unhealthy"
		allHealthy = false
	default:
		checks["database"] = "healthy"
	}

	if h.providerConfigured {
		checks["provider"] = "configured"
	} else {
		checks["provider"] = "not_configured"
	}

	mode := "fallback"
	if h.db != nil && h.providerConfigured {
		mode = "rag"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Mode:      mode,
		Checks:    checks,
	}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		return err
	}
	return nil
}
