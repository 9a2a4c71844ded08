package handlers

import (
	"net/http"
	"time"

	"github.com/repstack/repstack/internal/reperrors"
	"github.com/repstack/repstack/internal/server/responses"
	"github.com/repstack/repstack/internal/version"
)

// MonitoringHandlers contains health-related HTTP handlers.
type MonitoringHandlers struct {
	storeName string
	adapter   *reperrors.HTTPAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(storeName string, adapter *reperrors.HTTPAdapter) *MonitoringHandlers {
	return &MonitoringHandlers{storeName: storeName, adapter: adapter}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Store:     h.storeName,
	}

	if err := writeJSON(w, http.StatusOK, health); err != nil {
		h.adapter.WriteError(w, r, reperrors.Wrap(err, reperrors.CategoryInternal, "write health response").Build())
	}
}
