// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/engram/engram/pkg/api/response"
	"github.com/engram/engram/pkg/memory"
	"github.com/engram/engram/pkg/storage"
)

// storagePingTimeout bounds the readiness probe so a hung backend cannot
// stall the endpoint.
const storagePingTimeout = 2 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	hub     *memory.Hub
	store   storage.Storage
	version string
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(hub *memory.Hub, store storage.Storage, version string) *HealthHandler {
	return &HealthHandler{
		hub:     hub,
		store:   store,
		version: version,
		started: time.Now(),
	}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness probe). Sessions run
// local-only through a persistence outage, so a degraded backend still
// reports ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil || h.store == nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]any{
			"ready": false,
		})
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"ready":   true,
		"storage": h.storageState(r.Context()),
	})
}

// Status handles the /status endpoint (detailed status).
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"storage":        h.storageState(r.Context()),
	}
	if h.hub != nil {
		stats := h.hub.Stats()
		status["sessions"] = stats.Sessions
		status["records"] = stats.Records
	}

	response.JSON(w, http.StatusOK, status)
}

func (h *HealthHandler) storageState(ctx context.Context) string {
	if h.store == nil {
		return "unconfigured"
	}

	ctx, cancel := context.WithTimeout(ctx, storagePingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		return "degraded"
	}
	return "ok"
}
