package api

import (
	"net/http"
	"time"

	respond "github.com/mycelian/mycelian-journal/internal/api/respond"
)

// ServiceHealth is the cached health the handler reports.
type ServiceHealth interface {
	IsHealthy() bool
	Components() map[string]bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	health ServiceHealth
}

// NewHealthHandler creates a new health handler; nil health reports healthy.
func NewHealthHandler(h ServiceHealth) *HealthHandler { return &HealthHandler{health: h} }

type degradable interface {
	Degraded() bool
}

// CheckHealth handles GET /v0/health.
// Always returns 200; body reports healthy, degraded or unhealthy.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	components := map[string]bool{}
	if h.health != nil {
		if !h.health.IsHealthy() {
			status = "unhealthy"
		} else if d, ok := h.health.(degradable); ok && d.Degraded() {
			status = "degraded"
		}
		components = h.health.Components()
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
