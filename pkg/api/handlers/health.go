package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/telebox/pkg/record"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Can uploads reach the Bot API?
//   - Store health: Reachability of the record store
type HealthHandler struct {
	store     record.Store
	storeType string
	ready     func() bool
}

// NewHealthHandler creates a health handler. store may be nil when records
// are disabled. ready reports whether the Bot API credentials are set; a
// nil ready is never ready.
func NewHealthHandler(store record.Store, storeType string, ready func() bool) *HealthHandler {
	return &HealthHandler{store: store, storeType: storeType, ready: ready}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "telebox",
	}))
}

// Readiness handles GET /health/ready. It returns 503 until a bot token and
// chat are configured.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil || !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("telegram not configured"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"store": h.storeType,
	}))
}

// StoreHealth represents the health status of the record store.
type StoreHealth struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Stores handles GET /health/stores. A disabled store is reported healthy
// since retrieval then serves without policy.
func (h *HealthHandler) Stores(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, healthyResponse(StoreHealth{Type: "none", Status: "disabled"}))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Healthcheck(ctx)
	health := StoreHealth{
		Type:    h.storeType,
		Status:  "healthy",
		Latency: time.Since(start).String(),
	}

	if err != nil {
		health.Status = "unhealthy"
		health.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(health))
		return
	}
	writeJSON(w, http.StatusOK, healthyResponse(health))
}
