package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: is the daemon process running?
//   - Readiness probe: is a coordinator version active and the storage healthy?
type HealthHandler struct {
	rt Runtime
}

// NewHealthHandler creates a new health handler. rt may be nil, in which
// case readiness reports unhealthy.
func NewHealthHandler(rt Runtime) *HealthHandler {
	return &HealthHandler{rt: rt}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "offlinecache",
	}))
}

// ReadinessData is the payload of a successful readiness probe.
type ReadinessData struct {
	Version        string `json:"version"`
	Controlled     bool   `json:"controlled"`
	StorageLatency string `json:"storage_latency"`
}

// Readiness handles GET /health/ready.
//
// Returns 503 Service Unavailable until a coordinator version is active, or
// when the storage healthcheck fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.rt == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("runtime not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.rt.Healthcheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("storage unhealthy: "+err.Error()))
		return
	}
	latency := time.Since(start)

	if !h.rt.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no active coordinator version"))
		return
	}

	status := h.rt.Status()
	writeJSON(w, http.StatusOK, healthyResponse(ReadinessData{
		Version:        status.Active.ID,
		Controlled:     status.Controlled,
		StorageLatency: latency.String(),
	}))
}
