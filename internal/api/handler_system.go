package api

import (
	"net/http"

	"github.com/fieldserve/jobtrack-backend/internal/core"
)

// SystemHandler handles health and state-machine introspection endpoints.
type SystemHandler struct {
	svc core.Service
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(svc core.Service) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// Health handles GET /v1/healthz
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Health(r.Context())
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	WriteJSON(w, status, resp)
}

// StateMachine handles GET /v1/state-machine: the full transition table
// with per-role reachable statuses.
func (h *SystemHandler) StateMachine(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"version":  core.Version,
		"statuses": h.svc.DescribeStateMachine(),
	})
}
