package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fieldserve/jobtrack-backend/internal/core"
)

// JobHandler handles job-related HTTP endpoints.
type JobHandler struct {
	svc core.Service
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(svc core.Service) *JobHandler {
	return &JobHandler{svc: svc}
}

// Create handles POST /v1/jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req core.CreateJobRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, err := h.svc.CreateJob(r.Context(), &req, ActorFrom(r.Context()))
	if err != nil {
		HandleError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/jobs/"+job.ID)
	WriteJSON(w, http.StatusCreated, map[string]any{"job": job})
}

// Get handles GET /v1/jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.svc.GetJob(r.Context(), id, ActorFrom(r.Context()))
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"job": job})
}

// List handles GET /v1/jobs?status=...&limit=...
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	status, err := core.ParseJobStatus(r.URL.Query().Get("status"))
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity,
			core.NewValidationError("The 'status' query parameter must be a valid job status.",
				map[string]any{"received": r.URL.Query().Get("status")}))
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	jobs, listErr := h.svc.ListJobsByStatus(r.Context(), status, limit, ActorFrom(r.Context()))
	if listErr != nil {
		HandleError(w, listErr)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

// Update handles PATCH /v1/jobs/{id}
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest,
			core.NewValidationError("Failed to read request body.", nil))
		return
	}

	req, parseErr := core.ParseUpdateJobRequest(body)
	if parseErr != nil {
		WriteError(w, http.StatusUnprocessableEntity, parseErr)
		return
	}

	job, updateErr := h.svc.UpdateJobDetails(r.Context(), id, req, ActorFrom(r.Context()))
	if updateErr != nil {
		HandleError(w, updateErr)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"job": job})
}

// Transition handles POST /v1/jobs/{id}/transitions
func (h *JobHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req core.TransitionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	requested, err := core.ParseJobStatus(req.Status)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity,
			core.NewValidationError("The 'status' field must be a valid job status.",
				map[string]any{"field": "status", "received": req.Status}))
		return
	}

	job, transErr := h.svc.TransitionStatus(r.Context(), id, requested, ActorFrom(r.Context()), req.Notes)
	if transErr != nil {
		HandleError(w, transErr)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"job":     job,
		"message": "Job is now " + string(job.Status) + ".",
	})
}

// Assign handles POST /v1/jobs/{id}/assignee
func (h *JobHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req core.AssignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TechnicianID == "" {
		WriteError(w, http.StatusUnprocessableEntity,
			core.NewValidationError("The 'technician_id' field is required.",
				map[string]any{"field": "technician_id"}))
		return
	}

	job, err := h.svc.AssignTechnician(r.Context(), id, req.TechnicianID, ActorFrom(r.Context()), req.Notes)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"job": job})
}

// Reassign handles PUT /v1/jobs/{id}/assignee
func (h *JobHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req core.AssignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TechnicianID == "" {
		WriteError(w, http.StatusUnprocessableEntity,
			core.NewValidationError("The 'technician_id' field is required.",
				map[string]any{"field": "technician_id"}))
		return
	}

	job, err := h.svc.ReassignTechnician(r.Context(), id, req.TechnicianID, ActorFrom(r.Context()), req.Notes)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"job": job})
}

// History handles GET /v1/jobs/{id}/history
func (h *JobHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp, err := h.svc.StatusHistory(r.Context(), id, ActorFrom(r.Context()))
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest,
			core.NewValidationError("Invalid JSON in request body.", nil))
		return false
	}
	return true
}
