package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldserve/jobtrack-backend/internal/core"
)

// UserHandler handles user-related HTTP endpoints.
type UserHandler struct {
	svc core.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc core.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create handles POST /v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req core.CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.svc.CreateUser(r.Context(), &req, ActorFrom(r.Context()))
	if err != nil {
		HandleError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/users/"+user.ID)
	WriteJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// Get handles GET /v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}
