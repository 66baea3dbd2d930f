package api

import (
	"encoding/json"
	"net/http"

	"github.com/fieldserve/jobtrack-backend/internal/core"
)

// ErrorResponse wraps a structured error for JSON serialization.
type ErrorResponse struct {
	Error *core.Error `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes a structured error response.
func WriteError(w http.ResponseWriter, status int, err *core.Error) {
	WriteJSON(w, status, ErrorResponse{Error: err})
}

// statusForCode maps error codes to HTTP status codes. Policy and
// precondition denials are conflicts; standing and role denials are
// forbidden.
func statusForCode(code string) int {
	switch code {
	case core.ErrCodeValidationError:
		return http.StatusUnprocessableEntity
	case core.ErrCodeNotFound, core.ErrCodeUnknownTechnician:
		return http.StatusNotFound
	case core.ErrCodeNotAuthorized, core.ErrCodeRoleNotAuthorized,
		core.ErrCodeNotAssigned, core.ErrCodeWrongRole:
		return http.StatusForbidden
	case core.ErrCodeSameStatus, core.ErrCodeNoSuchEdge,
		core.ErrCodeWrongStatus, core.ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleError maps an error to the appropriate HTTP status and writes it.
func HandleError(w http.ResponseWriter, err error) {
	if coreErr, ok := err.(*core.Error); ok {
		WriteError(w, statusForCode(coreErr.Code), coreErr)
		return
	}
	WriteError(w, http.StatusInternalServerError, core.NewInternalError(err.Error()))
}
