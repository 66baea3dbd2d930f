package core

import "fmt"

// Error codes used in structured error responses.
const (
	ErrCodeSameStatus        = "same_status"
	ErrCodeNoSuchEdge        = "no_such_edge"
	ErrCodeRoleNotAuthorized = "role_not_authorized"
	ErrCodeNotAssigned       = "not_assigned"
	ErrCodeWrongStatus       = "wrong_status"
	ErrCodeUnknownTechnician = "unknown_technician"
	ErrCodeWrongRole         = "wrong_role"
	ErrCodeValidationError   = "validation_error"
	ErrCodeNotFound          = "not_found"
	ErrCodeNotAuthorized     = "not_authorized"
	ErrCodeConflict          = "conflict"
	ErrCodeInternalError     = "internal_error"
)

// Error is a structured, cause-tagged error. Every validation or policy
// denial in the service is reported as one of these; the API layer maps
// the code to an HTTP status.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewValidationError(message string, details map[string]any) *Error {
	return &Error{
		Code:    ErrCodeValidationError,
		Message: message,
		Details: details,
	}
}

func NewNotFoundError(resourceType, resourceID string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s '%s' not found.", resourceType, resourceID),
		Details: map[string]any{
			"resource_type": resourceType,
			"resource_id":   resourceID,
		},
	}
}

func NewNotAuthorizedError(message string, details map[string]any) *Error {
	return &Error{
		Code:    ErrCodeNotAuthorized,
		Message: message,
		Details: details,
	}
}

// NewNotAssignedError reports that a technician, although generally
// authorized for the edge, is not the one assigned to this job.
func NewNotAssignedError(jobID, technicianID string) *Error {
	return &Error{
		Code:    ErrCodeNotAssigned,
		Message: fmt.Sprintf("Technician '%s' is not assigned to job '%s'.", technicianID, jobID),
		Details: map[string]any{
			"job_id":        jobID,
			"technician_id": technicianID,
		},
	}
}

// NewWrongStatusError reports a compound-operation precondition failure:
// the job is not in a status the operation requires.
func NewWrongStatusError(op string, current JobStatus, required ...JobStatus) *Error {
	return &Error{
		Code: ErrCodeWrongStatus,
		Message: fmt.Sprintf("Cannot %s a job in status %s; requires one of %v.",
			op, current, required),
		Details: map[string]any{
			"operation": op,
			"current":   current,
			"required":  required,
		},
	}
}

func NewUnknownTechnicianError(technicianID string) *Error {
	return &Error{
		Code:    ErrCodeUnknownTechnician,
		Message: fmt.Sprintf("Technician '%s' does not exist.", technicianID),
		Details: map[string]any{"technician_id": technicianID},
	}
}

// NewWrongRoleError reports that a referenced user exists but does not
// hold the required role.
func NewWrongRoleError(userID string, got, want Role) *Error {
	return &Error{
		Code:    ErrCodeWrongRole,
		Message: fmt.Sprintf("User '%s' holds role %s, not %s.", userID, got, want),
		Details: map[string]any{
			"user_id": userID,
			"role":    got,
			"want":    want,
		},
	}
}

// NewConflictError reports a lost-update conflict on a job write. The
// caller should re-fetch the job and retry the operation.
func NewConflictError(jobID string) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Message: fmt.Sprintf("Job '%s' was modified concurrently; re-fetch and retry.", jobID),
		Details: map[string]any{"job_id": jobID},
	}
}

func NewInternalError(message string) *Error {
	return &Error{
		Code:    ErrCodeInternalError,
		Message: message,
	}
}
