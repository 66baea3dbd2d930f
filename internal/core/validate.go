package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// immutableJobFields are fields that only the lifecycle operations may
// write. An update request carrying any of them is rejected outright
// rather than silently stripped.
var immutableJobFields = []string{
	"status", "status_history", "assigned_technician",
	"completed_at", "billed_at", "revision", "id", "created_at",
}

// ParseUpdateJobRequest parses raw JSON into an UpdateJobRequest,
// rejecting attempts to smuggle status or history writes through the
// details-edit path.
func ParseUpdateJobRequest(data []byte) (*UpdateJobRequest, *Error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewValidationError("Invalid JSON in request body.", nil)
	}
	for _, f := range immutableJobFields {
		if _, ok := raw[f]; ok {
			return nil, NewValidationError(
				fmt.Sprintf("The '%s' field cannot be modified through this operation.", f),
				map[string]any{"field": f},
			)
		}
	}
	var req UpdateJobRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, NewValidationError("Invalid JSON in request body.", nil)
	}
	return &req, nil
}

// ValidateCreateJobRequest checks required fields and field formats for
// job creation.
func ValidateCreateJobRequest(req *CreateJobRequest) *Error {
	if req.Title == "" {
		return requiredField("title")
	}
	if req.CustomerName == "" {
		return requiredField("customer_name")
	}
	if req.CustomerEmail != "" {
		if err := validateEmail("customer_email", req.CustomerEmail); err != nil {
			return err
		}
	}
	if req.EstimatedCost != nil {
		if err := validateCost("estimated_cost", *req.EstimatedCost); err != nil {
			return err
		}
	}
	if req.ScheduledDate != "" {
		if err := validateDate("scheduled_date", req.ScheduledDate); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUpdateJobRequest checks field formats for a details update.
func ValidateUpdateJobRequest(req *UpdateJobRequest) *Error {
	if req.Title != nil && *req.Title == "" {
		return NewValidationError("The 'title' field must not be empty.",
			map[string]any{"field": "title"})
	}
	if req.CustomerName != nil && *req.CustomerName == "" {
		return NewValidationError("The 'customer_name' field must not be empty.",
			map[string]any{"field": "customer_name"})
	}
	if req.CustomerEmail != nil && *req.CustomerEmail != "" {
		if err := validateEmail("customer_email", *req.CustomerEmail); err != nil {
			return err
		}
	}
	if req.EstimatedCost != nil {
		if err := validateCost("estimated_cost", *req.EstimatedCost); err != nil {
			return err
		}
	}
	if req.ScheduledDate != nil && *req.ScheduledDate != "" {
		if err := validateDate("scheduled_date", *req.ScheduledDate); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCreateUserRequest checks required fields for user creation.
func ValidateCreateUserRequest(req *CreateUserRequest) *Error {
	if req.Name == "" {
		return requiredField("name")
	}
	if req.Email == "" {
		return requiredField("email")
	}
	if err := validateEmail("email", req.Email); err != nil {
		return err
	}
	if _, err := ParseRole(req.Role); err != nil {
		return NewValidationError(
			fmt.Sprintf("The 'role' field must be one of ADMIN, OFFICE_MANAGER, TECHNICIAN. Got: %q", req.Role),
			map[string]any{"field": "role", "received": req.Role},
		)
	}
	return nil
}

func requiredField(name string) *Error {
	return NewValidationError(
		fmt.Sprintf("The '%s' field is required.", name),
		map[string]any{"field": name, "validation": "required"},
	)
}

func validateEmail(field, value string) *Error {
	if !emailPattern.MatchString(value) {
		return NewValidationError(
			fmt.Sprintf("The '%s' field must be a valid email address. Got: %q", field, value),
			map[string]any{"field": field, "received": value},
		)
	}
	return nil
}

func validateCost(field string, value float64) *Error {
	if value < 0 {
		return NewValidationError(
			fmt.Sprintf("The '%s' field must be non-negative. Got: %v", field, value),
			map[string]any{"field": field, "received": value},
		)
	}
	return nil
}

func validateDate(field, value string) *Error {
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return NewValidationError(
			fmt.Sprintf("The '%s' field must be an ISO 8601 timestamp. Got: %q", field, value),
			map[string]any{"field": field, "expected": "ISO 8601 (RFC 3339)", "received": value},
		)
	}
	return nil
}
