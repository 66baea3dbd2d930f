package core

import "time"

const (
	Version    = "0.3.0"
	TimeFormat = "2006-01-02T15:04:05.000Z"
)

// FormatTime formats a time as ISO 8601 UTC with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// NowFormatted returns the current time formatted as ISO 8601 UTC.
func NowFormatted() string {
	return FormatTime(time.Now())
}

// StatusHistoryEntry is one immutable audit record in a job's history.
// From is empty only on the creation entry. Entries are append-only;
// insertion order is chronological order.
type StatusHistoryEntry struct {
	From         JobStatus `json:"from,omitempty"`
	To           JobStatus `json:"to"`
	ActingUserID string    `json:"acting_user_id"`
	Notes        string    `json:"notes,omitempty"`
	Timestamp    string    `json:"timestamp"`
}

// Job is a customer service job. Status and StatusHistory are mutated
// only through the lifecycle service; every other write path must leave
// them untouched.
type Job struct {
	ID                 string               `json:"id"`
	Title              string               `json:"title"`
	CustomerName       string               `json:"customer_name"`
	CustomerEmail      string               `json:"customer_email,omitempty"`
	Address            string               `json:"address,omitempty"`
	Description        string               `json:"description,omitempty"`
	EstimatedCost      *float64             `json:"estimated_cost,omitempty"`
	ScheduledDate      string               `json:"scheduled_date,omitempty"`
	Status             JobStatus            `json:"status"`
	AssignedTechnician string               `json:"assigned_technician,omitempty"`
	StatusHistory      []StatusHistoryEntry `json:"status_history"`
	CompletedAt        string               `json:"completed_at,omitempty"`
	BilledAt           string               `json:"billed_at,omitempty"`
	CreatedAt          string               `json:"created_at"`
	UpdatedAt          string               `json:"updated_at,omitempty"`

	// Revision counts successful writes to this job. Persistence guards
	// every update with the revision the caller read, so concurrent
	// writers observe a conflict instead of overwriting each other.
	Revision int64 `json:"revision"`
}

// User is an account that acts on jobs.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateJobRequest is the request body for creating a job.
type CreateJobRequest struct {
	Title         string   `json:"title"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email,omitempty"`
	Address       string   `json:"address,omitempty"`
	Description   string   `json:"description,omitempty"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
	ScheduledDate string   `json:"scheduled_date,omitempty"`
}

// UpdateJobRequest carries non-status field edits. Nil pointers mean
// "leave unchanged". Status, history, assignee and derived timestamps are
// not representable here; the API layer rejects requests that try.
type UpdateJobRequest struct {
	Title         *string  `json:"title,omitempty"`
	CustomerName  *string  `json:"customer_name,omitempty"`
	CustomerEmail *string  `json:"customer_email,omitempty"`
	Address       *string  `json:"address,omitempty"`
	Description   *string  `json:"description,omitempty"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
	ScheduledDate *string  `json:"scheduled_date,omitempty"`
}

// TransitionRequest is the request body for a status transition.
type TransitionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// AssignRequest is the request body for assigning or reassigning a
// technician.
type AssignRequest struct {
	TechnicianID string `json:"technician_id"`
	Notes        string `json:"notes,omitempty"`
}

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HistoryResponse pairs a job's ordered status history with its current
// status.
type HistoryResponse struct {
	JobID   string               `json:"job_id"`
	Status  JobStatus            `json:"status"`
	History []StatusHistoryEntry `json:"history"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status        string      `json:"status"`
	Version       string      `json:"version"`
	Workflow      string      `json:"workflow"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	Store         StoreHealth `json:"store"`
}

// StoreHealth is the state-store portion of the health check.
type StoreHealth struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}
