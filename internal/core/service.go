package core

import "context"

// JobService is the full set of job lifecycle operations. Every status
// write in the system goes through TransitionStatus, AssignTechnician or
// ReassignTechnician; there is no other mutation path.
type JobService interface {
	CreateJob(ctx context.Context, req *CreateJobRequest, actor *User) (*Job, error)
	GetJob(ctx context.Context, jobID string, actor *User) (*Job, error)
	ListJobsByStatus(ctx context.Context, status JobStatus, limit int, actor *User) ([]*Job, error)
	UpdateJobDetails(ctx context.Context, jobID string, req *UpdateJobRequest, actor *User) (*Job, error)
	TransitionStatus(ctx context.Context, jobID string, requested JobStatus, actor *User, notes string) (*Job, error)
	AssignTechnician(ctx context.Context, jobID, technicianID string, actor *User, notes string) (*Job, error)
	ReassignTechnician(ctx context.Context, jobID, technicianID string, actor *User, notes string) (*Job, error)
	StatusHistory(ctx context.Context, jobID string, actor *User) (*HistoryResponse, error)
}

// UserService manages the user records jobs reference.
type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, actor *User) (*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
}

// Service is the interface the API layer is written against.
type Service interface {
	JobService
	UserService

	// DescribeStateMachine dumps the transition table for diagnostics.
	DescribeStateMachine() []StatusDescription

	// Health returns the health status including a store ping.
	Health(ctx context.Context) (*HealthResponse, error)

	Close() error
}
