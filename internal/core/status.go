package core

import "fmt"

// JobStatus is a job's position in the service workflow.
type JobStatus string

// Job statuses in workflow order. BILLED is terminal.
const (
	StatusTentative  JobStatus = "TENTATIVE"
	StatusConfirmed  JobStatus = "CONFIRMED"
	StatusAssigned   JobStatus = "ASSIGNED"
	StatusDispatched JobStatus = "DISPATCHED"
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusBilled     JobStatus = "BILLED"
)

// Role identifies what a user is allowed to do. Roles are mutually
// exclusive; there is no hierarchy or escalation between them.
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleOfficeManager Role = "OFFICE_MANAGER"
	RoleTechnician    Role = "TECHNICIAN"
)

// AllStatuses lists every job status in workflow order.
var AllStatuses = []JobStatus{
	StatusTentative,
	StatusConfirmed,
	StatusAssigned,
	StatusDispatched,
	StatusInProgress,
	StatusCompleted,
	StatusBilled,
}

// AllRoles lists every user role.
var AllRoles = []Role{RoleAdmin, RoleOfficeManager, RoleTechnician}

// ParseJobStatus converts a raw string to a JobStatus, returning an error
// for unknown values.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case StatusTentative, StatusConfirmed, StatusAssigned, StatusDispatched,
		StatusInProgress, StatusCompleted, StatusBilled:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// ParseRole converts a raw string to a Role, returning an error for
// unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleAdmin, RoleOfficeManager, RoleTechnician:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
