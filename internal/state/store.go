package state

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fieldserve/jobtrack-backend/internal/core"
)

// Sentinel errors reported by Store implementations. The lifecycle layer
// maps them to structured core errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	// ErrRevisionConflict means the guarded write observed a revision other
	// than the one the caller read. The caller must re-fetch and retry.
	ErrRevisionConflict = errors.New("revision conflict")
)

// JobRecord is a job as stored in the state store (DynamoDB).
// StatusHistory is serialized as a JSON string attribute.
type JobRecord struct {
	ID                 string   `dynamodbav:"PK"`
	SK                 string   `dynamodbav:"SK"`
	Title              string   `dynamodbav:"title"`
	CustomerName       string   `dynamodbav:"customer_name"`
	CustomerEmail      string   `dynamodbav:"customer_email,omitempty"`
	Address            string   `dynamodbav:"address,omitempty"`
	Description        string   `dynamodbav:"description,omitempty"`
	EstimatedCost      *float64 `dynamodbav:"estimated_cost,omitempty"`
	ScheduledDate      string   `dynamodbav:"scheduled_date,omitempty"`
	Status             string   `dynamodbav:"status"`
	AssignedTechnician string   `dynamodbav:"assigned_technician,omitempty"`
	StatusHistory      string   `dynamodbav:"status_history,omitempty"`
	CompletedAt        string   `dynamodbav:"completed_at,omitempty"`
	BilledAt           string   `dynamodbav:"billed_at,omitempty"`
	CreatedAt          string   `dynamodbav:"created_at"`
	UpdatedAt          string   `dynamodbav:"updated_at,omitempty"`
	Revision           int64    `dynamodbav:"revision"`

	// GSI attributes for status listing
	GSI1PK string `dynamodbav:"GSI1PK,omitempty"` // STATUS#<status>
	GSI1SK string `dynamodbav:"GSI1SK,omitempty"` // <created_at>
}

// UserRecord is a user as stored in the state store.
type UserRecord struct {
	PK        string `dynamodbav:"PK"` // USER#<id>
	SK        string `dynamodbav:"SK"` // "USER"
	ID        string `dynamodbav:"id"`
	Name      string `dynamodbav:"name"`
	Email     string `dynamodbav:"email"`
	Role      string `dynamodbav:"role"`
	CreatedAt string `dynamodbav:"created_at"`
}

// Store is the persistence interface for jobs and users. Implementations
// must make UpdateJob atomic with respect to the revision guard: the
// write succeeds only if the stored revision equals expectedRevision.
type Store interface {
	// PutJob stores a new job; ErrAlreadyExists if the ID is taken.
	PutJob(ctx context.Context, record *JobRecord) error
	GetJob(ctx context.Context, jobID string) (*JobRecord, error)
	// UpdateJob replaces the job record, guarded by the revision the
	// caller read. record.Revision carries the new (incremented) value;
	// expectedRevision is the one being replaced.
	UpdateJob(ctx context.Context, record *JobRecord, expectedRevision int64) error
	ListJobsByStatus(ctx context.Context, status string, limit int) ([]*JobRecord, error)

	PutUser(ctx context.Context, record *UserRecord) error
	GetUser(ctx context.Context, userID string) (*UserRecord, error)

	Ping(ctx context.Context) error
	Close() error
}

// RecordToJob converts a JobRecord to a core.Job.
func RecordToJob(r *JobRecord) *core.Job {
	job := &core.Job{
		ID:                 r.ID,
		Title:              r.Title,
		CustomerName:       r.CustomerName,
		CustomerEmail:      r.CustomerEmail,
		Address:            r.Address,
		Description:        r.Description,
		EstimatedCost:      r.EstimatedCost,
		ScheduledDate:      r.ScheduledDate,
		Status:             core.JobStatus(r.Status),
		AssignedTechnician: r.AssignedTechnician,
		CompletedAt:        r.CompletedAt,
		BilledAt:           r.BilledAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Revision:           r.Revision,
	}

	if r.StatusHistory != "" {
		var history []core.StatusHistoryEntry
		if json.Unmarshal([]byte(r.StatusHistory), &history) == nil {
			job.StatusHistory = history
		}
	}

	return job
}

// JobToRecord converts a core.Job to a JobRecord for storage.
func JobToRecord(job *core.Job) *JobRecord {
	r := &JobRecord{
		ID:                 job.ID,
		SK:                 "JOB",
		Title:              job.Title,
		CustomerName:       job.CustomerName,
		CustomerEmail:      job.CustomerEmail,
		Address:            job.Address,
		Description:        job.Description,
		EstimatedCost:      job.EstimatedCost,
		ScheduledDate:      job.ScheduledDate,
		Status:             string(job.Status),
		AssignedTechnician: job.AssignedTechnician,
		CompletedAt:        job.CompletedAt,
		BilledAt:           job.BilledAt,
		CreatedAt:          job.CreatedAt,
		UpdatedAt:          job.UpdatedAt,
		Revision:           job.Revision,
		GSI1PK:             "STATUS#" + string(job.Status),
		GSI1SK:             job.CreatedAt,
	}

	if len(job.StatusHistory) > 0 {
		histJSON, _ := json.Marshal(job.StatusHistory)
		r.StatusHistory = string(histJSON)
	}

	return r
}

// RecordToUser converts a UserRecord to a core.User.
func RecordToUser(r *UserRecord) *core.User {
	return &core.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      core.Role(r.Role),
		CreatedAt: r.CreatedAt,
	}
}

// UserToRecord converts a core.User to a UserRecord for storage.
func UserToRecord(u *core.User) *UserRecord {
	return &UserRecord{
		PK:        "USER#" + u.ID,
		SK:        "USER",
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
