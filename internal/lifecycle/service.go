// Package lifecycle implements the job lifecycle orchestrator: every
// status change goes through this service, which validates transitions
// against the policy table, enforces job-level invariants, appends the
// audit history entry, and persists the result in one guarded write.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldserve/jobtrack-backend/internal/core"
	"github.com/fieldserve/jobtrack-backend/internal/metrics"
	"github.com/fieldserve/jobtrack-backend/internal/state"
)

// Service implements core.Service over a state.Store.
type Service struct {
	store     state.Store
	eval      *core.Evaluator
	events    core.EventPublisher
	logger    *slog.Logger
	storeType string
	startedAt time.Time
}

// New creates the lifecycle service. storeType names the store backend
// for health reporting ("dynamodb", "memory").
func New(store state.Store, table *core.PolicyTable, events core.EventPublisher, logger *slog.Logger, storeType string) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		eval:      core.NewEvaluator(table),
		events:    events,
		logger:    logger,
		storeType: storeType,
		startedAt: time.Now(),
	}
}

// Evaluator exposes the underlying evaluator for introspection handlers.
func (s *Service) Evaluator() *core.Evaluator { return s.eval }

// CreateJob constructs a job in TENTATIVE with its seed history entry.
// Only admins create jobs.
func (s *Service) CreateJob(ctx context.Context, req *core.CreateJobRequest, actor *core.User) (*core.Job, error) {
	if actor.Role != core.RoleAdmin {
		return nil, core.NewNotAuthorizedError("Only admins can create jobs.",
			map[string]any{"role": actor.Role})
	}
	if err := core.ValidateCreateJobRequest(req); err != nil {
		return nil, err
	}

	now := core.NowFormatted()
	job := &core.Job{
		ID:            core.NewUUIDv7(),
		Title:         req.Title,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Address:       req.Address,
		Description:   req.Description,
		EstimatedCost: req.EstimatedCost,
		ScheduledDate: req.ScheduledDate,
		Status:        core.StatusTentative,
		StatusHistory: []core.StatusHistoryEntry{{
			To:           core.StatusTentative,
			ActingUserID: actor.ID,
			Notes:        "Job created",
			Timestamp:    now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
		Revision:  1,
	}

	if err := s.store.PutJob(ctx, state.JobToRecord(job)); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return nil, core.NewConflictError(job.ID)
		}
		return nil, core.NewInternalError(err.Error())
	}

	metrics.JobsCreated.Inc()
	s.publish(ctx, core.NewStatusChangedEvent(job.ID, "", core.StatusTentative, actor.ID, "Job created"))
	s.logger.Info("job created", "job_id", job.ID, "actor", actor.ID)
	return job, nil
}

// GetJob fetches a job by ID. Technicians may only fetch jobs assigned
// to them; the job body carries the full audit history.
func (s *Service) GetJob(ctx context.Context, jobID string, actor *core.User) (*core.Job, error) {
	record, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, core.NewNotFoundError("Job", jobID)
		}
		return nil, core.NewInternalError(err.Error())
	}
	job := state.RecordToJob(record)

	if actor.Role == core.RoleTechnician && job.AssignedTechnician != actor.ID {
		return nil, core.NewNotAuthorizedError("Technicians can only view jobs assigned to them.",
			map[string]any{"job_id": jobID})
	}
	return job, nil
}

// ListJobsByStatus returns jobs in the given status, oldest first.
// Technicians see only their own jobs. Listings are summaries: the
// audit history is omitted and read through GetJob or StatusHistory.
func (s *Service) ListJobsByStatus(ctx context.Context, status core.JobStatus, limit int, actor *core.User) ([]*core.Job, error) {
	records, err := s.store.ListJobsByStatus(ctx, string(status), limit)
	if err != nil {
		return nil, core.NewInternalError(err.Error())
	}
	jobs := make([]*core.Job, 0, len(records))
	for _, r := range records {
		if actor.Role == core.RoleTechnician && r.AssignedTechnician != actor.ID {
			continue
		}
		job := state.RecordToJob(r)
		job.StatusHistory = nil
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// UpdateJobDetails edits non-status fields. Status, history, assignee
// and derived timestamps are rejected before this point by the request
// parser; this method never touches them.
func (s *Service) UpdateJobDetails(ctx context.Context, jobID string, req *core.UpdateJobRequest, actor *core.User) (*core.Job, error) {
	if actor.Role != core.RoleAdmin && actor.Role != core.RoleOfficeManager {
		return nil, core.NewNotAuthorizedError("Only admins and office managers can edit job details.",
			map[string]any{"role": actor.Role})
	}
	if err := core.ValidateUpdateJobRequest(req); err != nil {
		return nil, err
	}

	record, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, core.NewNotFoundError("Job", jobID)
		}
		return nil, core.NewInternalError(err.Error())
	}
	job := state.RecordToJob(record)

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.CustomerName != nil {
		job.CustomerName = *req.CustomerName
	}
	if req.CustomerEmail != nil {
		job.CustomerEmail = *req.CustomerEmail
	}
	if req.Address != nil {
		job.Address = *req.Address
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.EstimatedCost != nil {
		job.EstimatedCost = req.EstimatedCost
	}
	if req.ScheduledDate != nil {
		job.ScheduledDate = *req.ScheduledDate
	}

	prev := job.Revision
	job.Revision++
	job.UpdatedAt = core.NowFormatted()
	if err := s.store.UpdateJob(ctx, state.JobToRecord(job), prev); err != nil {
		if errors.Is(err, state.ErrRevisionConflict) {
			return nil, core.NewConflictError(jobID)
		}
		return nil, core.NewInternalError(err.Error())
	}
	return job, nil
}

// TransitionStatus applies one status transition to a job, enforcing
// policy, the technician-assignment guard, and mandatory notes.
func (s *Service) TransitionStatus(ctx context.Context, jobID string, requested core.JobStatus, actor *core.User, notes string) (*core.Job, error) {
	record, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, core.NewNotFoundError("Job", jobID)
		}
		return nil, core.NewInternalError(err.Error())
	}
	job := state.RecordToJob(record)

	verdict := s.eval.Validate(job.Status, requested, actor.Role)
	if !verdict.Allowed {
		metrics.TransitionsDenied.WithLabelValues(verdict.Code).Inc()
		return nil, verdict.Err()
	}

	// A technician may only move jobs assigned to them. The role is legal
	// for the edge; this actor may still lack standing on this job.
	if actor.Role == core.RoleTechnician && job.AssignedTechnician != actor.ID {
		metrics.TransitionsDenied.WithLabelValues(core.ErrCodeNotAssigned).Inc()
		return nil, core.NewNotAssignedError(jobID, actor.ID)
	}

	if s.eval.Table().RequiresNotes(requested) && notes == "" {
		return nil, core.NewValidationError(
			fmt.Sprintf("Notes are required when transitioning to %s.", requested),
			map[string]any{"field": "notes", "requested": requested},
		)
	}

	return s.applyTransition(ctx, job, requested, actor.ID, notes)
}

// AssignTechnician is a compound operation: it sets the assignee and
// performs the implied CONFIRMED → ASSIGNED transition through the same
// primitive as TransitionStatus.
func (s *Service) AssignTechnician(ctx context.Context, jobID, technicianID string, actor *core.User, notes string) (*core.Job, error) {
	record, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, core.NewNotFoundError("Job", jobID)
		}
		return nil, core.NewInternalError(err.Error())
	}
	job := state.RecordToJob(record)

	if job.Status != core.StatusConfirmed {
		return nil, core.NewWrongStatusError("assign a technician to", job.Status, core.StatusConfirmed)
	}

	if err := s.checkTechnician(ctx, technicianID); err != nil {
		return nil, err
	}

	verdict := s.eval.Validate(job.Status, core.StatusAssigned, actor.Role)
	if !verdict.Allowed {
		metrics.TransitionsDenied.WithLabelValues(verdict.Code).Inc()
		return nil, verdict.Err()
	}

	if notes == "" {
		notes = fmt.Sprintf("Assigned to technician %s", technicianID)
	}
	job.AssignedTechnician = technicianID
	return s.applyTransition(ctx, job, core.StatusAssigned, actor.ID, notes)
}

// reassignableStatuses are the statuses the admin escape hatch may reset
// from. Reassignment deliberately bypasses the forward-only flow; the
// reset is recorded in history like any other transition.
var reassignableStatuses = []core.JobStatus{
	core.StatusAssigned, core.StatusDispatched, core.StatusInProgress,
}

// ReassignTechnician replaces the assignee and resets the job to
// ASSIGNED. Admin-only; the prior status is recorded as the history
// entry's from-status.
func (s *Service) ReassignTechnician(ctx context.Context, jobID, technicianID string, actor *core.User, notes string) (*core.Job, error) {
	if actor.Role != core.RoleAdmin {
		return nil, core.NewNotAuthorizedError("Only admins can reassign technicians.",
			map[string]any{"role": actor.Role})
	}

	record, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, core.NewNotFoundError("Job", jobID)
		}
		return nil, core.NewInternalError(err.Error())
	}
	job := state.RecordToJob(record)

	reassignable := false
	for _, st := range reassignableStatuses {
		if job.Status == st {
			reassignable = true
			break
		}
	}
	if !reassignable {
		return nil, core.NewWrongStatusError("reassign", job.Status, reassignableStatuses...)
	}

	if err := s.checkTechnician(ctx, technicianID); err != nil {
		return nil, err
	}

	if notes == "" {
		notes = fmt.Sprintf("Reassigned to technician %s", technicianID)
	}
	prior := job.Status
	job.AssignedTechnician = technicianID
	job, err = s.applyTransition(ctx, job, core.StatusAssigned, actor.ID, notes)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, core.NewTechnicianReassignedEvent(job.ID, prior, actor.ID, technicianID, notes))
	return job, nil
}

// StatusHistory returns the ordered transition history. Technicians may
// only read jobs assigned to them.
func (s *Service) StatusHistory(ctx context.Context, jobID string, actor *core.User) (*core.HistoryResponse, error) {
	record, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, core.NewNotFoundError("Job", jobID)
		}
		return nil, core.NewInternalError(err.Error())
	}
	job := state.RecordToJob(record)

	if actor.Role == core.RoleTechnician && job.AssignedTechnician != actor.ID {
		return nil, core.NewNotAuthorizedError("Technicians can only view history for their own jobs.",
			map[string]any{"job_id": jobID})
	}

	return &core.HistoryResponse{
		JobID:   job.ID,
		Status:  job.Status,
		History: job.StatusHistory,
	}, nil
}

// CreateUser stores a new user record. Only admins create users.
func (s *Service) CreateUser(ctx context.Context, req *core.CreateUserRequest, actor *core.User) (*core.User, error) {
	if actor.Role != core.RoleAdmin {
		return nil, core.NewNotAuthorizedError("Only admins can create users.",
			map[string]any{"role": actor.Role})
	}
	if err := core.ValidateCreateUserRequest(req); err != nil {
		return nil, err
	}

	role, _ := core.ParseRole(req.Role)
	user := &core.User{
		ID:        core.NewUUIDv7(),
		Name:      req.Name,
		Email:     req.Email,
		Role:      role,
		CreatedAt: core.NowFormatted(),
	}

	if err := s.store.PutUser(ctx, state.UserToRecord(user)); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return nil, core.NewConflictError(user.ID)
		}
		return nil, core.NewInternalError(err.Error())
	}
	return user, nil
}

// BootstrapAdmin seeds an admin user with a fixed ID so a fresh
// deployment has an actor that can create everyone else. Every API
// operation requires a resolvable actor and CreateUser itself requires
// an admin, so without a seed a new install can never mint its first
// user. Idempotent: an existing record under the ID is left untouched.
func (s *Service) BootstrapAdmin(ctx context.Context, id string) (*core.User, error) {
	user := &core.User{
		ID:        id,
		Name:      "Bootstrap administrator",
		Role:      core.RoleAdmin,
		CreatedAt: core.NowFormatted(),
	}
	if err := s.store.PutUser(ctx, state.UserToRecord(user)); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return s.GetUser(ctx, id)
		}
		return nil, core.NewInternalError(err.Error())
	}
	s.logger.Info("bootstrap admin seeded", "user_id", id)
	return user, nil
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*core.User, error) {
	record, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, core.NewNotFoundError("User", userID)
		}
		return nil, core.NewInternalError(err.Error())
	}
	return state.RecordToUser(record), nil
}

// DescribeStateMachine dumps the transition table.
func (s *Service) DescribeStateMachine() []core.StatusDescription {
	return s.eval.Describe()
}

// Health pings the store and reports uptime.
func (s *Service) Health(ctx context.Context) (*core.HealthResponse, error) {
	resp := &core.HealthResponse{
		Status:        "ok",
		Version:       core.Version,
		Workflow:      s.eval.Table().Workflow(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Store:         core.StoreHealth{Type: s.storeType, Status: "ok"},
	}

	start := time.Now()
	if err := s.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Store.Status = "error"
		resp.Store.Error = err.Error()
		return resp, nil
	}
	resp.Store.LatencyMs = time.Since(start).Milliseconds()
	return resp, nil
}

// Close releases the store and event publisher.
func (s *Service) Close() error {
	if err := s.events.Close(); err != nil {
		s.logger.Warn("closing event publisher", "error", err)
	}
	return s.store.Close()
}

// applyTransition is the single transition primitive: append the history
// entry, move the status, set derived timestamps, and persist guarded by
// the revision the job was read at. Callers have already validated the
// transition; reassignment calls this directly as its audited exception.
func (s *Service) applyTransition(ctx context.Context, job *core.Job, to core.JobStatus, actorID, notes string) (*core.Job, error) {
	if notes == "" {
		notes = fmt.Sprintf("Status changed to %s", to)
	}

	from := job.Status
	now := core.NowFormatted()
	job.StatusHistory = append(job.StatusHistory, core.StatusHistoryEntry{
		From:         from,
		To:           to,
		ActingUserID: actorID,
		Notes:        notes,
		Timestamp:    now,
	})
	job.Status = to
	job.UpdatedAt = now

	// Self-transitions are rejected by the evaluator before this point,
	// so a derived timestamp can never be written twice.
	switch to {
	case core.StatusCompleted:
		job.CompletedAt = now
	case core.StatusBilled:
		job.BilledAt = now
	}

	prev := job.Revision
	job.Revision++
	if err := s.store.UpdateJob(ctx, state.JobToRecord(job), prev); err != nil {
		if errors.Is(err, state.ErrRevisionConflict) {
			metrics.TransitionConflicts.Inc()
			return nil, core.NewConflictError(job.ID)
		}
		return nil, core.NewInternalError(err.Error())
	}

	metrics.TransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	s.publish(ctx, core.NewStatusChangedEvent(job.ID, from, to, actorID, notes))
	s.logger.Info("job transitioned",
		"job_id", job.ID, "from", from, "to", to, "actor", actorID)
	return job, nil
}

func (s *Service) checkTechnician(ctx context.Context, technicianID string) error {
	record, err := s.store.GetUser(ctx, technicianID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return core.NewUnknownTechnicianError(technicianID)
		}
		return core.NewInternalError(err.Error())
	}
	if core.Role(record.Role) != core.RoleTechnician {
		return core.NewWrongRoleError(technicianID, core.Role(record.Role), core.RoleTechnician)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event *core.TransitionEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publishing transition event",
			"job_id", event.JobID, "event", event.EventType, "error", err)
	}
}

// NopPublisher discards events; used when no event queue is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *core.TransitionEvent) error { return nil }
func (NopPublisher) Close() error                                         { return nil }
