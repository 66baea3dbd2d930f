package core

import "context"

// Event types published to the transition-event feed.
const (
	EventStatusChanged        = "job.status_changed"
	EventTechnicianReassigned = "job.technician_reassigned"
)

// TransitionEvent is published after every successful status transition.
// Downstream consumers (billing export, customer notifications) read the
// feed; they never write back.
type TransitionEvent struct {
	EventType    string    `json:"event"`
	JobID        string    `json:"job_id"`
	From         JobStatus `json:"from,omitempty"`
	To           JobStatus `json:"to"`
	ActingUserID string    `json:"acting_user_id"`
	TechnicianID string    `json:"technician_id,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Timestamp    string    `json:"timestamp"`
}

// NewStatusChangedEvent creates a job.status_changed event stamped with
// the current time.
func NewStatusChangedEvent(jobID string, from, to JobStatus, actorID, notes string) *TransitionEvent {
	return &TransitionEvent{
		EventType:    EventStatusChanged,
		JobID:        jobID,
		From:         from,
		To:           to,
		ActingUserID: actorID,
		Notes:        notes,
		Timestamp:    NowFormatted(),
	}
}

// NewTechnicianReassignedEvent creates a job.technician_reassigned event
// stamped with the current time.
func NewTechnicianReassignedEvent(jobID string, from JobStatus, actorID, technicianID, notes string) *TransitionEvent {
	return &TransitionEvent{
		EventType:    EventTechnicianReassigned,
		JobID:        jobID,
		From:         from,
		To:           StatusAssigned,
		ActingUserID: actorID,
		TechnicianID: technicianID,
		Notes:        notes,
		Timestamp:    NowFormatted(),
	}
}

// EventPublisher publishes transition events to the outbound feed.
// Publishing is best-effort relative to the transition itself: the status
// write has already committed when Publish is called.
type EventPublisher interface {
	Publish(ctx context.Context, event *TransitionEvent) error
	Close() error
}
