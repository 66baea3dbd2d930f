package core

import "fmt"

// Workflow shape names accepted by NewPolicyTable.
const (
	WorkflowStandard = "standard"
	WorkflowCompact  = "compact"
)

// RoleSet is the set of roles authorized to perform one transition edge.
type RoleSet map[Role]struct{}

// Contains reports whether the role is a member of the set.
func (rs RoleSet) Contains(r Role) bool {
	_, ok := rs[r]
	return ok
}

// Roles returns the members of the set in a fixed role order.
func (rs RoleSet) Roles() []Role {
	out := make([]Role, 0, len(rs))
	for _, r := range AllRoles {
		if rs.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}

func roles(rr ...Role) RoleSet {
	rs := make(RoleSet, len(rr))
	for _, r := range rr {
		rs[r] = struct{}{}
	}
	return rs
}

// PolicyTable declares, as data, which status transitions exist and which
// roles may perform each one. A table is built once at startup and never
// mutated afterwards.
type PolicyTable struct {
	workflow      string
	edges         map[JobStatus]map[JobStatus]RoleSet
	statuses      []JobStatus
	notesRequired map[JobStatus]struct{}
}

// NewPolicyTable builds the transition table for the named workflow shape.
//
// The standard shape routes jobs through DISPATCHED, owned by the office
// manager:
//
//	TENTATIVE ──► CONFIRMED ──► ASSIGNED ──► DISPATCHED ──► IN_PROGRESS ──► COMPLETED ──► BILLED
//
// The compact shape omits DISPATCHED; the assigned technician starts work
// directly. BILLED is terminal in both shapes.
func NewPolicyTable(workflow string) (*PolicyTable, error) {
	switch workflow {
	case WorkflowStandard:
		return &PolicyTable{
			workflow: WorkflowStandard,
			statuses: AllStatuses,
			edges: map[JobStatus]map[JobStatus]RoleSet{
				StatusTentative: {
					StatusConfirmed: roles(RoleAdmin, RoleOfficeManager),
				},
				StatusConfirmed: {
					StatusAssigned: roles(RoleAdmin),
				},
				StatusAssigned: {
					StatusDispatched: roles(RoleOfficeManager),
				},
				StatusDispatched: {
					StatusInProgress: roles(RoleTechnician),
				},
				StatusInProgress: {
					StatusCompleted: roles(RoleTechnician),
				},
				StatusCompleted: {
					StatusBilled: roles(RoleAdmin, RoleOfficeManager),
				},
				StatusBilled: {},
			},
			notesRequired: map[JobStatus]struct{}{
				StatusDispatched: {},
			},
		}, nil
	case WorkflowCompact:
		return &PolicyTable{
			workflow: WorkflowCompact,
			statuses: []JobStatus{
				StatusTentative, StatusConfirmed, StatusAssigned,
				StatusInProgress, StatusCompleted, StatusBilled,
			},
			edges: map[JobStatus]map[JobStatus]RoleSet{
				StatusTentative: {
					StatusConfirmed: roles(RoleAdmin, RoleOfficeManager),
				},
				StatusConfirmed: {
					StatusAssigned: roles(RoleAdmin),
				},
				StatusAssigned: {
					StatusInProgress: roles(RoleTechnician),
				},
				StatusInProgress: {
					StatusCompleted: roles(RoleTechnician),
				},
				StatusCompleted: {
					StatusBilled: roles(RoleAdmin, RoleOfficeManager),
				},
				StatusBilled: {},
			},
			notesRequired: map[JobStatus]struct{}{},
		}, nil
	}
	return nil, fmt.Errorf("unknown workflow shape %q", workflow)
}

// Workflow returns the shape name the table was built from.
func (t *PolicyTable) Workflow() string { return t.workflow }

// Statuses returns the statuses used by this workflow shape, in order.
func (t *PolicyTable) Statuses() []JobStatus { return t.statuses }

// Edge returns the authorized role set for from → to, or false when no
// such edge exists.
func (t *PolicyTable) Edge(from, to JobStatus) (RoleSet, bool) {
	targets, ok := t.edges[from]
	if !ok {
		return nil, false
	}
	rs, ok := targets[to]
	return rs, ok
}

// Targets returns the statuses reachable from the given status, in
// workflow order. Empty for the terminal status.
func (t *PolicyTable) Targets(from JobStatus) []JobStatus {
	targets, ok := t.edges[from]
	if !ok {
		return nil
	}
	out := make([]JobStatus, 0, len(targets))
	for _, s := range t.statuses {
		if _, ok := targets[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// IsTerminal reports whether the status has no outgoing transitions.
func (t *PolicyTable) IsTerminal(s JobStatus) bool {
	return len(t.edges[s]) == 0
}

// RequiresNotes reports whether transitions into the given status must
// carry caller-supplied notes (e.g. dispatch instructions).
func (t *PolicyTable) RequiresNotes(to JobStatus) bool {
	_, ok := t.notesRequired[to]
	return ok
}
