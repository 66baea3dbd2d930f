package core

import (
	"fmt"
	"strings"
)

// Evaluator answers transition questions against an immutable policy
// table. All methods are pure functions of (table, current, requested,
// role); the evaluator holds no other state.
type Evaluator struct {
	table *PolicyTable
}

// NewEvaluator wraps the given policy table.
func NewEvaluator(table *PolicyTable) *Evaluator {
	return &Evaluator{table: table}
}

// Table returns the policy table the evaluator was built with.
func (e *Evaluator) Table() *PolicyTable { return e.table }

// Verdict is the result of validating one transition request. Denials are
// distinguished by Code so callers can branch on cause rather than on a
// bare boolean.
type Verdict struct {
	Allowed   bool      `json:"allowed"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message,omitempty"`
	Current   JobStatus `json:"current"`
	Requested JobStatus `json:"requested"`

	// ValidNext is populated on no_such_edge denials.
	ValidNext []JobStatus `json:"valid_next,omitempty"`
	// AuthorizedRoles is populated on role_not_authorized denials.
	AuthorizedRoles []Role `json:"authorized_roles,omitempty"`
}

// Err converts a denial verdict into a structured error. Returns nil for
// an allowed verdict.
func (v *Verdict) Err() error {
	if v.Allowed {
		return nil
	}
	details := map[string]any{
		"current":   v.Current,
		"requested": v.Requested,
	}
	if len(v.ValidNext) > 0 {
		details["valid_next"] = v.ValidNext
	}
	if len(v.AuthorizedRoles) > 0 {
		details["authorized_roles"] = v.AuthorizedRoles
	}
	return &Error{Code: v.Code, Message: v.Message, Details: details}
}

// IsValidTransition reports whether an edge current → requested exists,
// regardless of role. Self-transitions are never valid.
func (e *Evaluator) IsValidTransition(current, requested JobStatus) bool {
	if current == requested {
		return false
	}
	_, ok := e.table.Edge(current, requested)
	return ok
}

// CanRolePerform reports whether the edge exists and the role is in its
// authorized set.
func (e *Evaluator) CanRolePerform(current, requested JobStatus, role Role) bool {
	if !e.IsValidTransition(current, requested) {
		return false
	}
	rs, _ := e.table.Edge(current, requested)
	return rs.Contains(role)
}

// Validate evaluates one transition request and returns an explicit
// allow/deny verdict with a human-readable reason on denial.
func (e *Evaluator) Validate(current, requested JobStatus, role Role) *Verdict {
	v := &Verdict{Current: current, Requested: requested}

	if current == requested {
		v.Code = ErrCodeSameStatus
		v.Message = fmt.Sprintf("Job is already in status %s.", current)
		return v
	}

	rs, ok := e.table.Edge(current, requested)
	if !ok {
		v.Code = ErrCodeNoSuchEdge
		v.ValidNext = e.table.Targets(current)
		if len(v.ValidNext) == 0 {
			v.Message = fmt.Sprintf("Cannot transition from %s to %s: %s is terminal.",
				current, requested, current)
		} else {
			v.Message = fmt.Sprintf("Cannot transition from %s to %s; valid next statuses: %s.",
				current, requested, joinStatuses(v.ValidNext))
		}
		return v
	}

	if !rs.Contains(role) {
		v.Code = ErrCodeRoleNotAuthorized
		v.AuthorizedRoles = rs.Roles()
		v.Message = fmt.Sprintf("Role %s may not transition a job from %s to %s; authorized roles: %s.",
			role, current, requested, joinRoles(v.AuthorizedRoles))
		return v
	}

	v.Allowed = true
	return v
}

// ValidNextStatuses returns every status reachable from current,
// regardless of role. Empty for the terminal status.
func (e *Evaluator) ValidNextStatuses(current JobStatus) []JobStatus {
	return e.table.Targets(current)
}

// ValidNextStatusesForRole returns the statuses reachable from current
// through edges the role is authorized to perform.
func (e *Evaluator) ValidNextStatusesForRole(current JobStatus, role Role) []JobStatus {
	var out []JobStatus
	for _, to := range e.table.Targets(current) {
		if rs, ok := e.table.Edge(current, to); ok && rs.Contains(role) {
			out = append(out, to)
		}
	}
	return out
}

// StatusDescription describes one status in the Describe dump.
type StatusDescription struct {
	Status     JobStatus            `json:"status"`
	IsTerminal bool                 `json:"is_terminal"`
	Edges      []EdgeDescription    `json:"edges"`
	NextByRole map[Role][]JobStatus `json:"next_by_role,omitempty"`
}

// EdgeDescription describes one transition edge.
type EdgeDescription struct {
	To            JobStatus `json:"to"`
	Roles         []Role    `json:"roles"`
	NotesRequired bool      `json:"notes_required,omitempty"`
}

// Describe dumps the full transition table, one entry per status in
// workflow order. Derivable entirely from the table; used by the
// state-machine introspection endpoint.
func (e *Evaluator) Describe() []StatusDescription {
	out := make([]StatusDescription, 0, len(e.table.Statuses()))
	for _, from := range e.table.Statuses() {
		d := StatusDescription{
			Status:     from,
			IsTerminal: e.table.IsTerminal(from),
			Edges:      []EdgeDescription{},
			NextByRole: make(map[Role][]JobStatus),
		}
		for _, to := range e.table.Targets(from) {
			rs, _ := e.table.Edge(from, to)
			d.Edges = append(d.Edges, EdgeDescription{
				To:            to,
				Roles:         rs.Roles(),
				NotesRequired: e.table.RequiresNotes(to),
			})
		}
		for _, r := range AllRoles {
			if next := e.ValidNextStatusesForRole(from, r); len(next) > 0 {
				d.NextByRole[r] = next
			}
		}
		out = append(out, d)
	}
	return out
}

func joinStatuses(ss []JobStatus) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func joinRoles(rr []Role) string {
	parts := make([]string, len(rr))
	for i, r := range rr {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
