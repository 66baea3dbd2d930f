package core

import (
	"strings"
	"testing"
)

func standardEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	table, err := NewPolicyTable(WorkflowStandard)
	if err != nil {
		t.Fatalf("NewPolicyTable(standard): %v", err)
	}
	return NewEvaluator(table)
}

func compactEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	table, err := NewPolicyTable(WorkflowCompact)
	if err != nil {
		t.Fatalf("NewPolicyTable(compact): %v", err)
	}
	return NewEvaluator(table)
}

func TestValidate_SelfTransitionAlwaysDenied(t *testing.T) {
	for _, e := range []*Evaluator{standardEvaluator(t), compactEvaluator(t)} {
		for _, s := range e.Table().Statuses() {
			for _, r := range AllRoles {
				v := e.Validate(s, s, r)
				if v.Allowed {
					t.Errorf("%s: validate(%s, %s, %s) allowed, want denial", e.Table().Workflow(), s, s, r)
				}
				if v.Code != ErrCodeSameStatus {
					t.Errorf("%s: validate(%s, %s, %s) code = %q, want %q",
						e.Table().Workflow(), s, s, r, v.Code, ErrCodeSameStatus)
				}
			}
		}
	}
}

func TestValidate_TerminalStatus(t *testing.T) {
	e := standardEvaluator(t)

	if next := e.ValidNextStatuses(StatusBilled); len(next) != 0 {
		t.Errorf("ValidNextStatuses(BILLED) = %v, want empty", next)
	}

	for _, s := range e.Table().Statuses() {
		if s == StatusBilled {
			continue
		}
		for _, r := range AllRoles {
			v := e.Validate(StatusBilled, s, r)
			if v.Code != ErrCodeNoSuchEdge {
				t.Errorf("validate(BILLED, %s, %s) code = %q, want %q", s, r, v.Code, ErrCodeNoSuchEdge)
			}
			if !strings.Contains(v.Message, "terminal") {
				t.Errorf("validate(BILLED, %s, %s) message %q should name BILLED as terminal", s, r, v.Message)
			}
		}
	}
}

func TestValidate_EveryNonTerminalStatusHasAnEdge(t *testing.T) {
	for _, e := range []*Evaluator{standardEvaluator(t), compactEvaluator(t)} {
		for _, s := range e.Table().Statuses() {
			if s == StatusBilled {
				continue
			}
			if next := e.ValidNextStatuses(s); len(next) == 0 {
				t.Errorf("%s: status %s has no outgoing edges", e.Table().Workflow(), s)
			}
		}
	}
}

func TestValidate_RoleGating_Compact(t *testing.T) {
	e := compactEvaluator(t)

	v := e.Validate(StatusAssigned, StatusInProgress, RoleAdmin)
	if v.Allowed || v.Code != ErrCodeRoleNotAuthorized {
		t.Errorf("validate(ASSIGNED, IN_PROGRESS, ADMIN) = (%v, %q), want role_not_authorized denial",
			v.Allowed, v.Code)
	}
	if len(v.AuthorizedRoles) != 1 || v.AuthorizedRoles[0] != RoleTechnician {
		t.Errorf("authorized roles = %v, want [TECHNICIAN]", v.AuthorizedRoles)
	}
	if !strings.Contains(v.Message, string(RoleTechnician)) {
		t.Errorf("message %q should enumerate the authorized roles", v.Message)
	}

	if v := e.Validate(StatusAssigned, StatusInProgress, RoleTechnician); !v.Allowed {
		t.Errorf("validate(ASSIGNED, IN_PROGRESS, TECHNICIAN) denied: %s", v.Message)
	}
}

func TestValidate_RoleGating_Standard(t *testing.T) {
	e := standardEvaluator(t)

	// The standard shape routes through DISPATCHED; technicians cannot
	// skip it.
	v := e.Validate(StatusAssigned, StatusInProgress, RoleTechnician)
	if v.Code != ErrCodeNoSuchEdge {
		t.Errorf("validate(ASSIGNED, IN_PROGRESS, TECHNICIAN) code = %q, want %q", v.Code, ErrCodeNoSuchEdge)
	}
	if !strings.Contains(v.Message, string(StatusDispatched)) {
		t.Errorf("message %q should enumerate DISPATCHED as the valid next status", v.Message)
	}

	if v := e.Validate(StatusAssigned, StatusDispatched, RoleOfficeManager); !v.Allowed {
		t.Errorf("validate(ASSIGNED, DISPATCHED, OFFICE_MANAGER) denied: %s", v.Message)
	}
	if v := e.Validate(StatusAssigned, StatusDispatched, RoleTechnician); v.Code != ErrCodeRoleNotAuthorized {
		t.Errorf("validate(ASSIGNED, DISPATCHED, TECHNICIAN) code = %q, want %q", v.Code, ErrCodeRoleNotAuthorized)
	}
	if v := e.Validate(StatusDispatched, StatusInProgress, RoleTechnician); !v.Allowed {
		t.Errorf("validate(DISPATCHED, IN_PROGRESS, TECHNICIAN) denied: %s", v.Message)
	}
}

func TestIsValidTransition(t *testing.T) {
	e := standardEvaluator(t)

	if !e.IsValidTransition(StatusTentative, StatusConfirmed) {
		t.Error("TENTATIVE -> CONFIRMED should be a valid edge")
	}
	if e.IsValidTransition(StatusTentative, StatusBilled) {
		t.Error("TENTATIVE -> BILLED should not be a valid edge")
	}
	if e.IsValidTransition(StatusConfirmed, StatusConfirmed) {
		t.Error("self-transition should never be valid")
	}
}

func TestCanRolePerform(t *testing.T) {
	e := standardEvaluator(t)

	if !e.CanRolePerform(StatusTentative, StatusConfirmed, RoleOfficeManager) {
		t.Error("OFFICE_MANAGER should confirm tentative jobs")
	}
	if e.CanRolePerform(StatusTentative, StatusConfirmed, RoleTechnician) {
		t.Error("TECHNICIAN should not confirm tentative jobs")
	}
	if e.CanRolePerform(StatusBilled, StatusTentative, RoleAdmin) {
		t.Error("no role can leave the terminal status")
	}
}

func TestValidNextStatusesForRole(t *testing.T) {
	e := standardEvaluator(t)

	next := e.ValidNextStatusesForRole(StatusCompleted, RoleOfficeManager)
	if len(next) != 1 || next[0] != StatusBilled {
		t.Errorf("ValidNextStatusesForRole(COMPLETED, OFFICE_MANAGER) = %v, want [BILLED]", next)
	}

	if next := e.ValidNextStatusesForRole(StatusCompleted, RoleTechnician); len(next) != 0 {
		t.Errorf("ValidNextStatusesForRole(COMPLETED, TECHNICIAN) = %v, want empty", next)
	}
}

func TestDescribe(t *testing.T) {
	e := standardEvaluator(t)
	descs := e.Describe()

	if len(descs) != len(e.Table().Statuses()) {
		t.Fatalf("Describe() returned %d entries, want %d", len(descs), len(e.Table().Statuses()))
	}

	byStatus := make(map[JobStatus]StatusDescription, len(descs))
	for _, d := range descs {
		byStatus[d.Status] = d
	}

	billed := byStatus[StatusBilled]
	if !billed.IsTerminal {
		t.Error("BILLED should be described as terminal")
	}
	if len(billed.Edges) != 0 {
		t.Errorf("BILLED edges = %v, want none", billed.Edges)
	}

	assigned := byStatus[StatusAssigned]
	if assigned.IsTerminal {
		t.Error("ASSIGNED should not be terminal")
	}
	if len(assigned.Edges) != 1 || assigned.Edges[0].To != StatusDispatched {
		t.Errorf("ASSIGNED edges = %v, want one edge to DISPATCHED", assigned.Edges)
	}
	if !assigned.Edges[0].NotesRequired {
		t.Error("the DISPATCHED edge should require notes")
	}
}

func TestVerdictErr(t *testing.T) {
	e := standardEvaluator(t)

	if err := e.Validate(StatusTentative, StatusConfirmed, RoleAdmin).Err(); err != nil {
		t.Errorf("allowed verdict produced error: %v", err)
	}

	err := e.Validate(StatusTentative, StatusBilled, RoleAdmin).Err()
	coreErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("Err() = %T, want *Error", err)
	}
	if coreErr.Code != ErrCodeNoSuchEdge {
		t.Errorf("code = %q, want %q", coreErr.Code, ErrCodeNoSuchEdge)
	}
	if _, ok := coreErr.Details["valid_next"]; !ok {
		t.Error("no_such_edge error should carry valid_next detail")
	}
}
