package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fieldserve/jobtrack-backend/internal/core"
)

// mockService implements core.Service with overridable functions.
type mockService struct {
	createJobFn    func(ctx context.Context, req *core.CreateJobRequest, actor *core.User) (*core.Job, error)
	getJobFn       func(ctx context.Context, jobID string, actor *core.User) (*core.Job, error)
	listFn         func(ctx context.Context, status core.JobStatus, limit int, actor *core.User) ([]*core.Job, error)
	updateFn       func(ctx context.Context, jobID string, req *core.UpdateJobRequest, actor *core.User) (*core.Job, error)
	transitionFn   func(ctx context.Context, jobID string, requested core.JobStatus, actor *core.User, notes string) (*core.Job, error)
	assignFn       func(ctx context.Context, jobID, technicianID string, actor *core.User, notes string) (*core.Job, error)
	reassignFn     func(ctx context.Context, jobID, technicianID string, actor *core.User, notes string) (*core.Job, error)
	historyFn      func(ctx context.Context, jobID string, actor *core.User) (*core.HistoryResponse, error)
	createUserFn   func(ctx context.Context, req *core.CreateUserRequest, actor *core.User) (*core.User, error)
	getUserFn      func(ctx context.Context, userID string) (*core.User, error)
	healthFn       func(ctx context.Context) (*core.HealthResponse, error)
	describeResult []core.StatusDescription
}

func (m *mockService) CreateJob(ctx context.Context, req *core.CreateJobRequest, actor *core.User) (*core.Job, error) {
	return m.createJobFn(ctx, req, actor)
}
func (m *mockService) GetJob(ctx context.Context, jobID string, actor *core.User) (*core.Job, error) {
	return m.getJobFn(ctx, jobID, actor)
}
func (m *mockService) ListJobsByStatus(ctx context.Context, status core.JobStatus, limit int, actor *core.User) ([]*core.Job, error) {
	return m.listFn(ctx, status, limit, actor)
}
func (m *mockService) UpdateJobDetails(ctx context.Context, jobID string, req *core.UpdateJobRequest, actor *core.User) (*core.Job, error) {
	return m.updateFn(ctx, jobID, req, actor)
}
func (m *mockService) TransitionStatus(ctx context.Context, jobID string, requested core.JobStatus, actor *core.User, notes string) (*core.Job, error) {
	return m.transitionFn(ctx, jobID, requested, actor, notes)
}
func (m *mockService) AssignTechnician(ctx context.Context, jobID, technicianID string, actor *core.User, notes string) (*core.Job, error) {
	return m.assignFn(ctx, jobID, technicianID, actor, notes)
}
func (m *mockService) ReassignTechnician(ctx context.Context, jobID, technicianID string, actor *core.User, notes string) (*core.Job, error) {
	return m.reassignFn(ctx, jobID, technicianID, actor, notes)
}
func (m *mockService) StatusHistory(ctx context.Context, jobID string, actor *core.User) (*core.HistoryResponse, error) {
	return m.historyFn(ctx, jobID, actor)
}
func (m *mockService) CreateUser(ctx context.Context, req *core.CreateUserRequest, actor *core.User) (*core.User, error) {
	return m.createUserFn(ctx, req, actor)
}
func (m *mockService) GetUser(ctx context.Context, userID string) (*core.User, error) {
	return m.getUserFn(ctx, userID)
}
func (m *mockService) DescribeStateMachine() []core.StatusDescription { return m.describeResult }
func (m *mockService) Health(ctx context.Context) (*core.HealthResponse, error) {
	return m.healthFn(ctx)
}
func (m *mockService) Close() error { return nil }

var testActor = &core.User{ID: "user-admin", Name: "Ada", Role: core.RoleAdmin}

// do routes a request through a chi router with the actor preloaded in
// context, the way ResolveActor would leave it.
func do(t *testing.T, method, target string, body string, route func(r chi.Router)) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), actorKey, testActor)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	route(r)

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *core.Error {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error body: %v (body: %s)", err, rec.Body.String())
	}
	if resp.Error == nil {
		t.Fatalf("no error in response body: %s", rec.Body.String())
	}
	return resp.Error
}

func TestJobHandler_Create(t *testing.T) {
	svc := &mockService{
		createJobFn: func(ctx context.Context, req *core.CreateJobRequest, actor *core.User) (*core.Job, error) {
			if actor != testActor {
				t.Error("actor not passed through")
			}
			return &core.Job{ID: "job-1", Title: req.Title, Status: core.StatusTentative}, nil
		},
	}
	h := NewJobHandler(svc)

	rec := do(t, "POST", "/v1/jobs", `{"title":"Rewire","customer_name":"Acme"}`, func(r chi.Router) {
		r.Post("/v1/jobs", h.Create)
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/jobs/job-1" {
		t.Errorf("Location = %q", loc)
	}
}

func TestJobHandler_Create_Denied(t *testing.T) {
	svc := &mockService{
		createJobFn: func(ctx context.Context, req *core.CreateJobRequest, actor *core.User) (*core.Job, error) {
			return nil, core.NewNotAuthorizedError("Only admins can create jobs.", nil)
		},
	}
	h := NewJobHandler(svc)

	rec := do(t, "POST", "/v1/jobs", `{"title":"Rewire","customer_name":"Acme"}`, func(r chi.Router) {
		r.Post("/v1/jobs", h.Create)
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != core.ErrCodeNotAuthorized {
		t.Errorf("error code = %q", e.Code)
	}
}

func TestJobHandler_Get_NotFound(t *testing.T) {
	svc := &mockService{
		getJobFn: func(ctx context.Context, jobID string, actor *core.User) (*core.Job, error) {
			return nil, core.NewNotFoundError("Job", jobID)
		},
	}
	h := NewJobHandler(svc)

	rec := do(t, "GET", "/v1/jobs/ghost", "", func(r chi.Router) {
		r.Get("/v1/jobs/{id}", h.Get)
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestJobHandler_List(t *testing.T) {
	svc := &mockService{
		listFn: func(ctx context.Context, status core.JobStatus, limit int, actor *core.User) ([]*core.Job, error) {
			if status != core.StatusConfirmed {
				t.Errorf("status = %s", status)
			}
			if limit != 10 {
				t.Errorf("limit = %d, want 10", limit)
			}
			if actor != testActor {
				t.Error("actor not passed through")
			}
			return []*core.Job{{ID: "job-1"}, {ID: "job-2"}}, nil
		},
	}
	h := NewJobHandler(svc)
	route := func(r chi.Router) { r.Get("/v1/jobs", h.List) }

	rec := do(t, "GET", "/v1/jobs?status=CONFIRMED&limit=10", "", route)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}

	rec = do(t, "GET", "/v1/jobs?status=SHIPPED", "", route)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid status: code = %d, want 422", rec.Code)
	}
}

func TestJobHandler_Update_RejectsStatusWrite(t *testing.T) {
	svc := &mockService{
		updateFn: func(ctx context.Context, jobID string, req *core.UpdateJobRequest, actor *core.User) (*core.Job, error) {
			t.Error("service reached with smuggled status field")
			return nil, nil
		},
	}
	h := NewJobHandler(svc)

	rec := do(t, "PATCH", "/v1/jobs/job-1", `{"status":"BILLED"}`, func(r chi.Router) {
		r.Patch("/v1/jobs/{id}", h.Update)
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != core.ErrCodeValidationError {
		t.Errorf("error code = %q", e.Code)
	}
}

func TestJobHandler_Transition(t *testing.T) {
	svc := &mockService{
		transitionFn: func(ctx context.Context, jobID string, requested core.JobStatus, actor *core.User, notes string) (*core.Job, error) {
			if jobID != "job-1" || requested != core.StatusConfirmed || notes != "ok" {
				t.Errorf("args = %s %s %q", jobID, requested, notes)
			}
			return &core.Job{ID: jobID, Status: requested}, nil
		},
	}
	h := NewJobHandler(svc)
	route := func(r chi.Router) { r.Post("/v1/jobs/{id}/transitions", h.Transition) }

	rec := do(t, "POST", "/v1/jobs/job-1/transitions", `{"status":"CONFIRMED","notes":"ok"}`, route)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Job is now CONFIRMED.") {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = do(t, "POST", "/v1/jobs/job-1/transitions", `{"status":"SHIPPED"}`, route)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown status: code = %d, want 422", rec.Code)
	}
}

func TestJobHandler_Transition_DenialStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  *core.Error
		want int
	}{
		{"no_such_edge", &core.Error{Code: core.ErrCodeNoSuchEdge, Message: "x"}, http.StatusConflict},
		{"same_status", &core.Error{Code: core.ErrCodeSameStatus, Message: "x"}, http.StatusConflict},
		{"role_not_authorized", &core.Error{Code: core.ErrCodeRoleNotAuthorized, Message: "x"}, http.StatusForbidden},
		{"not_assigned", &core.Error{Code: core.ErrCodeNotAssigned, Message: "x"}, http.StatusForbidden},
		{"conflict", &core.Error{Code: core.ErrCodeConflict, Message: "x"}, http.StatusConflict},
		{"internal", &core.Error{Code: core.ErrCodeInternalError, Message: "x"}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{
				transitionFn: func(ctx context.Context, jobID string, requested core.JobStatus, actor *core.User, notes string) (*core.Job, error) {
					return nil, tc.err
				},
			}
			h := NewJobHandler(svc)
			rec := do(t, "POST", "/v1/jobs/job-1/transitions", `{"status":"CONFIRMED"}`, func(r chi.Router) {
				r.Post("/v1/jobs/{id}/transitions", h.Transition)
			})
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestJobHandler_Assign(t *testing.T) {
	svc := &mockService{
		assignFn: func(ctx context.Context, jobID, technicianID string, actor *core.User, notes string) (*core.Job, error) {
			if technicianID != "tech-1" {
				t.Errorf("technician = %q", technicianID)
			}
			return &core.Job{ID: jobID, Status: core.StatusAssigned, AssignedTechnician: technicianID}, nil
		},
	}
	h := NewJobHandler(svc)
	route := func(r chi.Router) { r.Post("/v1/jobs/{id}/assignee", h.Assign) }

	rec := do(t, "POST", "/v1/jobs/job-1/assignee", `{"technician_id":"tech-1"}`, route)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	rec = do(t, "POST", "/v1/jobs/job-1/assignee", `{}`, route)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing technician_id: code = %d, want 422", rec.Code)
	}
}

func TestJobHandler_Assign_UnknownTechnician(t *testing.T) {
	svc := &mockService{
		assignFn: func(ctx context.Context, jobID, technicianID string, actor *core.User, notes string) (*core.Job, error) {
			return nil, core.NewUnknownTechnicianError(technicianID)
		},
	}
	h := NewJobHandler(svc)
	rec := do(t, "POST", "/v1/jobs/job-1/assignee", `{"technician_id":"ghost"}`, func(r chi.Router) {
		r.Post("/v1/jobs/{id}/assignee", h.Assign)
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestJobHandler_Reassign_WrongStatus(t *testing.T) {
	svc := &mockService{
		reassignFn: func(ctx context.Context, jobID, technicianID string, actor *core.User, notes string) (*core.Job, error) {
			return nil, core.NewWrongStatusError("reassign", core.StatusBilled, core.StatusAssigned)
		},
	}
	h := NewJobHandler(svc)
	rec := do(t, "PUT", "/v1/jobs/job-1/assignee", `{"technician_id":"tech-2"}`, func(r chi.Router) {
		r.Put("/v1/jobs/{id}/assignee", h.Reassign)
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestJobHandler_History(t *testing.T) {
	svc := &mockService{
		historyFn: func(ctx context.Context, jobID string, actor *core.User) (*core.HistoryResponse, error) {
			return &core.HistoryResponse{
				JobID:  jobID,
				Status: core.StatusConfirmed,
				History: []core.StatusHistoryEntry{
					{To: core.StatusTentative, ActingUserID: "user-admin"},
					{From: core.StatusTentative, To: core.StatusConfirmed, ActingUserID: "user-om"},
				},
			}, nil
		},
	}
	h := NewJobHandler(svc)
	rec := do(t, "GET", "/v1/jobs/job-1/history", "", func(r chi.Router) {
		r.Get("/v1/jobs/{id}/history", h.History)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp core.HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.JobID != "job-1" || len(resp.History) != 2 {
		t.Errorf("response = %+v", resp)
	}
}

func TestUserHandler(t *testing.T) {
	svc := &mockService{
		createUserFn: func(ctx context.Context, req *core.CreateUserRequest, actor *core.User) (*core.User, error) {
			return &core.User{ID: "user-1", Name: req.Name, Role: core.RoleTechnician}, nil
		},
		getUserFn: func(ctx context.Context, userID string) (*core.User, error) {
			if userID == "ghost" {
				return nil, core.NewNotFoundError("User", userID)
			}
			return &core.User{ID: userID, Name: "Tia", Role: core.RoleTechnician}, nil
		},
	}
	h := NewUserHandler(svc)
	route := func(r chi.Router) {
		r.Post("/v1/users", h.Create)
		r.Get("/v1/users/{id}", h.Get)
	}

	rec := do(t, "POST", "/v1/users", `{"name":"Tia","email":"tia@example.com","role":"TECHNICIAN"}`, route)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/users/user-1" {
		t.Errorf("Location = %q", loc)
	}

	rec = do(t, "GET", "/v1/users/user-1", "", route)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	rec = do(t, "GET", "/v1/users/ghost", "", route)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSystemHandler_Health(t *testing.T) {
	svc := &mockService{
		healthFn: func(ctx context.Context) (*core.HealthResponse, error) {
			return &core.HealthResponse{Status: "ok", Version: core.Version,
				Store: core.StoreHealth{Type: "memory", Status: "ok"}}, nil
		},
	}
	h := NewSystemHandler(svc)
	rec := do(t, "GET", "/v1/healthz", "", func(r chi.Router) {
		r.Get("/v1/healthz", h.Health)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSystemHandler_Health_Degraded(t *testing.T) {
	svc := &mockService{
		healthFn: func(ctx context.Context) (*core.HealthResponse, error) {
			return &core.HealthResponse{Status: "degraded",
				Store: core.StoreHealth{Type: "dynamodb", Status: "error", Error: "timeout"}}, nil
		},
	}
	h := NewSystemHandler(svc)
	rec := do(t, "GET", "/v1/healthz", "", func(r chi.Router) {
		r.Get("/v1/healthz", h.Health)
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestSystemHandler_StateMachine(t *testing.T) {
	svc := &mockService{
		describeResult: []core.StatusDescription{
			{Status: core.StatusBilled, IsTerminal: true},
		},
	}
	h := NewSystemHandler(svc)
	rec := do(t, "GET", "/v1/state-machine", "", func(r chi.Router) {
		r.Get("/v1/state-machine", h.StateMachine)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "BILLED") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
