package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/service"
)

func setupProposalEnv(t *testing.T) (*ProposalHandler, *service.JobStore, *service.ProposalStore, *model.Job) {
	t.Helper()

	jobs := service.NewJobStore()
	proposals := service.NewProposalStore()
	job := &model.Job{
		ID:         "job-1",
		BusinessID: "biz-1",
		Title:      "Build landing page",
		BudgetMin:  2000,
		BudgetMax:  5000,
		Status:     model.JobOpen,
		CreatedAt:  time.Now(),
	}
	jobs.Save(job)
	return NewProposalHandler(jobs, proposals), jobs, proposals, job
}

func submitProposal(t *testing.T, h *ProposalHandler, studentID string, bid float64) *model.Proposal {
	t.Helper()
	router := routeAs(studentID, model.RoleStudent, "POST", "/proposals", h.Submit)
	w := doJSON(t, router, "POST", "/proposals", SubmitProposalRequest{JobID: "job-1", BidAmount: bid})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit returned %d: %s", w.Code, w.Body.String())
	}
	var p model.Proposal
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to parse proposal: %v", err)
	}
	return &p
}

func TestProposalHandlerSubmit(t *testing.T) {
	handler, jobs, _, job := setupProposalEnv(t)

	p := submitProposal(t, handler, "stu-1", 4000)
	if p.Status != model.ProposalSubmitted {
		t.Errorf("expected submitted, got %s", p.Status)
	}

	tests := []struct {
		name           string
		userID         string
		role           model.Role
		body           SubmitProposalRequest
		expectedStatus int
	}{
		{
			name:           "duplicate proposal for job",
			userID:         "stu-1",
			role:           model.RoleStudent,
			body:           SubmitProposalRequest{JobID: "job-1", BidAmount: 3000},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "business cannot propose",
			userID:         "biz-1",
			role:           model.RoleBusiness,
			body:           SubmitProposalRequest{JobID: "job-1", BidAmount: 3000},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "unknown job",
			userID:         "stu-2",
			role:           model.RoleStudent,
			body:           SubmitProposalRequest{JobID: "job-x", BidAmount: 3000},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "non-positive bid",
			userID:         "stu-2",
			role:           model.RoleStudent,
			body:           SubmitProposalRequest{JobID: "job-1", BidAmount: -5},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := routeAs(tt.userID, tt.role, "POST", "/proposals", handler.Submit)
			w := doJSON(t, router, "POST", "/proposals", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	// Closed jobs take no more proposals
	jobs.UpdateStatus(job.ID, model.JobClosed)
	router := routeAs("stu-2", model.RoleStudent, "POST", "/proposals", handler.Submit)
	if w := doJSON(t, router, "POST", "/proposals", SubmitProposalRequest{JobID: "job-1", BidAmount: 3000}); w.Code != http.StatusConflict {
		t.Errorf("closed job: expected 409, got %d", w.Code)
	}
}

func TestProposalHandlerListForJob(t *testing.T) {
	handler, _, _, job := setupProposalEnv(t)
	submitProposal(t, handler, "stu-1", 4000)
	submitProposal(t, handler, "stu-2", 3500)

	// Only the job owner sees proposals
	router := routeAs("biz-2", model.RoleBusiness, "GET", "/jobs/:id/proposals", handler.ListForJob)
	if w := doJSON(t, router, "GET", "/jobs/"+job.ID+"/proposals", nil); w.Code != http.StatusForbidden {
		t.Errorf("foreign owner: expected 403, got %d", w.Code)
	}

	router = routeAs("biz-1", model.RoleBusiness, "GET", "/jobs/:id/proposals", handler.ListForJob)
	w := doJSON(t, router, "GET", "/jobs/"+job.ID+"/proposals", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var response map[string][]map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if len(response["proposals"]) != 2 {
		t.Errorf("expected 2 proposals, got %d", len(response["proposals"]))
	}
}

func TestProposalHandlerAccept(t *testing.T) {
	handler, jobs, proposals, job := setupProposalEnv(t)
	accepted := submitProposal(t, handler, "stu-1", 4000)
	rejected := submitProposal(t, handler, "stu-2", 3500)

	// Only the job owner decides
	router := routeAs("biz-2", model.RoleBusiness, "POST", "/proposals/:id/accept", handler.Accept)
	if w := doJSON(t, router, "POST", "/proposals/"+accepted.ID+"/accept", nil); w.Code != http.StatusForbidden {
		t.Errorf("foreign accept: expected 403, got %d", w.Code)
	}

	router = routeAs("biz-1", model.RoleBusiness, "POST", "/proposals/:id/accept", handler.Accept)
	if w := doJSON(t, router, "POST", "/proposals/"+accepted.ID+"/accept", nil); w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Accepting settles the siblings and engages the job
	if got := proposals.Get(accepted.ID); got.Status != model.ProposalAccepted {
		t.Errorf("expected accepted, got %s", got.Status)
	}
	if got := proposals.Get(rejected.ID); got.Status != model.ProposalRejected {
		t.Errorf("expected sibling rejected, got %s", got.Status)
	}
	if got := jobs.Get(job.ID); got.Status != model.JobEngaged {
		t.Errorf("expected job engaged, got %s", got.Status)
	}

	// A settled proposal cannot be decided again
	if w := doJSON(t, router, "POST", "/proposals/"+accepted.ID+"/accept", nil); w.Code != http.StatusConflict {
		t.Errorf("double accept: expected 409, got %d", w.Code)
	}
}

func TestProposalHandlerReject(t *testing.T) {
	handler, _, proposals, _ := setupProposalEnv(t)
	p := submitProposal(t, handler, "stu-1", 4000)

	router := routeAs("biz-1", model.RoleBusiness, "POST", "/proposals/:id/reject", handler.Reject)
	if w := doJSON(t, router, "POST", "/proposals/"+p.ID+"/reject", nil); w.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d", w.Code)
	}
	if got := proposals.Get(p.ID); got.Status != model.ProposalRejected {
		t.Errorf("expected rejected, got %s", got.Status)
	}

	if w := doJSON(t, router, "POST", "/proposals/"+p.ID+"/reject", nil); w.Code != http.StatusConflict {
		t.Errorf("double reject: expected 409, got %d", w.Code)
	}

	if w := doJSON(t, router, "POST", "/proposals/missing/reject", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing proposal: expected 404, got %d", w.Code)
	}
}
