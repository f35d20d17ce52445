package handler

import (
	"net/http"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/middleware"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProposalHandler struct {
	jobs      *service.JobStore
	proposals *service.ProposalStore
}

func NewProposalHandler(jobs *service.JobStore, proposals *service.ProposalStore) *ProposalHandler {
	return &ProposalHandler{jobs: jobs, proposals: proposals}
}

type SubmitProposalRequest struct {
	JobID       string  `json:"job_id" binding:"required"`
	CoverLetter string  `json:"cover_letter"`
	BidAmount   float64 `json:"bid_amount" binding:"required"`
	Duration    string  `json:"duration"`
}

// Submit files a proposal against an open job. Students only, one per job.
func (h *ProposalHandler) Submit(c *gin.Context) {
	if middleware.GetRole(c) != model.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only students can submit proposals"})
		return
	}

	var req SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.BidAmount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bid amount must be positive"})
		return
	}

	job := h.jobs.Get(req.JobID)
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if job.Status != model.JobOpen {
		c.JSON(http.StatusConflict, gin.H{"error": "Job is not open for proposals"})
		return
	}

	studentID := middleware.GetUserID(c)
	if h.proposals.HasProposal(job.ID, studentID) {
		c.JSON(http.StatusConflict, gin.H{"error": "You have already proposed to this job"})
		return
	}

	proposal := &model.Proposal{
		ID:          uuid.New().String(),
		JobID:       job.ID,
		StudentID:   studentID,
		CoverLetter: req.CoverLetter,
		BidAmount:   req.BidAmount,
		Duration:    req.Duration,
		Status:      model.ProposalSubmitted,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	h.proposals.Save(proposal)

	c.JSON(http.StatusCreated, proposal)
}

// ListForJob returns a job's proposals to its owner.
func (h *ProposalHandler) ListForJob(c *gin.Context) {
	job := h.jobs.Get(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if job.BusinessID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your job"})
		return
	}

	proposals := h.proposals.ListByJob(job.ID)
	if proposals == nil {
		proposals = []*model.Proposal{}
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// Accept accepts one proposal, rejects its siblings and marks the job
// engaged. From here the business can convert the proposal into a contract.
func (h *ProposalHandler) Accept(c *gin.Context) {
	proposal := h.proposals.Get(c.Param("id"))
	if proposal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		return
	}

	job := h.jobs.Get(proposal.JobID)
	if job == nil || job.BusinessID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your job"})
		return
	}
	if proposal.Status != model.ProposalSubmitted {
		c.JSON(http.StatusConflict, gin.H{"error": "Proposal is not awaiting a decision"})
		return
	}

	h.proposals.SetStatus(proposal.ID, model.ProposalAccepted)
	h.proposals.RejectOthers(job.ID, proposal.ID)
	h.jobs.UpdateStatus(job.ID, model.JobEngaged)

	c.JSON(http.StatusOK, gin.H{"id": proposal.ID, "status": model.ProposalAccepted})
}

// Reject declines a proposal.
func (h *ProposalHandler) Reject(c *gin.Context) {
	proposal := h.proposals.Get(c.Param("id"))
	if proposal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		return
	}

	job := h.jobs.Get(proposal.JobID)
	if job == nil || job.BusinessID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your job"})
		return
	}
	if proposal.Status != model.ProposalSubmitted {
		c.JSON(http.StatusConflict, gin.H{"error": "Proposal is not awaiting a decision"})
		return
	}

	h.proposals.SetStatus(proposal.ID, model.ProposalRejected)
	c.JSON(http.StatusOK, gin.H{"id": proposal.ID, "status": model.ProposalRejected})
}
