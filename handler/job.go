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

type JobHandler struct {
	jobs *service.JobStore
}

func NewJobHandler(jobs *service.JobStore) *JobHandler {
	return &JobHandler{jobs: jobs}
}

type CreateJobRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	BudgetMin   float64  `json:"budget_min"`
	BudgetMax   float64  `json:"budget_max"`
	Skills      []string `json:"skills"`
	Duration    string   `json:"duration"`
}

// Create posts a new job. Business accounts only.
func (h *JobHandler) Create(c *gin.Context) {
	if middleware.GetRole(c) != model.RoleBusiness {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only businesses can post jobs"})
		return
	}

	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.BudgetMax < req.BudgetMin || req.BudgetMin < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid budget range"})
		return
	}

	job := &model.Job{
		ID:          uuid.New().String(),
		BusinessID:  middleware.GetUserID(c),
		Title:       req.Title,
		Description: req.Description,
		BudgetMin:   req.BudgetMin,
		BudgetMax:   req.BudgetMax,
		Skills:      req.Skills,
		Duration:    req.Duration,
		Status:      model.JobOpen,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	h.jobs.Save(job)

	c.JSON(http.StatusCreated, job)
}

// List returns open jobs for students, own jobs for businesses.
func (h *JobHandler) List(c *gin.Context) {
	var jobs []*model.Job
	if middleware.GetRole(c) == model.RoleBusiness {
		jobs = h.jobs.ListByBusiness(middleware.GetUserID(c))
	} else {
		jobs = h.jobs.ListOpen()
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// Get returns one job.
func (h *JobHandler) Get(c *gin.Context) {
	job := h.jobs.Get(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// Close closes a job to further proposals. Owner only.
func (h *JobHandler) Close(c *gin.Context) {
	job := h.jobs.Get(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if job.BusinessID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your job"})
		return
	}
	h.jobs.UpdateStatus(job.ID, model.JobClosed)
	c.JSON(http.StatusOK, gin.H{"id": job.ID, "status": model.JobClosed})
}
