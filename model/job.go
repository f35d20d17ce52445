package model

import "time"

// JobStatus constants
type JobStatus string

const (
	JobOpen    JobStatus = "open"
	JobEngaged JobStatus = "engaged"
	JobClosed  JobStatus = "closed"
)

// Job is a work posting created by a business.
type Job struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	BudgetMin   float64   `json:"budget_min"`
	BudgetMax   float64   `json:"budget_max"`
	Skills      []string  `json:"skills,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Status      JobStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
