package model

import "time"

// ProposalStatus constants
type ProposalStatus string

const (
	ProposalSubmitted ProposalStatus = "submitted"
	ProposalAccepted  ProposalStatus = "accepted"
	ProposalRejected  ProposalStatus = "rejected"
)

// Proposal is a student's pitch for a job. One per student per job.
type Proposal struct {
	ID          string         `json:"id"`
	JobID       string         `json:"job_id"`
	StudentID   string         `json:"student_id"`
	CoverLetter string         `json:"cover_letter,omitempty"`
	BidAmount   float64        `json:"bid_amount"`
	Duration    string         `json:"duration,omitempty"`
	Status      ProposalStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
