package model

import (
	"time"
)

// ContractStatus is the contract's primary lifecycle state.
type ContractStatus string

const (
	ContractDraft            ContractStatus = "draft"
	ContractPendingReview    ContractStatus = "pending_review"
	ContractChangesRequested ContractStatus = "changes_requested"
	ContractApproved         ContractStatus = "approved"
	ContractSigned           ContractStatus = "signed"
	ContractCompleted        ContractStatus = "completed"
)

// PaymentStatus tracks money movement, independent from the lifecycle status
// but constrained by it: it only advances once the contract is approved.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// MilestoneStatus tracks progress of a single deliverable.
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneApproved   MilestoneStatus = "approved"
)

// Milestone is a dated, priced sub-deliverable within a contract.
type Milestone struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Amount      float64         `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Status      MilestoneStatus `json:"status"`
	Paid        bool            `json:"paid"`
	PaymentRef  string          `json:"payment_ref,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

// ChangeRequest is a student-authored note asking the business to revise
// contract terms before approval. The list is append-only.
type ChangeRequest struct {
	Message   string    `json:"message"`
	Status    string    `json:"status"` // pending, resolved
	CreatedAt time.Time `json:"created_at"`
}

const (
	ChangeRequestPending  = "pending"
	ChangeRequestResolved = "resolved"
)

// Contract is the binding agreement between one business and one student,
// derived from an accepted proposal. Parties are fixed at creation.
type Contract struct {
	ID         string `json:"id"`
	JobID      string `json:"job_id"`
	ProposalID string `json:"proposal_id"`
	BusinessID string `json:"business_id"`
	StudentID  string `json:"student_id"`

	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Terms       string      `json:"terms,omitempty"`
	Milestones  []Milestone `json:"milestones"`
	TotalAmount float64     `json:"total_amount"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`

	Status        ContractStatus `json:"status"`
	PaymentStatus PaymentStatus  `json:"payment_status"`

	// Signature blobs are object keys into file storage; the contract is
	// fully executed iff both are present.
	BusinessSignature string     `json:"business_signature,omitempty"`
	BusinessSignedAt  *time.Time `json:"business_signed_at,omitempty"`
	StudentSignature  string     `json:"student_signature,omitempty"`
	StudentSignedAt   *time.Time `json:"student_signed_at,omitempty"`

	ChangeRequests []ChangeRequest `json:"change_requests,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version stamps every persisted revision for optimistic concurrency.
	Version int64 `json:"version"`
}

// FullyExecuted reports whether both parties have signed.
func (c *Contract) FullyExecuted() bool {
	return c.BusinessSignature != "" && c.StudentSignature != ""
}

// AllMilestonesApproved reports whether every milestone reached approval.
func (c *Contract) AllMilestonesApproved() bool {
	for i := range c.Milestones {
		if c.Milestones[i].Status != MilestoneApproved {
			return false
		}
	}
	return len(c.Milestones) > 0
}

// PaidMilestones counts milestones with a settled payment.
func (c *Contract) PaidMilestones() int {
	n := 0
	for i := range c.Milestones {
		if c.Milestones[i].Paid {
			n++
		}
	}
	return n
}

// MilestoneByID returns a pointer into the milestone slice, or nil.
func (c *Contract) MilestoneByID(id string) *Milestone {
	for i := range c.Milestones {
		if c.Milestones[i].ID == id {
			return &c.Milestones[i]
		}
	}
	return nil
}

// HasPaymentRef reports whether any milestone already consumed the given
// payment reference. Keeps payment confirmation idempotent across replays.
func (c *Contract) HasPaymentRef(ref string) bool {
	if ref == "" {
		return false
	}
	for i := range c.Milestones {
		if c.Milestones[i].PaymentRef == ref {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so store reads never alias live records.
func (c *Contract) Clone() *Contract {
	cp := *c
	cp.Milestones = make([]Milestone, len(c.Milestones))
	copy(cp.Milestones, c.Milestones)
	cp.ChangeRequests = make([]ChangeRequest, len(c.ChangeRequests))
	copy(cp.ChangeRequests, c.ChangeRequests)
	if c.BusinessSignedAt != nil {
		t := *c.BusinessSignedAt
		cp.BusinessSignedAt = &t
	}
	if c.StudentSignedAt != nil {
		t := *c.StudentSignedAt
		cp.StudentSignedAt = &t
	}
	for i := range c.Milestones {
		if c.Milestones[i].PaidAt != nil {
			t := *c.Milestones[i].PaidAt
			cp.Milestones[i].PaidAt = &t
		}
	}
	return &cp
}
