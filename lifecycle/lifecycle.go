// Package lifecycle implements the contract state machine: one operation per
// transition, validated up front against the caller's role and the contract's
// current state before anything is persisted.
//
// The state graph:
//
//	draft -> pending_review -> {approved | changes_requested}
//	changes_requested -> draft            (revision cycle, the only back-edge)
//	approved -> signed                    (automatic once both parties sign)
//	signed -> completed
//
// Payment is an independent axis gated by the lifecycle: milestones can only
// be paid while the contract is approved, and signing requires full payment.
package lifecycle

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/pkg/logger"
	"github.com/google/uuid"
)

// Notification events emitted after successful transitions.
const (
	EventCreated          = "contract.created"
	EventSubmitted        = "contract.submitted"
	EventAccepted         = "contract.accepted"
	EventChangesRequested = "contract.changes_requested"
	EventRevised          = "contract.revised"
	EventPayment          = "contract.payment"
	EventSigned           = "contract.signed"
	EventExecuted         = "contract.executed"
	EventCompleted        = "contract.completed"
	EventMilestone        = "contract.milestone"
	EventPaymentReset     = "contract.payment_reset"
)

// defaultMaxAttempts bounds the reload-retry loop on version conflicts.
const defaultMaxAttempts = 3

// Caller identifies the authenticated user invoking an operation. It is
// supplied by the auth layer; the lifecycle never parses credentials.
type Caller struct {
	UserID string
	Role   model.Role
}

// DraftFields carries the editable content of a contract draft.
type DraftFields struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Terms       string            `json:"terms"`
	TotalAmount float64           `json:"total_amount"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Milestones  []model.Milestone `json:"milestones"`
}

// Lifecycle governs contract status transitions, signature application and
// payment gating. It owns no state beyond its collaborators.
type Lifecycle struct {
	store       ContractStore
	proposals   ProposalSource
	sink        NotificationSink
	now         func() time.Time
	maxAttempts int
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithNotifications attaches a sink informed of transitions.
func WithNotifications(sink NotificationSink) Option {
	return func(l *Lifecycle) { l.sink = sink }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) { l.now = now }
}

// New creates a Lifecycle backed by the given store and proposal source.
func New(store ContractStore, proposals ProposalSource, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		store:       store,
		proposals:   proposals,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateFromProposal converts an accepted proposal into a draft contract.
// One contract per proposal; the parties are fixed here and never change.
func (l *Lifecycle) CreateFromProposal(ctx context.Context, caller Caller, proposalID string, fields DraftFields) (*model.Contract, error) {
	if caller.Role != model.RoleBusiness {
		return nil, newError(KindForbidden, "only a business can create a contract")
	}

	ref, err := l.proposals.ProposalRef(ctx, proposalID)
	if err != nil || ref == nil || !ref.Accepted {
		return nil, newError(KindInvalidProposalState, "proposal %s is not in an accepted state", proposalID)
	}
	if ref.BusinessID != caller.UserID {
		return nil, newError(KindForbidden, "caller is not the business party of proposal %s", proposalID)
	}

	if err := validateDraft(&fields); err != nil {
		return nil, err
	}

	now := l.now()
	contract := &model.Contract{
		ID:            uuid.New().String(),
		JobID:         ref.JobID,
		ProposalID:    ref.ProposalID,
		BusinessID:    ref.BusinessID,
		StudentID:     ref.StudentID,
		Status:        model.ContractDraft,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	applyDraft(contract, &fields)

	if err := l.store.Create(ctx, contract); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, newError(KindDuplicateContract, "a contract already exists for proposal %s", proposalID)
		}
		return nil, err
	}

	l.emit(ctx, EventCreated, contract)
	return contract, nil
}

// SubmitForReview moves a draft to pending review. Business party only.
func (l *Lifecycle) SubmitForReview(ctx context.Context, caller Caller, contractID string) (*model.Contract, error) {
	return l.mutate(ctx, contractID, EventSubmitted, func(c *model.Contract) error {
		if err := requireParty(c, caller, model.RoleBusiness); err != nil {
			return err
		}
		if c.Status != model.ContractDraft {
			return newError(KindInvalidTransition, "cannot submit contract in status %s", c.Status)
		}
		c.Status = model.ContractPendingReview
		return nil
	})
}

// Accept approves a contract under review. Student party only.
func (l *Lifecycle) Accept(ctx context.Context, caller Caller, contractID string) (*model.Contract, error) {
	return l.mutate(ctx, contractID, EventAccepted, func(c *model.Contract) error {
		if err := requireParty(c, caller, model.RoleStudent); err != nil {
			return err
		}
		if c.Status != model.ContractPendingReview {
			return newError(KindInvalidTransition, "cannot accept contract in status %s", c.Status)
		}
		c.Status = model.ContractApproved
		return nil
	})
}

// RequestChanges sends a contract under review back to the business with a
// note. The change request history is append-only.
func (l *Lifecycle) RequestChanges(ctx context.Context, caller Caller, contractID, message string) (*model.Contract, error) {
	if strings.TrimSpace(message) == "" {
		return nil, newError(KindEmptyMessage, "change request message must not be blank")
	}
	return l.mutate(ctx, contractID, EventChangesRequested, func(c *model.Contract) error {
		if err := requireParty(c, caller, model.RoleStudent); err != nil {
			return err
		}
		if c.Status != model.ContractPendingReview {
			return newError(KindInvalidTransition, "cannot request changes on contract in status %s", c.Status)
		}
		c.Status = model.ContractChangesRequested
		c.ChangeRequests = append(c.ChangeRequests, model.ChangeRequest{
			Message:   strings.TrimSpace(message),
			Status:    model.ChangeRequestPending,
			CreatedAt: l.now(),
		})
		return nil
	})
}

// ReviseDraft applies field edits after changes were requested and returns
// the contract to draft. Pending change requests are marked resolved.
func (l *Lifecycle) ReviseDraft(ctx context.Context, caller Caller, contractID string, fields DraftFields) (*model.Contract, error) {
	if err := validateDraft(&fields); err != nil {
		return nil, err
	}
	return l.mutate(ctx, contractID, EventRevised, func(c *model.Contract) error {
		if err := requireParty(c, caller, model.RoleBusiness); err != nil {
			return err
		}
		if c.Status != model.ContractChangesRequested {
			return newError(KindInvalidTransition, "cannot revise contract in status %s", c.Status)
		}
		applyDraft(c, &fields)
		for i := range c.ChangeRequests {
			if c.ChangeRequests[i].Status == model.ChangeRequestPending {
				c.ChangeRequests[i].Status = model.ChangeRequestResolved
			}
		}
		c.Status = model.ContractDraft
		return nil
	})
}

// CompletePayment records a payment confirmation against an approved
// contract. With a milestone id it settles that milestone, moving the payment
// status to partial until every milestone is paid; with an empty milestone id
// it settles all outstanding milestones at once. Replaying a confirmation
// reference is rejected with AlreadyPaid and leaves state unchanged.
func (l *Lifecycle) CompletePayment(ctx context.Context, caller Caller, contractID, milestoneID, paymentRef string) (*model.Contract, error) {
	if strings.TrimSpace(paymentRef) == "" {
		return nil, newError(KindValidation, "payment reference is required")
	}
	return l.mutate(ctx, contractID, EventPayment, func(c *model.Contract) error {
		if err := requireParty(c, caller, model.RoleBusiness); err != nil {
			return err
		}
		if c.Status != model.ContractApproved {
			return newError(KindInvalidTransition, "payment is only allowed on an approved contract, status is %s", c.Status)
		}
		if c.HasPaymentRef(paymentRef) {
			return newError(KindAlreadyPaid, "payment reference %s already applied", paymentRef)
		}

		now := l.now()
		if milestoneID != "" {
			m := c.MilestoneByID(milestoneID)
			if m == nil {
				return newError(KindNotFound, "milestone %s not found", milestoneID)
			}
			if m.Paid {
				return newError(KindAlreadyPaid, "milestone %s is already paid", milestoneID)
			}
			m.Paid = true
			m.PaymentRef = paymentRef
			m.PaidAt = &now
		} else {
			if c.PaymentStatus == model.PaymentPaid {
				return newError(KindAlreadyPaid, "contract is already fully paid")
			}
			for i := range c.Milestones {
				if !c.Milestones[i].Paid {
					c.Milestones[i].Paid = true
					c.Milestones[i].PaymentRef = paymentRef
					paidAt := now
					c.Milestones[i].PaidAt = &paidAt
				}
			}
		}

		if c.PaidMilestones() == len(c.Milestones) {
			c.PaymentStatus = model.PaymentPaid
		} else {
			c.PaymentStatus = model.PaymentPartial
		}
		return nil
	})
}

// Sign applies one party's signature. Payment must be complete first, each
// role signs at most once, and the second signature moves the contract to
// signed automatically.
func (l *Lifecycle) Sign(ctx context.Context, caller Caller, contractID string, role model.Role, signatureKey string) (*model.Contract, error) {
	if role != model.RoleBusiness && role != model.RoleStudent {
		return nil, newError(KindForbidden, "role %s cannot sign", role)
	}
	if caller.Role != role {
		return nil, newError(KindForbidden, "caller role %s does not match signing role %s", caller.Role, role)
	}
	if strings.TrimSpace(signatureKey) == "" {
		return nil, newError(KindValidation, "signature is required")
	}
	return l.mutate(ctx, contractID, EventSigned, func(c *model.Contract) error {
		if err := requireParty(c, caller, role); err != nil {
			return err
		}
		if c.PaymentStatus != model.PaymentPaid {
			return newError(KindPaymentRequired, "contract must be fully paid before signing")
		}

		now := l.now()
		switch role {
		case model.RoleBusiness:
			if c.BusinessSignature != "" {
				return newError(KindAlreadySigned, "business party has already signed")
			}
			c.BusinessSignature = signatureKey
			c.BusinessSignedAt = &now
		case model.RoleStudent:
			if c.StudentSignature != "" {
				return newError(KindAlreadySigned, "student party has already signed")
			}
			c.StudentSignature = signatureKey
			c.StudentSignedAt = &now
		}

		if c.FullyExecuted() {
			c.Status = model.ContractSigned
		}
		return nil
	})
}

// AdvanceMilestone moves one milestone a single step forward. The student
// drives work progress (pending -> in_progress -> completed); the business
// grants approval (completed -> approved). Only valid on a signed contract.
func (l *Lifecycle) AdvanceMilestone(ctx context.Context, caller Caller, contractID, milestoneID string, to model.MilestoneStatus) (*model.Contract, error) {
	return l.mutate(ctx, contractID, EventMilestone, func(c *model.Contract) error {
		if err := requireAnyParty(c, caller); err != nil {
			return err
		}
		if c.Status != model.ContractSigned {
			return newError(KindInvalidTransition, "milestones can only advance on a signed contract, status is %s", c.Status)
		}
		m := c.MilestoneByID(milestoneID)
		if m == nil {
			return newError(KindNotFound, "milestone %s not found", milestoneID)
		}

		type step struct {
			from model.MilestoneStatus
			role model.Role
		}
		allowed := map[model.MilestoneStatus]step{
			model.MilestoneInProgress: {model.MilestonePending, model.RoleStudent},
			model.MilestoneCompleted:  {model.MilestoneInProgress, model.RoleStudent},
			model.MilestoneApproved:   {model.MilestoneCompleted, model.RoleBusiness},
		}
		s, ok := allowed[to]
		if !ok {
			return newError(KindInvalidTransition, "milestone cannot be set to %s", to)
		}
		if caller.Role != s.role {
			return newError(KindForbidden, "role %s cannot set milestone to %s", caller.Role, to)
		}
		if m.Status != s.from {
			return newError(KindInvalidTransition, "milestone is %s, cannot move to %s", m.Status, to)
		}
		m.Status = to
		return nil
	})
}

// Complete closes out a signed contract once every milestone is approved.
// Either party may trigger it.
func (l *Lifecycle) Complete(ctx context.Context, caller Caller, contractID string) (*model.Contract, error) {
	return l.mutate(ctx, contractID, EventCompleted, func(c *model.Contract) error {
		if err := requireAnyParty(c, caller); err != nil {
			return err
		}
		if c.Status != model.ContractSigned {
			return newError(KindInvalidTransition, "cannot complete contract in status %s", c.Status)
		}
		if !c.AllMilestonesApproved() {
			return newError(KindInvalidTransition, "all milestones must be approved before completion")
		}
		c.Status = model.ContractCompleted
		return nil
	})
}

// ResetPayment clears milestone payments on an approved contract. Support
// capability only; business and student roles are rejected.
func (l *Lifecycle) ResetPayment(ctx context.Context, caller Caller, contractID string) (*model.Contract, error) {
	if caller.Role != model.RoleAdmin {
		return nil, newError(KindForbidden, "payment reset is restricted to administrators")
	}
	return l.mutate(ctx, contractID, EventPaymentReset, func(c *model.Contract) error {
		if c.Status != model.ContractApproved {
			return newError(KindInvalidTransition, "cannot reset payment on contract in status %s", c.Status)
		}
		for i := range c.Milestones {
			c.Milestones[i].Paid = false
			c.Milestones[i].PaymentRef = ""
			c.Milestones[i].PaidAt = nil
		}
		c.PaymentStatus = model.PaymentPending
		return nil
	})
}

// Get returns a contract visible to the caller: its parties or an admin.
func (l *Lifecycle) Get(ctx context.Context, caller Caller, contractID string) (*model.Contract, error) {
	c, err := l.store.Get(ctx, contractID)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(KindNotFound, "contract %s not found", contractID)
	}
	if err != nil {
		return nil, err
	}
	if caller.Role != model.RoleAdmin {
		if err := requireAnyParty(c, caller); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// List returns the caller's contracts on either side.
func (l *Lifecycle) List(ctx context.Context, caller Caller) ([]*model.Contract, error) {
	return l.store.ListByParty(ctx, caller.UserID)
}

// mutate runs one read-validate-write cycle against the store, reloading and
// revalidating on version conflicts so concurrent writers (two parties
// signing in overlapping requests) both land without losing an update.
func (l *Lifecycle) mutate(ctx context.Context, contractID, event string, fn func(*model.Contract) error) (*model.Contract, error) {
	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		c, err := l.store.Get(ctx, contractID)
		if errors.Is(err, ErrNotFound) {
			return nil, newError(KindNotFound, "contract %s not found", contractID)
		}
		if err != nil {
			return nil, err
		}

		if err := fn(c); err != nil {
			return nil, err
		}
		c.UpdatedAt = l.now()

		err = l.store.Update(ctx, c, c.Version)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		l.emit(ctx, event, c)
		return c, nil
	}
	return nil, newError(KindVersionConflict, "contract %s kept changing concurrently, reload and retry", contractID)
}

// emit informs the notification sink without blocking or failing the
// transition that triggered it.
func (l *Lifecycle) emit(ctx context.Context, event string, c *model.Contract) {
	if l.sink == nil {
		return
	}
	recipients := []string{c.BusinessID, c.StudentID}
	id := c.ID
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.sink.Notify(nctx, event, id, recipients); err != nil {
			logger.Warn(ctx, "notification delivery failed", "event", event, "contract_id", id, "error", err)
		}
	}()
}

func requireParty(c *model.Contract, caller Caller, role model.Role) error {
	if caller.Role != role {
		return newError(KindForbidden, "operation requires the %s party", role)
	}
	switch role {
	case model.RoleBusiness:
		if c.BusinessID != caller.UserID {
			return newError(KindForbidden, "caller is not the business party of this contract")
		}
	case model.RoleStudent:
		if c.StudentID != caller.UserID {
			return newError(KindForbidden, "caller is not the student party of this contract")
		}
	default:
		return newError(KindForbidden, "role %s has no party on a contract", role)
	}
	return nil
}

func requireAnyParty(c *model.Contract, caller Caller) error {
	if caller.UserID == c.BusinessID || caller.UserID == c.StudentID {
		return nil
	}
	return newError(KindForbidden, "caller is not a party of this contract")
}

func validateDraft(f *DraftFields) error {
	if strings.TrimSpace(f.Title) == "" {
		return newError(KindValidation, "title is required")
	}
	if len(f.Milestones) == 0 {
		return newError(KindValidation, "at least one milestone is required")
	}
	var sum float64
	for i := range f.Milestones {
		m := &f.Milestones[i]
		if strings.TrimSpace(m.Title) == "" {
			return newError(KindValidation, "milestone %d: title is required", i+1)
		}
		if m.Amount < 0 {
			return newError(KindValidation, "milestone %d: amount must not be negative", i+1)
		}
		sum += m.Amount
	}
	if math.Abs(sum-f.TotalAmount) > 0.01 {
		return newError(KindValidation, "milestone amounts (%.2f) must sum to the total amount (%.2f)", sum, f.TotalAmount)
	}
	if !f.EndDate.IsZero() && !f.StartDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return newError(KindValidation, "end date must not be before start date")
	}
	return nil
}

// applyDraft copies draft content onto the contract. Milestones get fresh ids
// and start pending; draft edits happen before approval so no payment state
// can be carried in.
func applyDraft(c *model.Contract, f *DraftFields) {
	c.Title = strings.TrimSpace(f.Title)
	c.Description = f.Description
	c.Terms = f.Terms
	c.TotalAmount = f.TotalAmount
	c.StartDate = f.StartDate
	c.EndDate = f.EndDate

	milestones := make([]model.Milestone, len(f.Milestones))
	for i := range f.Milestones {
		m := f.Milestones[i]
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.Status = model.MilestonePending
		m.Paid = false
		m.PaymentRef = ""
		m.PaidAt = nil
		milestones[i] = m
	}
	c.Milestones = milestones
}
