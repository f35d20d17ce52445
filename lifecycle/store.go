package lifecycle

import (
	"context"
	"errors"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
)

// Sentinel errors a ContractStore implementation must return for the
// conditions the lifecycle cares about.
var (
	ErrNotFound        = errors.New("contract not found")
	ErrDuplicate       = errors.New("contract already exists for proposal")
	ErrVersionConflict = errors.New("contract version conflict")
)

// ContractStore persists contract records. Update must compare the expected
// version and fail with ErrVersionConflict on mismatch so concurrent
// signatures are never lost (the store is the only shared resource).
type ContractStore interface {
	Get(ctx context.Context, id string) (*model.Contract, error)
	GetByProposal(ctx context.Context, proposalID string) (*model.Contract, error)
	Create(ctx context.Context, contract *model.Contract) error
	Update(ctx context.Context, contract *model.Contract, expectedVersion int64) error
	ListByParty(ctx context.Context, userID string) ([]*model.Contract, error)
}

// ProposalRef is the view of an accepted proposal the lifecycle needs to
// create a contract: the parties and the job it binds.
type ProposalRef struct {
	ProposalID string
	JobID      string
	BusinessID string
	StudentID  string
	Accepted   bool
}

// ProposalSource resolves proposals. Upstream owns proposal state; the
// lifecycle only checks the accepted flag.
type ProposalSource interface {
	ProposalRef(ctx context.Context, proposalID string) (*ProposalRef, error)
}

// NotificationSink is informed of transitions. Fire-and-forget: failures are
// logged by the lifecycle and never roll back a transition.
type NotificationSink interface {
	Notify(ctx context.Context, event string, contractID string, recipients []string) error
}
