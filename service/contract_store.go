package service

import (
	"context"
	"sync"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/lifecycle"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
)

// ContractStore is an in-memory contract store. It backs tests and the
// development configuration; production uses the Postgres store. Updates are
// guarded by a version check so concurrent writers detect each other, and
// reads return deep copies so callers never alias live records.
type ContractStore struct {
	mu         sync.RWMutex
	contracts  map[string]*model.Contract
	byProposal map[string]string // proposalID -> contractID
}

// NewContractStore creates an empty in-memory contract store.
func NewContractStore() *ContractStore {
	return &ContractStore{
		contracts:  make(map[string]*model.Contract),
		byProposal: make(map[string]string),
	}
}

func (s *ContractStore) Get(ctx context.Context, id string) (*model.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contracts[id]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *ContractStore) GetByProposal(ctx context.Context, proposalID string) (*model.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byProposal[proposalID]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	return s.contracts[id].Clone(), nil
}

func (s *ContractStore) Create(ctx context.Context, contract *model.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byProposal[contract.ProposalID]; exists {
		return lifecycle.ErrDuplicate
	}
	s.contracts[contract.ID] = contract.Clone()
	s.byProposal[contract.ProposalID] = contract.ID
	return nil
}

func (s *ContractStore) Update(ctx context.Context, contract *model.Contract, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.contracts[contract.ID]
	if !ok {
		return lifecycle.ErrNotFound
	}
	if current.Version != expectedVersion {
		return lifecycle.ErrVersionConflict
	}

	next := contract.Clone()
	next.Version = expectedVersion + 1
	s.contracts[contract.ID] = next
	contract.Version = next.Version
	return nil
}

func (s *ContractStore) ListByParty(ctx context.Context, userID string) ([]*model.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Contract
	for _, c := range s.contracts {
		if c.BusinessID == userID || c.StudentID == userID {
			result = append(result, c.Clone())
		}
	}
	return result, nil
}

// Count returns the number of contracts in the store
func (s *ContractStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contracts)
}
