package service

import (
	"context"
	"sync"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/lifecycle"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
)

// JobStore is an in-memory store for job postings.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*model.Job)}
}

func (s *JobStore) Save(job *model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.UpdatedAt = time.Now()
	cp := *job
	s.jobs[job.ID] = &cp
}

func (s *JobStore) Get(id string) *model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if j, ok := s.jobs[id]; ok {
		cp := *j
		return &cp
	}
	return nil
}

// ListOpen returns jobs students can still propose to.
func (s *JobStore) ListOpen() []*model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*model.Job
	for _, j := range s.jobs {
		if j.Status == model.JobOpen {
			cp := *j
			result = append(result, &cp)
		}
	}
	return result
}

func (s *JobStore) ListByBusiness(businessID string) []*model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*model.Job
	for _, j := range s.jobs {
		if j.BusinessID == businessID {
			cp := *j
			result = append(result, &cp)
		}
	}
	return result
}

func (s *JobStore) UpdateStatus(id string, status model.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = status
		j.UpdatedAt = time.Now()
	}
}

// ProposalStore is an in-memory store for proposals.
type ProposalStore struct {
	mu        sync.RWMutex
	proposals map[string]*model.Proposal
}

func NewProposalStore() *ProposalStore {
	return &ProposalStore{proposals: make(map[string]*model.Proposal)}
}

func (s *ProposalStore) Save(p *model.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = time.Now()
	cp := *p
	s.proposals[p.ID] = &cp
}

func (s *ProposalStore) Get(id string) *model.Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.proposals[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (s *ProposalStore) ListByJob(jobID string) []*model.Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*model.Proposal
	for _, p := range s.proposals {
		if p.JobID == jobID {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result
}

// HasProposal reports whether the student already proposed to the job.
func (s *ProposalStore) HasProposal(jobID, studentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.proposals {
		if p.JobID == jobID && p.StudentID == studentID {
			return true
		}
	}
	return false
}

func (s *ProposalStore) SetStatus(id string, status model.ProposalStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.proposals[id]; ok {
		p.Status = status
		p.UpdatedAt = time.Now()
	}
}

// RejectOthers marks every other submitted proposal on the job rejected.
// Called when a business accepts one proposal.
func (s *ProposalStore) RejectOthers(jobID, acceptedID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.proposals {
		if p.JobID == jobID && p.ID != acceptedID && p.Status == model.ProposalSubmitted {
			p.Status = model.ProposalRejected
			p.UpdatedAt = time.Now()
		}
	}
}

// ProposalResolver adapts the job and proposal stores into the view the
// contract lifecycle needs when converting a proposal into a contract.
type ProposalResolver struct {
	Jobs      *JobStore
	Proposals *ProposalStore
}

func (r *ProposalResolver) ProposalRef(ctx context.Context, proposalID string) (*lifecycle.ProposalRef, error) {
	p := r.Proposals.Get(proposalID)
	if p == nil {
		return nil, lifecycle.ErrNotFound
	}
	job := r.Jobs.Get(p.JobID)
	if job == nil {
		return nil, lifecycle.ErrNotFound
	}
	return &lifecycle.ProposalRef{
		ProposalID: p.ID,
		JobID:      p.JobID,
		BusinessID: job.BusinessID,
		StudentID:  p.StudentID,
		Accepted:   p.Status == model.ProposalAccepted,
	}, nil
}
