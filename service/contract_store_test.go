package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/lifecycle"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
)

func sampleContract(id, proposalID string) *model.Contract {
	now := time.Now()
	return &model.Contract{
		ID:            id,
		JobID:         "job-1",
		ProposalID:    proposalID,
		BusinessID:    "biz-1",
		StudentID:     "stu-1",
		Title:         "Landing page",
		TotalAmount:   4000,
		Status:        model.ContractDraft,
		PaymentStatus: model.PaymentPending,
		Milestones: []model.Milestone{
			{ID: "m-1", Title: "Build MVP", Amount: 4000, Status: model.MilestonePending, DueDate: now.AddDate(0, 1, 0)},
		},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

func TestContractStoreCreateAndGet(t *testing.T) {
	store := NewContractStore()
	ctx := context.Background()

	if err := store.Create(ctx, sampleContract("c-1", "p-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "c-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "Landing page" || got.Version != 1 {
		t.Errorf("unexpected contract: %+v", got)
	}

	byProp, err := store.GetByProposal(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetByProposal failed: %v", err)
	}
	if byProp.ID != "c-1" {
		t.Errorf("expected c-1, got %s", byProp.ID)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestContractStoreDuplicateProposal(t *testing.T) {
	store := NewContractStore()
	ctx := context.Background()

	if err := store.Create(ctx, sampleContract("c-1", "p-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err := store.Create(ctx, sampleContract("c-2", "p-1"))
	if !errors.Is(err, lifecycle.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for same proposal, got %v", err)
	}
}

func TestContractStoreVersionCheck(t *testing.T) {
	store := NewContractStore()
	ctx := context.Background()

	if err := store.Create(ctx, sampleContract("c-1", "p-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	c, _ := store.Get(ctx, "c-1")
	c.Status = model.ContractPendingReview
	if err := store.Update(ctx, c, 1); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if c.Version != 2 {
		t.Errorf("expected version bump to 2, got %d", c.Version)
	}

	// A writer still holding version 1 must be rejected
	stale := sampleContract("c-1", "p-1")
	stale.Status = model.ContractChangesRequested
	err := store.Update(ctx, stale, 1)
	if !errors.Is(err, lifecycle.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	got, _ := store.Get(ctx, "c-1")
	if got.Status != model.ContractPendingReview {
		t.Errorf("stale write must not land, status is %s", got.Status)
	}

	missing := sampleContract("c-missing", "p-2")
	if err := store.Update(ctx, missing, 1); !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestContractStoreCloneIsolation(t *testing.T) {
	store := NewContractStore()
	ctx := context.Background()

	original := sampleContract("c-1", "p-1")
	if err := store.Create(ctx, original); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Mutating either the input or a returned copy must not leak into the store
	original.Milestones[0].Paid = true
	first, _ := store.Get(ctx, "c-1")
	first.Status = model.ContractSigned
	first.Milestones[0].Title = "changed"

	second, _ := store.Get(ctx, "c-1")
	if second.Status != model.ContractDraft {
		t.Errorf("store record aliased by returned copy, status is %s", second.Status)
	}
	if second.Milestones[0].Paid || second.Milestones[0].Title != "Build MVP" {
		t.Errorf("milestone slice aliased: %+v", second.Milestones[0])
	}
}

func TestContractStoreListByParty(t *testing.T) {
	store := NewContractStore()
	ctx := context.Background()

	a := sampleContract("c-1", "p-1")
	b := sampleContract("c-2", "p-2")
	b.BusinessID = "biz-2"
	b.StudentID = "stu-1"
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	biz, err := store.ListByParty(ctx, "biz-1")
	if err != nil {
		t.Fatalf("ListByParty failed: %v", err)
	}
	if len(biz) != 1 || biz[0].ID != "c-1" {
		t.Errorf("expected only c-1 for biz-1, got %d contracts", len(biz))
	}

	stu, err := store.ListByParty(ctx, "stu-1")
	if err != nil {
		t.Fatalf("ListByParty failed: %v", err)
	}
	if len(stu) != 2 {
		t.Errorf("expected both contracts for stu-1, got %d", len(stu))
	}

	none, err := store.ListByParty(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListByParty failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no contracts, got %d", len(none))
	}
}
