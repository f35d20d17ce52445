package service

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/lifecycle"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// milestoneList stores the ordered milestones as a JSONB column.
type milestoneList []model.Milestone

func (l milestoneList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *milestoneList) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("unsupported milestone column type %T", src)
	}
}

// changeRequestList stores the append-only change request history as JSONB.
type changeRequestList []model.ChangeRequest

func (l changeRequestList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *changeRequestList) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("unsupported change request column type %T", src)
	}
}

// contractRecord is the persisted row shape for a contract.
type contractRecord struct {
	ID         string `gorm:"column:id;type:varchar(64);primaryKey"`
	JobID      string `gorm:"column:job_id;type:varchar(64);not null;index"`
	ProposalID string `gorm:"column:proposal_id;type:varchar(64);not null;uniqueIndex"`
	BusinessID string `gorm:"column:business_id;type:varchar(64);not null;index"`
	StudentID  string `gorm:"column:student_id;type:varchar(64);not null;index"`

	Title       string `gorm:"column:title;not null"`
	Description string `gorm:"column:description;type:text"`
	Terms       string `gorm:"column:terms;type:text"`

	Milestones     milestoneList     `gorm:"column:milestones;type:jsonb"`
	ChangeRequests changeRequestList `gorm:"column:change_requests;type:jsonb"`

	TotalAmount float64   `gorm:"column:total_amount;not null"`
	StartDate   time.Time `gorm:"column:start_date"`
	EndDate     time.Time `gorm:"column:end_date"`

	Status        string `gorm:"column:status;type:varchar(32);not null"`
	PaymentStatus string `gorm:"column:payment_status;type:varchar(16);not null"`

	BusinessSignature string     `gorm:"column:business_signature;type:text"`
	BusinessSignedAt  *time.Time `gorm:"column:business_signed_at"`
	StudentSignature  string     `gorm:"column:student_signature;type:text"`
	StudentSignedAt   *time.Time `gorm:"column:student_signed_at"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
	Version   int64     `gorm:"column:version;not null"`
}

func (contractRecord) TableName() string {
	return "contracts"
}

// GormContractStore persists contracts in Postgres. Optimistic concurrency:
// updates match on (id, version) and report a conflict when no row moved.
type GormContractStore struct {
	db *gorm.DB
}

// NewGormContractStore connects to Postgres and migrates the contracts table.
func NewGormContractStore(dsn string) (*GormContractStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&contractRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate contracts table: %w", err)
	}
	return &GormContractStore{db: db}, nil
}

func (s *GormContractStore) Get(ctx context.Context, id string) (*model.Contract, error) {
	var rec contractRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, lifecycle.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRecord(&rec), nil
}

func (s *GormContractStore) GetByProposal(ctx context.Context, proposalID string) (*model.Contract, error) {
	var rec contractRecord
	err := s.db.WithContext(ctx).First(&rec, "proposal_id = ?", proposalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, lifecycle.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRecord(&rec), nil
}

func (s *GormContractStore) Create(ctx context.Context, contract *model.Contract) error {
	err := s.db.WithContext(ctx).Create(toRecord(contract)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return lifecycle.ErrDuplicate
	}
	return err
}

func (s *GormContractStore) Update(ctx context.Context, contract *model.Contract, expectedVersion int64) error {
	rec := toRecord(contract)
	rec.Version = expectedVersion + 1

	res := s.db.WithContext(ctx).
		Model(&contractRecord{}).
		Where("id = ? AND version = ?", contract.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&contractRecord{}).Where("id = ?", contract.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return lifecycle.ErrNotFound
		}
		return lifecycle.ErrVersionConflict
	}
	contract.Version = rec.Version
	return nil
}

func (s *GormContractStore) ListByParty(ctx context.Context, userID string) ([]*model.Contract, error) {
	var recs []contractRecord
	err := s.db.WithContext(ctx).
		Where("business_id = ? OR student_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	contracts := make([]*model.Contract, len(recs))
	for i := range recs {
		contracts[i] = fromRecord(&recs[i])
	}
	return contracts, nil
}

func toRecord(c *model.Contract) *contractRecord {
	return &contractRecord{
		ID:                c.ID,
		JobID:             c.JobID,
		ProposalID:        c.ProposalID,
		BusinessID:        c.BusinessID,
		StudentID:         c.StudentID,
		Title:             c.Title,
		Description:       c.Description,
		Terms:             c.Terms,
		Milestones:        milestoneList(c.Milestones),
		ChangeRequests:    changeRequestList(c.ChangeRequests),
		TotalAmount:       c.TotalAmount,
		StartDate:         c.StartDate,
		EndDate:           c.EndDate,
		Status:            string(c.Status),
		PaymentStatus:     string(c.PaymentStatus),
		BusinessSignature: c.BusinessSignature,
		BusinessSignedAt:  c.BusinessSignedAt,
		StudentSignature:  c.StudentSignature,
		StudentSignedAt:   c.StudentSignedAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
		Version:           c.Version,
	}
}

func fromRecord(r *contractRecord) *model.Contract {
	return &model.Contract{
		ID:                r.ID,
		JobID:             r.JobID,
		ProposalID:        r.ProposalID,
		BusinessID:        r.BusinessID,
		StudentID:         r.StudentID,
		Title:             r.Title,
		Description:       r.Description,
		Terms:             r.Terms,
		Milestones:        []model.Milestone(r.Milestones),
		ChangeRequests:    []model.ChangeRequest(r.ChangeRequests),
		TotalAmount:       r.TotalAmount,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		Status:            model.ContractStatus(r.Status),
		PaymentStatus:     model.PaymentStatus(r.PaymentStatus),
		BusinessSignature: r.BusinessSignature,
		BusinessSignedAt:  r.BusinessSignedAt,
		StudentSignature:  r.StudentSignature,
		StudentSignedAt:   r.StudentSignedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Version:           r.Version,
	}
}
