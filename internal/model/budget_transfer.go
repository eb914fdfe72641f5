package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransferStatus enum constants
const (
	TransferStatusPending   = "PENDING"
	TransferStatusCompleted = "COMPLETED"
	TransferStatusRejected  = "REJECTED"
)

// BudgetTransfer represents a fund movement between two facilities.
//
// Lifecycle: PENDING -> COMPLETED (creates an inbound income transaction at
// the destination facility) or PENDING -> REJECTED. COMPLETED and REJECTED
// are terminal; no further transition is valid.
type BudgetTransfer struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code           string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	FromFacilityID uuid.UUID  `gorm:"type:uuid;not null;index" json:"from_facility_id"`
	FromFacility   *Facility  `gorm:"foreignKey:FromFacilityID" json:"from_facility,omitempty"`
	ToFacilityID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"to_facility_id"`
	ToFacility     *Facility  `gorm:"foreignKey:ToFacilityID" json:"to_facility,omitempty"`

	// Amount in the original currency plus the normalized base-currency
	// amount, computed and persisted at creation time.
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Currency     string          `gorm:"type:varchar(10);not null;default:'IDR'" json:"currency"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1" json:"exchange_rate"`
	BaseAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"base_amount"`

	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"` // PENDING, COMPLETED, REJECTED
	Notes           string     `gorm:"type:text" json:"notes"`
	RequestedBy     *uuid.UUID `gorm:"type:uuid;index" json:"requested_by"`
	Requester       *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectedBy      *uuid.UUID `gorm:"type:uuid" json:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (t *BudgetTransfer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
