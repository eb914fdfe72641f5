package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType enum constants
const (
	TransactionTypeIncome  = "INCOME"
	TransactionTypeExpense = "EXPENSE"
)

// TransactionStatus enum constants
const (
	TransactionStatusPending  = "PENDING"
	TransactionStatusApproved = "APPROVED"
	TransactionStatusRejected = "REJECTED"
)

// Transaction represents an income or expense entry with multi-currency
// support. BaseAmount is the amount converted to the base currency at the
// recorded exchange rate, persisted at creation time.
type Transaction struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionNumber string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"transaction_number"`
	FacilityID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility          *Facility  `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Type              string     `gorm:"type:varchar(10);not null;index" json:"type"` // INCOME, EXPENSE
	CategoryID        *uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Category          *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	ProjectID         *uuid.UUID `gorm:"type:uuid;index" json:"project_id"`
	Project           *Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	VendorID          *uuid.UUID `gorm:"type:uuid;index" json:"vendor_id"`
	Vendor            *Partner   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`

	// Currency & Exchange Rate
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Currency     string          `gorm:"type:varchar(10);not null;default:'IDR'" json:"currency"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1" json:"exchange_rate"` // 1 if base currency
	BaseAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"base_amount"`             // = amount * exchange_rate

	Date            time.Time  `gorm:"not null;index" json:"date"`
	Description     string     `gorm:"type:text" json:"description"`
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"` // PENDING, APPROVED, REJECTED
	RequestedBy     *uuid.UUID `gorm:"type:uuid;index" json:"requested_by"`
	Requester       *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`

	Documents []TransactionDocument `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TransactionDocument is a file attached to a transaction (receipt, invoice
// scan). Documents of high-value approved transactions are copied into the
// linked project's document store.
type TransactionDocument struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index" json:"transaction_id"`
	FileName      string    `gorm:"type:varchar(255);not null" json:"file_name"`
	FileURL       string    `gorm:"type:text;not null" json:"file_url"`
	CreatedAt     time.Time `json:"created_at"`
}

func (d *TransactionDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
