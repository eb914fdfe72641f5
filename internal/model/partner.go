package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerType enum constants
const (
	PartnerTypeVendor   = "VENDOR"
	PartnerTypeCustomer = "CUSTOMER"
	PartnerTypeBoth     = "BOTH"
)

// PartnerStatus enum constants
const (
	PartnerStatusPending  = "PENDING"
	PartnerStatusApproved = "APPROVED"
	PartnerStatusRejected = "REJECTED"
)

// Partner represents a vendor/customer record. New records enter the
// approval queue as PENDING; approval and rejection are pure status
// transitions with no cascade.
type Partner struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility      *Facility      `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Type          string         `gorm:"type:varchar(20);not null;index" json:"type"` // VENDOR, CUSTOMER, BOTH
	TaxCode       string         `gorm:"type:varchar(50)" json:"tax_code"`
	CompanyName   string         `gorm:"type:varchar(255)" json:"company_name"`
	BankAccount   string         `gorm:"type:varchar(100)" json:"bank_account"`
	ContactPerson string         `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string         `gorm:"type:varchar(50)" json:"phone"`
	Email         string         `gorm:"type:varchar(255)" json:"email"`
	Status        string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"` // PENDING, APPROVED, REJECTED
	RequestedBy   *uuid.UUID     `gorm:"type:uuid;index" json:"requested_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Partner) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
