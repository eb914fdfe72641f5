package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CampaignStatus enum constants
const (
	CampaignStatusPendingApproval = "PENDING_APPROVAL"
	CampaignStatusActive          = "ACTIVE"
	CampaignStatusRejected        = "REJECTED"
	CampaignStatusCompleted       = "COMPLETED"
)

// Campaign represents a qurban donation campaign run by a facility.
// Approval moves it from PENDING_APPROVAL to ACTIVE; rejection to REJECTED.
// No cascade on either transition.
type Campaign struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility        *Facility       `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	TargetAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"target_amount"`
	CollectedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"collected_amount"`
	Currency        string          `gorm:"type:varchar(10);not null;default:'IDR'" json:"currency"`
	StartDate       *time.Time      `json:"start_date"`
	EndDate         *time.Time      `json:"end_date"`
	Status          string          `gorm:"type:varchar(20);not null;default:'PENDING_APPROVAL';index" json:"status"`
	RequestedBy     *uuid.UUID      `gorm:"type:uuid;index" json:"requested_by"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
