package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectStatus enum constants
const (
	ProjectStatusPlanning  = "PLANNING"
	ProjectStatusOngoing   = "ONGOING"
	ProjectStatusCompleted = "COMPLETED"
)

// ProjectActivity type constants
const (
	ActivityBudgetApproved      = "BUDGET_APPROVED"
	ActivityTransactionApproved = "TRANSACTION_APPROVED"
	ActivityDocumentAttached    = "DOCUMENT_ATTACHED"
)

// Project represents a long-running initiative at a facility. Budget, Spent
// and Collected are cumulative base-currency totals maintained by approval
// cascades: approving a project-scoped budget adds its amount to Budget,
// approving a project-linked transaction adds its base amount to
// Spent (expense) or Collected (income).
type Project struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility    *Facility       `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Status      string          `gorm:"type:varchar(20);not null;default:'PLANNING'" json:"status"` // PLANNING, ONGOING, COMPLETED
	Budget      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"budget"`
	Spent       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"spent"`
	Collected   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"collected"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
	Activities  []ProjectActivity `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"activities,omitempty"`
	Documents   []ProjectDocument `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProjectActivity is an append-only log entry describing something that
// happened to a project (budget increment, approved transaction, ...).
type ProjectActivity struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Type        string          `gorm:"type:varchar(30);not null;index" json:"type"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"` // base currency
	CreatedBy   *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

func (a *ProjectActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ProjectDocument is a file associated with a project. High-value approved
// transactions have their attachments copied here for audit visibility.
type ProjectDocument struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	SourceID  *uuid.UUID `gorm:"type:uuid;index" json:"source_id"` // originating transaction document, if copied
	FileName  string     `gorm:"type:varchar(255);not null" json:"file_name"`
	FileURL   string     `gorm:"type:text;not null" json:"file_url"`
	CreatedAt time.Time  `json:"created_at"`
}

func (d *ProjectDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
