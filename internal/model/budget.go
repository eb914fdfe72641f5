package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetPeriod enum constants
const (
	BudgetPeriodYearly    = "YEARLY"
	BudgetPeriodQuarterly = "QUARTERLY"
	BudgetPeriodMonthly   = "MONTHLY"
)

// BudgetScope enum constants
const (
	BudgetScopeDepartment = "DEPARTMENT"
	BudgetScopeProject    = "PROJECT"
	BudgetScopeCategory   = "CATEGORY"
)

// BudgetStatus enum constants
const (
	BudgetStatusDraft     = "DRAFT"
	BudgetStatusActive    = "ACTIVE"
	BudgetStatusCancelled = "CANCELLED"
)

// Budget represents a budget allocation request against a scope
// (department, project, or category) for a given facility and year.
//
// At most one ACTIVE budget may exist per (facility, scope, scope_id, year).
// The consolidation engine enforces this at approval time: a newly approved
// budget is either merged into the existing active row or activated itself.
// Merged budgets are never deleted; they stay as CANCELLED audit records
// with a merge annotation in the name.
type Budget struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"facility_id"`
	Facility    *Facility       `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Year        int             `gorm:"not null;index" json:"year"`
	Period      string          `gorm:"type:varchar(20);not null;default:'YEARLY'" json:"period"` // YEARLY, QUARTERLY, MONTHLY
	Scope       string          `gorm:"type:varchar(20);not null;index" json:"scope"`             // DEPARTMENT, PROJECT, CATEGORY
	ScopeID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"scope_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Spent       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"spent"`
	Currency    string          `gorm:"type:varchar(10);not null;default:'IDR'" json:"currency"`
	Status      string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"` // DRAFT, ACTIVE, CANCELLED
	Description string          `gorm:"type:text" json:"description"`
	RequestedBy *uuid.UUID      `gorm:"type:uuid;index" json:"requested_by"`
	Requester   *User           `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
