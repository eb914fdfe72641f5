package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryType enum constants
const (
	CategoryTypeIncome  = "INCOME"
	CategoryTypeExpense = "EXPENSE"
)

// Category classifies transactions within a facility.
type Category struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FacilityID *uuid.UUID `gorm:"type:uuid;index" json:"facility_id"` // nil for shared categories
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Type       string     `gorm:"type:varchar(10);not null;index" json:"type"` // INCOME, EXPENSE
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
