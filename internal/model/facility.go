package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FacilityType enum constants
const (
	FacilityTypeHeadquarters = "HEADQUARTERS"
	FacilityTypeBranch       = "BRANCH"
)

// Facility represents the headquarters or one of the branch facilities.
// Every approvable resource belongs to exactly one facility.
type Facility struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Type      string    `gorm:"type:varchar(20);not null;default:'BRANCH'" json:"type"` // HEADQUARTERS, BRANCH
	City      string    `gorm:"type:varchar(100)" json:"city"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Facility) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
