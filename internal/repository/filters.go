package repository

import (
	"time"

	"github.com/google/uuid"
)

// PendingFilter narrows list-pending queries across resource kinds.
type PendingFilter struct {
	FacilityID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
}
