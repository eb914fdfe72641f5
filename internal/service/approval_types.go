package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Unified approval status vocabulary. Resource-specific statuses (a budget's
// DRAFT, a campaign's PENDING_APPROVAL) are mapped into these three at read
// time.
const (
	ApprovalStatusPending  = "PENDING"
	ApprovalStatusApproved = "APPROVED"
	ApprovalStatusRejected = "REJECTED"
)

// Module enum constants
const (
	ModuleFinance = "FINANCE"
	ModuleQurban  = "QURBAN"
)

// Priority enum constants, assigned per resource kind and not stored on rows.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// Resource kind identifiers, in dispatcher probe order.
const (
	KindBudget      = "BUDGET"
	KindPartner     = "VENDOR_RECORD"
	KindCampaign    = "CAMPAIGN"
	KindTransfer    = "BUDGET_TRANSFER"
	KindTransaction = "TRANSACTION"
)

// ApprovalRequest is a read-time projection over one pending resource. It is
// never persisted: it is rebuilt from the owning row on every read and all
// mutation goes through the owning resource's adapter.
type ApprovalRequest struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	Type        string          `json:"type"` // human-readable kind label
	Module      string          `json:"module"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`   // normalized to base currency
	Currency    string          `json:"currency"` // always the base currency
	Status      string          `json:"status"`
	Priority    string          `json:"priority"`
	RequestedBy *uuid.UUID      `json:"requested_by"`
	RequestedAt time.Time       `json:"requested_at"`
	FacilityID  uuid.UUID       `json:"facility_id"`

	// RelatedEntityID equals ID; kept as its own field for API consumers
	// that link back to the owning resource.
	RelatedEntityID uuid.UUID `json:"related_entity_id"`

	// Metadata keeps the pre-normalization amount/currency/exchange rate and
	// other kind-specific display fields.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ApprovalFilter holds the cross-cutting, client-side filters applied after
// fan-out.
type ApprovalFilter struct {
	Module     string
	Priority   string
	FacilityID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
}

// ApprovalStats aggregates per-status counts across all resource kinds.
// Counts are independent eventually-consistent snapshots, not coupled to the
// list query.
type ApprovalStats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Urgent   int64 `json:"urgent"`
}

// BulkResult reports the outcome for a single id of a bulk operation.
type BulkResult struct {
	ID    uuid.UUID `json:"id"`
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
}
