package service

import (
	"context"

	"backend/internal/repository"

	"github.com/google/uuid"
)

// ResourceAdapter translates the unified approval operations into store
// calls for one resource kind. Adapters are order-agnostic for reads (the
// aggregator merges results) but the dispatcher probes them in a fixed
// priority order because ids are not namespaced by kind.
type ResourceAdapter interface {
	Kind() string
	Module() string
	Priority() string

	// Owns reports whether this adapter's resource kind has a row with the
	// given id.
	Owns(ctx context.Context, id uuid.UUID) (bool, error)

	// ListPending returns the kind's pending resources projected into the
	// unified representation.
	ListPending(ctx context.Context, filter repository.PendingFilter) ([]ApprovalRequest, error)

	// CountByStatus counts rows whose resource-specific status maps to the
	// given unified status.
	CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error)

	Approve(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error
	Reject(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error
}

// NewAdapterRegistry returns the adapters in dispatcher probe order:
// Budget -> VendorRecord -> Campaign -> BudgetTransfer -> Transaction.
// Transaction probes last because it is the fallback kind. Tests pin this
// order.
func NewAdapterRegistry(
	budget *BudgetAdapter,
	partner *PartnerAdapter,
	campaign *CampaignAdapter,
	transfer *TransferAdapter,
	transaction *TransactionAdapter,
) []ResourceAdapter {
	return []ResourceAdapter{budget, partner, campaign, transfer, transaction}
}
