package service

import (
	"context"
	"errors"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/currency"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetAdapter exposes budgets to the approval queue. Approval delegates to
// the consolidation engine, the one non-trivial approve path.
type BudgetAdapter struct {
	repo         repository.BudgetRepository
	consolidator *BudgetConsolidator
	normalizer   *currency.Normalizer
}

func NewBudgetAdapter(repo repository.BudgetRepository, consolidator *BudgetConsolidator, normalizer *currency.Normalizer) *BudgetAdapter {
	return &BudgetAdapter{repo: repo, consolidator: consolidator, normalizer: normalizer}
}

func (a *BudgetAdapter) Kind() string     { return KindBudget }
func (a *BudgetAdapter) Module() string   { return ModuleFinance }
func (a *BudgetAdapter) Priority() string { return PriorityHigh }

func (a *BudgetAdapter) Owns(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := a.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *BudgetAdapter) ListPending(ctx context.Context, filter repository.PendingFilter) ([]ApprovalRequest, error) {
	budgets, err := a.repo.ListPending(ctx, filter)
	if err != nil {
		return nil, err
	}
	requests := make([]ApprovalRequest, 0, len(budgets))
	for i := range budgets {
		requests = append(requests, a.toRequest(&budgets[i]))
	}
	return requests, nil
}

func (a *BudgetAdapter) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	mapped := map[string]string{
		ApprovalStatusPending:  model.BudgetStatusDraft,
		ApprovalStatusApproved: model.BudgetStatusActive,
		ApprovalStatusRejected: model.BudgetStatusCancelled,
	}[status]
	return a.repo.CountByStatus(ctx, mapped, facilityID)
}

func (a *BudgetAdapter) Approve(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error {
	return a.consolidator.Approve(ctx, id, actor, comment)
}

func (a *BudgetAdapter) Reject(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error {
	return a.consolidator.Reject(ctx, id, actor, reason)
}

func (a *BudgetAdapter) toRequest(b *model.Budget) ApprovalRequest {
	status := ApprovalStatusPending
	switch b.Status {
	case model.BudgetStatusActive:
		status = ApprovalStatusApproved
	case model.BudgetStatusCancelled:
		status = ApprovalStatusRejected
	}

	// Budgets store no exchange rate, so the projection applies rate 1 by
	// definition; this is not a missing-rate data-quality event.
	return ApprovalRequest{
		ID:              b.ID,
		Kind:            a.Kind(),
		Type:            "budget",
		Module:          a.Module(),
		Title:           b.Name,
		Description:     b.Description,
		Amount:          a.normalizer.Normalize(b.Amount, b.Currency, decimal.NewFromInt(1)),
		Currency:        a.normalizer.Base(),
		Status:          status,
		Priority:        a.Priority(),
		RequestedBy:     b.RequestedBy,
		RequestedAt:     b.CreatedAt,
		FacilityID:      b.FacilityID,
		RelatedEntityID: b.ID,
		Metadata: map[string]interface{}{
			"original_amount":   b.Amount.String(),
			"original_currency": b.Currency,
			"year":              b.Year,
			"period":            b.Period,
			"scope":             b.Scope,
			"scope_id":          b.ScopeID.String(),
		},
	}
}
