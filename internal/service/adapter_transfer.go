package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/currency"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransferAdapter exposes inter-facility budget transfers to the approval
// queue. Decisions delegate to the transfer workflow, which owns the
// inbound-transaction side effect.
type TransferAdapter struct {
	repo       repository.TransferRepository
	workflow   TransferService
	normalizer *currency.Normalizer
}

func NewTransferAdapter(repo repository.TransferRepository, workflow TransferService, normalizer *currency.Normalizer) *TransferAdapter {
	return &TransferAdapter{repo: repo, workflow: workflow, normalizer: normalizer}
}

func (a *TransferAdapter) Kind() string     { return KindTransfer }
func (a *TransferAdapter) Module() string   { return ModuleFinance }
func (a *TransferAdapter) Priority() string { return PriorityHigh }

func (a *TransferAdapter) Owns(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := a.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *TransferAdapter) ListPending(ctx context.Context, filter repository.PendingFilter) ([]ApprovalRequest, error) {
	transfers, err := a.repo.ListPending(ctx, filter)
	if err != nil {
		return nil, err
	}
	requests := make([]ApprovalRequest, 0, len(transfers))
	for i := range transfers {
		requests = append(requests, a.toRequest(&transfers[i]))
	}
	return requests, nil
}

func (a *TransferAdapter) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	mapped := map[string]string{
		ApprovalStatusPending:  model.TransferStatusPending,
		ApprovalStatusApproved: model.TransferStatusCompleted,
		ApprovalStatusRejected: model.TransferStatusRejected,
	}[status]
	return a.repo.CountByStatus(ctx, mapped, facilityID)
}

func (a *TransferAdapter) Approve(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error {
	return a.workflow.ApproveTransfer(ctx, id, actor, comment)
}

func (a *TransferAdapter) Reject(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error {
	return a.workflow.RejectTransfer(ctx, id, actor, reason)
}

func (a *TransferAdapter) toRequest(t *model.BudgetTransfer) ApprovalRequest {
	status := ApprovalStatusPending
	switch t.Status {
	case model.TransferStatusCompleted:
		status = ApprovalStatusApproved
	case model.TransferStatusRejected:
		status = ApprovalStatusRejected
	}

	return ApprovalRequest{
		ID:              t.ID,
		Kind:            a.Kind(),
		Type:            "budget transfer",
		Module:          a.Module(),
		Title:           t.Code,
		Description:     fmt.Sprintf("Transfer %s: %s", t.Code, t.Notes),
		Amount:          t.BaseAmount,
		Currency:        a.normalizer.Base(),
		Status:          status,
		Priority:        a.Priority(),
		RequestedBy:     t.RequestedBy,
		RequestedAt:     t.CreatedAt,
		FacilityID:      t.FromFacilityID,
		RelatedEntityID: t.ID,
		Metadata: map[string]interface{}{
			"original_amount":   t.Amount.String(),
			"original_currency": t.Currency,
			"exchange_rate":     t.ExchangeRate.String(),
			"to_facility_id":    t.ToFacilityID.String(),
		},
	}
}
