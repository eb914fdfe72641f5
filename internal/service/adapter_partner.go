package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/currency"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerAdapter exposes vendor/customer records to the approval queue.
// Approve and reject are pure status transitions with no cascade.
type PartnerAdapter struct {
	repo       repository.PartnerRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	normalizer *currency.Normalizer
}

func NewPartnerAdapter(repo repository.PartnerRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, normalizer *currency.Normalizer) *PartnerAdapter {
	return &PartnerAdapter{repo: repo, auditRepo: auditRepo, txManager: txManager, normalizer: normalizer}
}

func (a *PartnerAdapter) Kind() string     { return KindPartner }
func (a *PartnerAdapter) Module() string   { return ModuleFinance }
func (a *PartnerAdapter) Priority() string { return PriorityLow }

func (a *PartnerAdapter) Owns(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := a.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *PartnerAdapter) ListPending(ctx context.Context, filter repository.PendingFilter) ([]ApprovalRequest, error) {
	partners, err := a.repo.ListPending(ctx, filter)
	if err != nil {
		return nil, err
	}
	requests := make([]ApprovalRequest, 0, len(partners))
	for i := range partners {
		requests = append(requests, a.toRequest(&partners[i]))
	}
	return requests, nil
}

func (a *PartnerAdapter) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	// Partner statuses already use the unified vocabulary.
	return a.repo.CountByStatus(ctx, status, facilityID)
}

func (a *PartnerAdapter) Approve(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error {
	return a.transition(ctx, id, actor, model.PartnerStatusApproved, comment)
}

func (a *PartnerAdapter) Reject(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error {
	return a.transition(ctx, id, actor, model.PartnerStatusRejected, reason)
}

func (a *PartnerAdapter) transition(ctx context.Context, id uuid.UUID, actor *uuid.UUID, target, note string) error {
	return a.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		partner, err := a.repo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("vendor record not found: %w", err)
		}
		if partner.Status != model.PartnerStatusPending {
			return fmt.Errorf("%w: vendor record is already %s", ErrInvalidTransition, partner.Status)
		}

		partner.Status = target
		if err := a.repo.Update(txCtx, partner); err != nil {
			return fmt.Errorf("failed to update vendor record: %w", err)
		}

		action := model.ActionApproveRequest
		if target == model.PartnerStatusRejected {
			action = model.ActionRejectRequest
		}
		details, _ := json.Marshal(map[string]interface{}{"kind": a.Kind(), "note": note})
		audit := &model.AuditLog{
			UserID:     actor,
			Action:     action,
			EntityID:   partner.ID.String(),
			EntityName: partner.Name,
			Details:    string(details),
		}
		if err := a.auditRepo.Log(txCtx, audit); err != nil {
			log.Printf("partner adapter: audit write failed for %s: %v", partner.ID, err)
		}
		return nil
	})
}

func (a *PartnerAdapter) toRequest(p *model.Partner) ApprovalRequest {
	status := ApprovalStatusPending
	switch p.Status {
	case model.PartnerStatusApproved:
		status = ApprovalStatusApproved
	case model.PartnerStatusRejected:
		status = ApprovalStatusRejected
	}

	return ApprovalRequest{
		ID:              p.ID,
		Kind:            a.Kind(),
		Type:            "vendor record",
		Module:          a.Module(),
		Title:           p.Name,
		Description:     fmt.Sprintf("%s registration (%s)", p.Type, p.CompanyName),
		Currency:        a.normalizer.Base(),
		Status:          status,
		Priority:        a.Priority(),
		RequestedBy:     p.RequestedBy,
		RequestedAt:     p.CreatedAt,
		FacilityID:      p.FacilityID,
		RelatedEntityID: p.ID,
		Metadata: map[string]interface{}{
			"partner_type": p.Type,
			"tax_code":     p.TaxCode,
			"email":        p.Email,
		},
	}
}
