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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CampaignAdapter exposes qurban donation campaigns to the approval queue.
// PENDING_APPROVAL -> ACTIVE on approve, -> REJECTED on reject; no cascade.
type CampaignAdapter struct {
	repo       repository.CampaignRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	normalizer *currency.Normalizer
}

func NewCampaignAdapter(repo repository.CampaignRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, normalizer *currency.Normalizer) *CampaignAdapter {
	return &CampaignAdapter{repo: repo, auditRepo: auditRepo, txManager: txManager, normalizer: normalizer}
}

func (a *CampaignAdapter) Kind() string     { return KindCampaign }
func (a *CampaignAdapter) Module() string   { return ModuleQurban }
func (a *CampaignAdapter) Priority() string { return PriorityMedium }

func (a *CampaignAdapter) Owns(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := a.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *CampaignAdapter) ListPending(ctx context.Context, filter repository.PendingFilter) ([]ApprovalRequest, error) {
	campaigns, err := a.repo.ListPending(ctx, filter)
	if err != nil {
		return nil, err
	}
	requests := make([]ApprovalRequest, 0, len(campaigns))
	for i := range campaigns {
		requests = append(requests, a.toRequest(&campaigns[i]))
	}
	return requests, nil
}

func (a *CampaignAdapter) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	mapped := map[string]string{
		ApprovalStatusPending:  model.CampaignStatusPendingApproval,
		ApprovalStatusApproved: model.CampaignStatusActive,
		ApprovalStatusRejected: model.CampaignStatusRejected,
	}[status]
	return a.repo.CountByStatus(ctx, mapped, facilityID)
}

func (a *CampaignAdapter) Approve(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error {
	return a.transition(ctx, id, actor, model.CampaignStatusActive, comment)
}

func (a *CampaignAdapter) Reject(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error {
	return a.transition(ctx, id, actor, model.CampaignStatusRejected, reason)
}

func (a *CampaignAdapter) transition(ctx context.Context, id uuid.UUID, actor *uuid.UUID, target, note string) error {
	return a.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		campaign, err := a.repo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("campaign not found: %w", err)
		}
		if campaign.Status != model.CampaignStatusPendingApproval {
			return fmt.Errorf("%w: campaign is already %s", ErrInvalidTransition, campaign.Status)
		}

		campaign.Status = target
		if target == model.CampaignStatusRejected {
			campaign.RejectionReason = note
		}
		if err := a.repo.Update(txCtx, campaign); err != nil {
			return fmt.Errorf("failed to update campaign: %w", err)
		}

		action := model.ActionApproveRequest
		if target == model.CampaignStatusRejected {
			action = model.ActionRejectRequest
		}
		details, _ := json.Marshal(map[string]interface{}{"kind": a.Kind(), "note": note})
		audit := &model.AuditLog{
			UserID:     actor,
			Action:     action,
			EntityID:   campaign.ID.String(),
			EntityName: campaign.Name,
			Details:    string(details),
		}
		if err := a.auditRepo.Log(txCtx, audit); err != nil {
			log.Printf("campaign adapter: audit write failed for %s: %v", campaign.ID, err)
		}
		return nil
	})
}

func (a *CampaignAdapter) toRequest(c *model.Campaign) ApprovalRequest {
	status := ApprovalStatusPending
	switch c.Status {
	case model.CampaignStatusActive, model.CampaignStatusCompleted:
		status = ApprovalStatusApproved
	case model.CampaignStatusRejected:
		status = ApprovalStatusRejected
	}

	// Campaigns store no exchange rate, so the projection applies rate 1 by
	// definition; this is not a missing-rate data-quality event.
	return ApprovalRequest{
		ID:              c.ID,
		Kind:            a.Kind(),
		Type:            "campaign",
		Module:          a.Module(),
		Title:           c.Name,
		Description:     c.Description,
		Amount:          a.normalizer.Normalize(c.TargetAmount, c.Currency, decimal.NewFromInt(1)),
		Currency:        a.normalizer.Base(),
		Status:          status,
		Priority:        a.Priority(),
		RequestedBy:     c.RequestedBy,
		RequestedAt:     c.CreatedAt,
		FacilityID:      c.FacilityID,
		RelatedEntityID: c.ID,
		Metadata: map[string]interface{}{
			"original_amount":   c.TargetAmount.String(),
			"original_currency": c.Currency,
			"collected_amount":  c.CollectedAmount.String(),
		},
	}
}
