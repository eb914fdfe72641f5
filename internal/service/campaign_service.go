package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateCampaignRequest struct {
	FacilityID   string `json:"facility_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	TargetAmount string `json:"target_amount" binding:"required"` // decimal string
	Currency     string `json:"currency"`
	StartDate    string `json:"start_date"` // RFC3339
	EndDate      string `json:"end_date"`   // RFC3339
}

type CampaignResponse struct {
	ID              string `json:"id"`
	FacilityID      string `json:"facility_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	TargetAmount    string `json:"target_amount"`
	CollectedAmount string `json:"collected_amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// --- Interface ---

// CampaignService covers campaign intake and reads. Campaigns start in
// PENDING_APPROVAL and go live through the approval queue.
type CampaignService interface {
	CreateCampaign(ctx context.Context, userID string, req CreateCampaignRequest) (CampaignResponse, error)
	GetCampaign(ctx context.Context, id string) (CampaignResponse, error)
}

type campaignService struct {
	campaignRepo repository.CampaignRepository
}

func NewCampaignService(campaignRepo repository.CampaignRepository) CampaignService {
	return &campaignService{campaignRepo: campaignRepo}
}

// --- Implementation ---

func (s *campaignService) CreateCampaign(ctx context.Context, userID string, req CreateCampaignRequest) (CampaignResponse, error) {
	facilityID, err := uuid.Parse(req.FacilityID)
	if err != nil {
		return CampaignResponse{}, fmt.Errorf("%w: invalid facility_id", ErrValidation)
	}

	target, err := decimal.NewFromString(req.TargetAmount)
	if err != nil {
		return CampaignResponse{}, fmt.Errorf("%w: invalid target_amount", ErrValidation)
	}
	if target.LessThanOrEqual(decimal.Zero) {
		return CampaignResponse{}, fmt.Errorf("%w: target_amount must be greater than 0", ErrValidation)
	}

	var startDate, endDate *time.Time
	if req.StartDate != "" {
		parsed, parseErr := time.Parse(time.RFC3339, req.StartDate)
		if parseErr != nil {
			return CampaignResponse{}, fmt.Errorf("%w: start_date must be RFC3339", ErrValidation)
		}
		startDate = &parsed
	}
	if req.EndDate != "" {
		parsed, parseErr := time.Parse(time.RFC3339, req.EndDate)
		if parseErr != nil {
			return CampaignResponse{}, fmt.Errorf("%w: end_date must be RFC3339", ErrValidation)
		}
		endDate = &parsed
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return CampaignResponse{}, fmt.Errorf("%w: end_date must not precede start_date", ErrValidation)
	}

	var requesterID *uuid.UUID
	if userID != "" {
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			requesterID = &parsed
		}
	}

	campaign := model.Campaign{
		FacilityID:      facilityID,
		Name:            req.Name,
		Description:     req.Description,
		TargetAmount:    target,
		CollectedAmount: decimal.Zero,
		Currency:        req.Currency,
		StartDate:       startDate,
		EndDate:         endDate,
		Status:          model.CampaignStatusPendingApproval,
		RequestedBy:     requesterID,
	}

	if err := s.campaignRepo.Create(ctx, &campaign); err != nil {
		return CampaignResponse{}, fmt.Errorf("failed to create campaign: %w", err)
	}

	return toCampaignResponse(campaign), nil
}

func (s *campaignService) GetCampaign(ctx context.Context, id string) (CampaignResponse, error) {
	campaignID, err := uuid.Parse(id)
	if err != nil {
		return CampaignResponse{}, fmt.Errorf("%w: invalid campaign id", ErrValidation)
	}
	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return CampaignResponse{}, fmt.Errorf("campaign not found: %w", err)
	}
	return toCampaignResponse(*campaign), nil
}

// --- Helpers ---

func toCampaignResponse(c model.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:              c.ID.String(),
		FacilityID:      c.FacilityID.String(),
		Name:            c.Name,
		Description:     c.Description,
		TargetAmount:    c.TargetAmount.String(),
		CollectedAmount: c.CollectedAmount.String(),
		Currency:        c.Currency,
		Status:          c.Status,
		RejectionReason: c.RejectionReason,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
}
