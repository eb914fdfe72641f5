package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign *model.Campaign) error
	Update(ctx context.Context, campaign *model.Campaign) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]model.Campaign, error)
	CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error)
}

type campaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *model.Campaign) error {
	return GetDB(ctx, r.db).Create(campaign).Error
}

func (r *campaignRepository) Update(ctx context.Context, campaign *model.Campaign) error {
	return GetDB(ctx, r.db).Save(campaign).Error
}

func (r *campaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := GetDB(ctx, r.db).First(&campaign, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *campaignRepository) ListPending(ctx context.Context, filter PendingFilter) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	query := GetDB(ctx, r.db).Where("status = ?", model.CampaignStatusPendingApproval)
	if filter.FacilityID != nil {
		query = query.Where("facility_id = ?", *filter.FacilityID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if err := query.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *campaignRepository) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.Campaign{}).Where("status = ?", status)
	if facilityID != nil {
		query = query.Where("facility_id = ?", *facilityID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
