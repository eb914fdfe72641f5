package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartnerRepository interface {
	Create(ctx context.Context, partner *model.Partner) error
	Update(ctx context.Context, partner *model.Partner) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	FindApprovedByName(ctx context.Context, facilityID uuid.UUID, name string) (*model.Partner, error)
	List(ctx context.Context, partnerType, search string, page, limit int) ([]model.Partner, int64, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]model.Partner, error)
	CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) Create(ctx context.Context, partner *model.Partner) error {
	return GetDB(ctx, r.db).Create(partner).Error
}

func (r *partnerRepository) Update(ctx context.Context, partner *model.Partner) error {
	return GetDB(ctx, r.db).Save(partner).Error
}

func (r *partnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	var partner model.Partner
	if err := GetDB(ctx, r.db).First(&partner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

// FindApprovedByName looks up an approved partner by exact name within a
// facility. Used to resolve the counterparty vendor record on inbound
// transfer transactions.
func (r *partnerRepository) FindApprovedByName(ctx context.Context, facilityID uuid.UUID, name string) (*model.Partner, error) {
	var partner model.Partner
	err := GetDB(ctx, r.db).
		Where("facility_id = ? AND name = ? AND status = ?", facilityID, name, model.PartnerStatusApproved).
		First(&partner).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepository) List(ctx context.Context, partnerType, search string, page, limit int) ([]model.Partner, int64, error) {
	var partners []model.Partner
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Partner{})
	if partnerType != "" {
		query = query.Where("type = ?", partnerType)
	}
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&partners).Error; err != nil {
		return nil, 0, err
	}

	return partners, total, nil
}

func (r *partnerRepository) ListPending(ctx context.Context, filter PendingFilter) ([]model.Partner, error) {
	var partners []model.Partner
	query := GetDB(ctx, r.db).Where("status = ?", model.PartnerStatusPending)
	if filter.FacilityID != nil {
		query = query.Where("facility_id = ?", *filter.FacilityID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if err := query.Order("created_at DESC").Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

func (r *partnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Partner{}).Error
}

func (r *partnerRepository) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.Partner{}).Where("status = ?", status)
	if facilityID != nil {
		query = query.Where("facility_id = ?", *facilityID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
