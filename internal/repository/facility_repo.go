package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FacilityRepository interface {
	Create(ctx context.Context, facility *model.Facility) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Facility, error)
	FindByCode(ctx context.Context, code string) (*model.Facility, error)
	List(ctx context.Context, facilityType string, page, limit int) ([]model.Facility, int64, error)
}

type facilityRepository struct {
	db *gorm.DB
}

func NewFacilityRepository(db *gorm.DB) FacilityRepository {
	return &facilityRepository{db: db}
}

func (r *facilityRepository) Create(ctx context.Context, facility *model.Facility) error {
	return GetDB(ctx, r.db).Create(facility).Error
}

func (r *facilityRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Facility, error) {
	var facility model.Facility
	if err := GetDB(ctx, r.db).First(&facility, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepository) FindByCode(ctx context.Context, code string) (*model.Facility, error) {
	var facility model.Facility
	if err := GetDB(ctx, r.db).First(&facility, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepository) List(ctx context.Context, facilityType string, page, limit int) ([]model.Facility, int64, error) {
	var facilities []model.Facility
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Facility{})
	if facilityType != "" {
		query = query.Where("type = ?", facilityType)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	if err := query.Order("code asc").Find(&facilities).Error; err != nil {
		return nil, 0, err
	}
	return facilities, total, nil
}
