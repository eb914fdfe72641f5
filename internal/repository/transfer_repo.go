package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransferRepository interface {
	Create(ctx context.Context, transfer *model.BudgetTransfer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BudgetTransfer, error)
	Update(ctx context.Context, transfer *model.BudgetTransfer) error
	List(ctx context.Context, status string, page, limit int) ([]model.BudgetTransfer, int64, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]model.BudgetTransfer, error)
	CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error)
	NextCode(ctx context.Context) (string, error)
}

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *model.BudgetTransfer) error {
	return GetDB(ctx, r.db).Create(transfer).Error
}

func (r *transferRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.BudgetTransfer, error) {
	var transfer model.BudgetTransfer
	if err := GetDB(ctx, r.db).First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) Update(ctx context.Context, transfer *model.BudgetTransfer) error {
	return GetDB(ctx, r.db).Save(transfer).Error
}

func (r *transferRepository) List(ctx context.Context, status string, page, limit int) ([]model.BudgetTransfer, int64, error) {
	var transfers []model.BudgetTransfer
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.BudgetTransfer{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("FromFacility").Preload("ToFacility")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&transfers).Error; err != nil {
		return nil, 0, err
	}

	return transfers, total, nil
}

func (r *transferRepository) ListPending(ctx context.Context, filter PendingFilter) ([]model.BudgetTransfer, error) {
	var transfers []model.BudgetTransfer
	query := GetDB(ctx, r.db).Where("status = ?", model.TransferStatusPending)
	if filter.FacilityID != nil {
		// A transfer is relevant to both ends; filter on the sending side,
		// which is where approval happens.
		query = query.Where("from_facility_id = ?", *filter.FacilityID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if err := query.Order("created_at DESC").Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

func (r *transferRepository) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.BudgetTransfer{}).Where("status = ?", status)
	if facilityID != nil {
		query = query.Where("from_facility_id = ?", *facilityID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextCode generates a human-readable transfer code for the current day,
// serialized with an advisory lock on postgres.
func (r *transferRepository) NextCode(ctx context.Context) (string, error) {
	db := GetDB(ctx, r.db)
	prefix := "TRF-" + time.Now().Format("20060102") + "-"

	if db.Dialector.Name() == "postgres" {
		db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)
	}

	var count int64
	if err := db.Model(&model.BudgetTransfer{}).
		Where("code LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
